package token

import (
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/jwt"

	"GeoAttend/config"
	"GeoAttend/pkg/errors"
)

const (
	IdentityKey = "uid"
	RoleKey     = "role"

	typeKey     = "type"
	typeRefresh = "refresh"
)

var (
	// 这个实例会被 middleware 和 token 包共同使用
	sharedGenerator *jwt.HertzJWTMiddleware
)

func Init() error {
	var err error
	sharedGenerator, err = jwt.New(&jwt.HertzJWTMiddleware{
		Key:         []byte(config.Cfg.JWTSecret),
		Timeout:     time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute,
		MaxRefresh:  time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour,
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	return nil
}

// GetGenerator 获取共享的 token 生成器（供 middleware 使用）
func GetGenerator() *jwt.HertzJWTMiddleware {
	return sharedGenerator
}

// GenerateTokenPair 生成 access token 和 refresh token，access token 携带角色
func GenerateTokenPair(userID int64, role string) (accessToken, refreshToken string, expiresIn int, err error) {
	if sharedGenerator == nil {
		return "", "", 0, errors.ErrTokenGeneratorNotInitialized
	}

	uid := strconv.FormatInt(userID, 10)
	now := time.Now()
	expiresAt := now.Add(time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute)

	accessClaims := jwtv5.MapClaims{
		IdentityKey: uid,
		RoleKey:     role,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}
	accessToken, err = sign(accessClaims)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	expiresIn = int(time.Until(expiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	refreshClaims := jwtv5.MapClaims{
		IdentityKey: uid,
		typeKey:     typeRefresh,
		"iat":       now.Unix(),
		"exp":       now.Add(time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour).Unix(),
	}
	refreshToken, err = sign(refreshClaims)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, expiresIn, nil
}

func sign(claims jwtv5.MapClaims) (string, error) {
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(config.Cfg.JWTSecret))
}

func parse(tokenString string) (jwtv5.MapClaims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, jwtv5.MapClaims{}, func(token *jwtv5.Token) (interface{}, error) {
		if token.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", errors.ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return []byte(config.Cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.ErrInvalidTokenClaims
	}
	return claims, nil
}

// UserIDFromClaims 兼容字符串与数字两种 uid 写法
func UserIDFromClaims(claims map[string]interface{}) (int64, error) {
	switch v := claims[IdentityKey].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0, errors.ErrUserIDNotFound
		}
		return id, nil
	case float64:
		if v <= 0 {
			return 0, errors.ErrUserIDNotFound
		}
		return int64(v), nil
	default:
		return 0, errors.ErrUserIDNotFound
	}
}

// RoleFromClaims access token 中的角色，缺失时为空串
func RoleFromClaims(claims map[string]interface{}) string {
	role, _ := claims[RoleKey].(string)
	return role
}

// IsRefreshClaims refresh token 不能当作 access token 使用
func IsRefreshClaims(claims map[string]interface{}) bool {
	tokenType, _ := claims[typeKey].(string)
	return tokenType == typeRefresh
}

// ParseAccessToken 解析 access token，refresh token 会被拒绝
func ParseAccessToken(tokenString string) (int64, string, error) {
	claims, err := parse(tokenString)
	if err != nil {
		return 0, "", err
	}
	if tokenType, ok := claims[typeKey].(string); ok && tokenType == typeRefresh {
		return 0, "", errors.ErrInvalidTokenType
	}

	uid, err := UserIDFromClaims(claims)
	if err != nil {
		return 0, "", err
	}
	return uid, RoleFromClaims(claims), nil
}
