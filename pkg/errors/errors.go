package errors

import stderrors "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// WithMessage 保留错误码，替换提示信息。
func (d Definition) WithMessage(message string) Definition {
	return Definition{Code: d.Code, Message: message}
}

// Is 按错误码比较，使 errors.Is 对 WithMessage 派生的错误同样生效。
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	return ok && t.Code == d.Code
}

// 通用错误。
var (
	InvalidInput    = Definition{Code: "INVALID_INPUT", Message: "Invalid input"}
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthorized    = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	Forbidden       = Definition{Code: "FORBIDDEN", Message: "Forbidden"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later"}
	Internal        = Definition{Code: "INTERNAL_ERROR", Message: "Internal error"}
)

// 认证相关错误。
var (
	InvalidCredentials = Definition{Code: "INVALID_CREDENTIALS", Message: "Invalid identity number or password"}
	InvalidUserID      = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	UserNotFound       = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
	UserAlreadyExists  = Definition{Code: "USER_ALREADY_EXISTS", Message: "User already exists"}
)

// 考勤模块错误。
var (
	ScheduleNotFound = Definition{Code: "SCHEDULE_NOT_FOUND", Message: "Schedule not found"}
	ScheduleInvalid  = Definition{Code: "SCHEDULE_INVALID", Message: "Schedule end time must be after start time"}
	LocationNotFound = Definition{Code: "LOCATION_NOT_FOUND", Message: "Location not found"}
	CourseNotFound   = Definition{Code: "COURSE_NOT_FOUND", Message: "Course not found"}
	ClassNotFound    = Definition{Code: "CLASS_NOT_FOUND", Message: "Class not found"}

	CourseAlreadyExists = Definition{Code: "COURSE_ALREADY_EXISTS", Message: "Course code already exists"}
)

// token 相关错误。
var (
	ErrTokenGeneratorNotInitialized = stderrors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = stderrors.New("unexpected signing method")
	ErrInvalidToken                 = stderrors.New("invalid token")
	ErrInvalidTokenClaims           = stderrors.New("invalid token claims")
	ErrInvalidTokenType             = stderrors.New("invalid token type")
	ErrUserIDNotFound               = stderrors.New("user id not found in token")
)

// SkipMessageError 表示消息无需处理（重复投递等），消费者直接 ack。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return e.Reason
}

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidInput.Code:       InvalidInput,
	InvalidRequest.Code:     InvalidRequest,
	Unauthorized.Code:       Unauthorized,
	Forbidden.Code:          Forbidden,
	TooManyRequests.Code:    TooManyRequests,
	Internal.Code:           Internal,
	InvalidCredentials.Code: InvalidCredentials,
	InvalidUserID.Code:      InvalidUserID,
	UserNotFound.Code:       UserNotFound,
	UserAlreadyExists.Code:  UserAlreadyExists,
	ScheduleNotFound.Code:   ScheduleNotFound,
	ScheduleInvalid.Code:    ScheduleInvalid,
	LocationNotFound.Code:   LocationNotFound,
	CourseNotFound.Code:     CourseNotFound,
	ClassNotFound.Code:      ClassNotFound,

	CourseAlreadyExists.Code: CourseAlreadyExists,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
