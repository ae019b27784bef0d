package validate

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"GeoAttend/pkg/errors"
)

var (
	v    *validator.Validate
	once sync.Once
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// 错误信息使用 json 字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return v
}

// Struct 校验请求体，失败返回 INVALID_INPUT 以及字段 -> 规则的明细
func Struct(s interface{}) (map[string]interface{}, error) {
	err := instance().Struct(s)
	if err == nil {
		return nil, nil
	}

	var ve validator.ValidationErrors
	if !stderrors.As(err, &ve) {
		return nil, errors.InvalidInput
	}

	details := make(map[string]interface{}, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	return details, errors.InvalidInput.WithMessage("Request validation failed")
}
