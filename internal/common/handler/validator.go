package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
)

// 评分取值范围
const (
	MinRating = 1.0
	MaxRating = 5.0
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义规则，并使用 json 标签作为字段名
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			}
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("halfstep", validateHalfStep)
		_ = v.RegisterValidation("notblank", validateNotBlank)
	})
}

// IsValidRating 评分在 1 到 5 之间且为 0.5 的整数倍
func IsValidRating(r float64) bool {
	if math.IsNaN(r) || r < MinRating || r > MaxRating {
		return false
	}
	return math.Mod(r*2, 1) == 0
}

func validateHalfStep(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		return IsValidRating(field.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IsValidRating(float64(field.Int()))
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

// TranslateBindError 将绑定与校验错误转换为应用错误
func TranslateBindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "halfstep":
			return errors.ErrInvalidRating
		case "required", "notblank":
			return errors.ErrInvalidParams.WithMessagef("%s 不能为空", fe.Field())
		case "max":
			if fe.Kind() == reflect.String {
				return errors.ErrCommentTooLong.WithMessagef("%s 长度不能超过 %s", fe.Field(), fe.Param())
			}
		case "oneof":
			return errors.ErrValidationFailed.WithMessagef("%s 必须是 [%s] 之一", fe.Field(), fe.Param())
		}
		return errors.ErrValidationFailed.WithMessagef("%s 校验失败 (%s)", fe.Field(), fe.Tag())
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return errors.ErrInvalidParams.WithMessage("请求体不是合法的 JSON")
	case errors.As(err, &typeErr):
		return errors.ErrInvalidParams.WithMessage(fmt.Sprintf("字段 %s 类型错误", typeErr.Field))
	}
	return errors.ErrInvalidParams.WithError(err)
}
