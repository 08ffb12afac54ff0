package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	gvalidator "github.com/go-playground/validator/v10"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/i18n"
)

// TagErrorBuilder describes how to convert a validator.FieldError into a message
type TagErrorBuilder struct {
	Code    *apperr.ErrorCode
	Builder func(fe gvalidator.FieldError) string
}

// Validator is the wrapper around go-playground validator with extra features.
type Validator struct {
	v                *gvalidator.Validate
	tagErrorBuilders map[string]TagErrorBuilder
	translator       *i18n.Translator
}

// ValidatorEngine defines the interface for validation engines
type ValidatorEngine interface {
	RegisterValidation(tag string, fn gvalidator.Func) error
	RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string)
	ParseError(err error) *apperr.AppError
}

var _ ValidatorEngine = (*Validator)(nil)

// New returns a Validator sharing gin's binding engine, so custom tags
// registered here apply to ShouldBind* as well. Field names in errors are the
// json/form/uri tag names.
func New() *Validator {
	v, ok := binding.Validator.Engine().(*gvalidator.Validate)
	if !ok {
		v = gvalidator.New()
	}
	v.RegisterTagNameFunc(fieldName)

	vi := &Validator{
		v:                v,
		tagErrorBuilders: make(map[string]TagErrorBuilder),
		translator:       i18n.Default(),
	}
	vi.RegisterTagError("eqfield", apperr.ErrorCodeInvalidRequest, func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%s must match %s", fe.Field(), lowerFirst(fe.Param()))
	})
	return vi
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		if name := getTagName(f, tag); name != "" {
			return name
		}
	}
	return f.Name
}

// helper to get tag name
func getTagName(f reflect.StructField, tagName string) string {
	tagValue := f.Tag.Get(tagName)
	if tagValue == "-" {
		return ""
	}
	return strings.SplitN(tagValue, ",", 2)[0]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// RegisterValidation registers a custom validator (name) to the engine.
func (vi *Validator) RegisterValidation(tag string, fn gvalidator.Func) error {
	return vi.v.RegisterValidation(tag, fn)
}

// RegisterTagError allows mapping tag -> ErrorCode + message builder.
func (vi *Validator) RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string) {
	vi.tagErrorBuilders[tag] = TagErrorBuilder{Code: code, Builder: builder}
}

// Struct validates s directly.
func (vi *Validator) Struct(s any) *apperr.AppError {
	if err := vi.v.Struct(s); err != nil {
		return vi.ParseError(err)
	}
	return nil
}

// ParseError converts any binding/validator/json error into an invalid_request
// *apperr.AppError. The message is the first problem found; every field
// problem is also listed as a suggestion.
func (vi *Validator) ParseError(err error) *apperr.AppError {
	if err == nil {
		return nil
	}

	var (
		verrs     gvalidator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		timeErr   *time.ParseError
	)
	switch {
	case errors.As(err, &verrs):
		appErr := apperr.New(apperr.ErrorCodeInvalidRequest)
		for i, fe := range verrs {
			msg := vi.buildMessageForField(fe)
			if i == 0 {
				appErr.Message = msg
				if b, ok := vi.tagErrorBuilders[fe.Tag()]; ok && b.Code != nil && b.Code != apperr.ErrorCodeInvalidRequest {
					appErr.WithCode(b.Code)
					appErr.Message = msg
				}
			}
			appErr.AddSuggestion(fe.Field(), msg)
		}
		return appErr

	case errors.As(err, &typeErr):
		appErr := apperr.New(apperr.ErrorCodeInvalidRequest)
		if typeErr.Field == "" {
			appErr.Message = "invalid request body"
			return appErr
		}
		appErr.Message = fmt.Sprintf("invalid type for field %s: expected %s", typeErr.Field, typeErr.Type.String())
		return appErr.AddSuggestion(typeErr.Field, appErr.Message)

	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.New(apperr.ErrorCodeInvalidRequest).WithMessage("invalid JSON payload")

	case errors.As(err, &timeErr):
		return apperr.New(apperr.ErrorCodeInvalidRequest).WithMessage("invalid date format")

	default:
		return apperr.New(apperr.ErrorCodeInvalidRequest).WithMessage(fmt.Sprintf("invalid input: %v", err))
	}
}

// buildMessageForField uses registered tag builders or the field_invalid message
func (vi *Validator) buildMessageForField(fe gvalidator.FieldError) string {
	if b, ok := vi.tagErrorBuilders[fe.Tag()]; ok && b.Builder != nil {
		return b.Builder(fe)
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be %s %s", fe.Field(), map[string]string{"min": "at least", "max": "at most"}[fe.Tag()], fe.Param())
		}
	}
	return vi.translator.T("", "field_invalid", map[string]any{"field": fe.Field(), "tag": fe.Tag()})
}

// BindJSON binds and validates JSON body into T. Returns either (*T, nil) or (nil, *apperr.AppError)
func BindJSON[T any](vi ValidatorEngine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}

// BindQuery binds & validates query parameters
func BindQuery[T any](vi ValidatorEngine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindQuery(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}

// BindURI binds & validates uri params
func BindURI[T any](vi ValidatorEngine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindUri(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}
