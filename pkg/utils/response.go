package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const internalErrorMessage = "Internal server error"

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

// fieldName reports validation failures using the wire name of a field.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// ValidationMessage turns a binding error into the message of its first failure.
func ValidationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fieldErrorMessage(ve[0])
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type.String())
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "Malformed JSON body"
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return "Malformed JSON body"
	}
	if errors.Is(err, io.EOF) {
		return "Request body is required"
	}
	return err.Error()
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	isLength := fe.Kind() == reflect.String || fe.Kind() == reflect.Slice

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and numbers", field)
	case "min", "gte":
		if isLength {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		if isLength {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func RespondValidationError(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, ValidationMessage(err))
}

// RespondInternalError logs err with the request context and hides it from the client.
func RespondInternalError(c *gin.Context, log *logger.Logger, event string, err error) {
	log.Error(event,
		"error", err.Error(),
		"method", c.Request.Method,
		"path", c.FullPath(),
		"user_id", c.GetString("user_id"),
	)
	RespondError(c, http.StatusInternalServerError, internalErrorMessage)
}
