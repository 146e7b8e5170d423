package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"taskManager/internal/dto"
	"taskManager/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const jsonContentType = "application/json"

var validate = newValidator()

// newValidator называет поля в ошибках так же, как в JSON
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

func validateTaskRequest(req dto.CreateOrUpdateTaskRequest) *service.BusinessError {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return service.NewValidationError(fieldErrs[0].Field(), describeFieldError(fieldErrs[0]))
		}
		return service.NewValidationError("body", err.Error())
	}

	// срок с точностью до секунды, текущая секунда ещё допустима
	if req.DueDate != nil && req.DueDate.Before(time.Now().Truncate(time.Second)) {
		return service.NewValidationError("dueDate", "дата не может быть в прошлом")
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("длина не должна превышать %s символов", fe.Param())
	case "oneof":
		return "допустимые значения: " + fe.Param()
	default:
		return fe.Error()
	}
}

func parseID(r *http.Request) (int64, *service.BusinessError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, service.NewValidationError("id", "должен быть целым числом")
	}
	if id <= 0 {
		return 0, service.NewValidationError("id", "должен быть положительным")
	}
	return id, nil
}

// parsePositiveQuery читает обязательный положительный параметр запроса
func parsePositiveQuery(r *http.Request, name string) (int, *service.BusinessError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, service.NewValidationError(name, "обязательный параметр")
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.NewValidationError(name, "должен быть целым числом")
	}
	if value <= 0 {
		return 0, service.NewValidationError(name, "должен быть положительным")
	}
	return value, nil
}
