package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskmanager-api/internal/domain"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// Global validator instance for reuse
var validate = NewValidator()

// NewValidator returns a validator that reports fields by their JSON names
// and knows the custom tags used by request models:
//
//	username  - 3-30 letters, digits or underscores
//	iso8601   - a date or date-time accepted by ParseISO8601
//	taskstatus - one of the task statuses
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return domain.ValidUsername(fl.Field().String())
	})
	_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := ParseISO8601(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return domain.TaskStatus(fl.Field().String()).IsValid()
	})
	return v
}

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// ValidateRequest validates v and converts rule violations into a
// *domain.ValidationError. messages maps a JSON field name to the message
// reported for any rule failing on that field.
func ValidateRequest(v interface{}, messages map[string]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = "Invalid value"
		}
		var value any
		if fe.Field() != "password" {
			value = fe.Value()
		}
		verr.Add(fe.Field(), msg, value)
	}
	return verr
}

var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISO8601 parses the date and date-time forms clients send for due
// dates. Values without a zone are taken as UTC.
func ParseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range iso8601Layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
