package activity

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxTextBytes bounds teaching prompt and response size.
const MaxTextBytes = 16 * 1024

var slugRe = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxTextBytes
	})
}

// ValidationError reports an event that failed validation. Index is the
// event's position in a batch, or -1 for a single event.
type ValidationError struct {
	Index int
	Type  Type
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	where := string(e.Type)
	if e.Index >= 0 {
		where = fmt.Sprintf("event %d (%s)", e.Index, e.Type)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %v", where, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks a single event.
func Validate(e Event) error {
	return validateAt(-1, e)
}

// ValidateBatch checks every event and returns the first failure.
func ValidateBatch(events []Event) error {
	for i, e := range events {
		if err := validateAt(i, e); err != nil {
			return err
		}
	}
	return nil
}

func validateAt(i int, e Event) error {
	if e == nil {
		return &ValidationError{Index: i, Err: errors.New("nil event")}
	}
	if !known(e.Kind()) {
		return &ValidationError{Index: i, Type: e.Kind(), Err: fmt.Errorf("%w: %q", ErrUnknownType, e.Kind())}
	}
	if err := validate.Struct(e); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return &ValidationError{
				Index: i,
				Type:  e.Kind(),
				Field: fe.Field(),
				Err:   fmt.Errorf("failed %q constraint", fe.Tag()),
			}
		}
		return &ValidationError{Index: i, Type: e.Kind(), Err: err}
	}
	return nil
}

func known(t Type) bool {
	for _, k := range AllTypes() {
		if k == t {
			return true
		}
	}
	return false
}
