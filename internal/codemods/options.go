package codemods

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Script is the body of a migration or addition. Scripts that take options
// return a pointer to their defaults from NewOptions; option-less scripts
// return nil.
type Script interface {
	NewOptions() any
	Run(c *Context, opts any) error
}

// ScriptFunc adapts a plain function to a Script without options.
type ScriptFunc func(c *Context) error

func (f ScriptFunc) NewOptions() any { return nil }

func (f ScriptFunc) Run(c *Context, _ any) error {
	return f(c)
}

type optionsScript[T any] struct {
	defaults T
	fn       func(*Context, T) error
}

// WithOptions builds a Script whose options decode into T, starting from
// defaults.
func WithOptions[T any](defaults T, fn func(*Context, T) error) Script {
	return &optionsScript[T]{defaults: defaults, fn: fn}
}

func (s *optionsScript[T]) NewOptions() any {
	v := s.defaults
	return &v
}

func (s *optionsScript[T]) Run(c *Context, opts any) error {
	switch o := opts.(type) {
	case nil:
		return s.fn(c, s.defaults)
	case *T:
		return s.fn(c, *o)
	case T:
		return s.fn(c, o)
	default:
		return fmt.Errorf("%w: unexpected options type %T", ErrInvalidOptions, opts)
	}
}

var localePattern = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
		return localePattern.MatchString(fl.Field().String())
	})
	return v
}

// ParseOptions decodes raw options into the script's option type and
// validates the result. Raw values may be strings as passed on the command
// line; comma separated strings decode into slices.
func ParseOptions(s Script, raw map[string]any) (any, error) {
	opts := s.NewOptions()
	if opts == nil {
		if len(raw) > 0 {
			return nil, fmt.Errorf("%w: script does not accept options", ErrInvalidOptions)
		}
		return nil, nil
	}

	if len(raw) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           opts,
			WeaklyTypedInput: true,
			ZeroFields:       true,
			ErrorUnused:      true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				stringToTrimmedSliceHook(","),
				mapstructure.StringToTimeDurationHookFunc(),
			),
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}

	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOptions, describeValidation(err))
	}
	return opts, nil
}

// stringToTrimmedSliceHook splits strings such as "en-US, sv-SE" into
// slices, trimming the space around each element.
func stringToTrimmedSliceHook(sep string) mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
			return data, nil
		}
		raw := data.(string)
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, sep)
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		return parts, nil
	}
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}
