// Package validation checks movie payloads against the movie schema.
//
// The schema is a table of field rules. Each rule names the JSON field,
// the kind of value the field must hold and the validator tag applied to
// the value once its kind has been checked. Payloads are the generic
// map form produced by encoding/json or yaml.v3.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vyrodovalexey/movies-api/internal/model"
)

// Validation bounds of the movie schema.
const (
	MinYear = 1888
	MaxYear = 2024
	MinRate = 0
	MaxRate = 10
)

// maxSafeInteger is the largest integer a JSON number carries without loss.
const maxSafeInteger = 1<<53 - 1

// Messages for missing fields and kind mismatches.
const (
	msgRequired   = "is required"
	msgString     = "must be a string"
	msgStringList = "must be an array of strings"
	msgInteger    = "must be an integer"
	msgNumber     = "must be a number"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindStringList
	kindInteger
	kindNumber
)

// fieldRule declares how one payload field is checked and where its
// normalized value goes.
type fieldRule struct {
	field    string
	kind     fieldKind
	tag      string
	optional bool
	set      func(p *model.MoviePatch, v any)
}

var movieSchema = []fieldRule{
	{
		field: "title",
		kind:  kindString,
		set:   func(p *model.MoviePatch, v any) { s := v.(string); p.Title = &s },
	},
	{
		field: "genre",
		kind:  kindStringList,
		tag:   "min=1",
		set:   func(p *model.MoviePatch, v any) { p.Genre = v.([]string) },
	},
	{
		field: "year",
		kind:  kindInteger,
		tag:   fmt.Sprintf("min=%d,max=%d", MinYear, MaxYear),
		set:   func(p *model.MoviePatch, v any) { n := v.(int); p.Year = &n },
	},
	{
		field: "director",
		kind:  kindString,
		set:   func(p *model.MoviePatch, v any) { s := v.(string); p.Director = &s },
	},
	{
		field: "duration",
		kind:  kindInteger,
		tag:   "gt=0",
		set:   func(p *model.MoviePatch, v any) { n := v.(int); p.Duration = &n },
	},
	{
		field:    "rate",
		kind:     kindNumber,
		tag:      fmt.Sprintf("min=%d,max=%d", MinRate, MaxRate),
		optional: true,
		set:      func(p *model.MoviePatch, v any) { f := v.(float64); p.Rate = &f },
	},
	{
		field: "poster",
		kind:  kindString,
		tag:   "url",
		set:   func(p *model.MoviePatch, v any) { s := v.(string); p.Poster = &s },
	},
}

// validate is safe for concurrent use and caches parsed tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Errors is returned when a payload violates the schema. It holds one
// entry per offending field, in schema order.
type Errors []model.FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of the offending fields.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, fe := range e {
		fields = append(fields, fe.Field)
	}
	return fields
}

// Validate checks a complete movie payload. Unknown fields are dropped.
// The returned movie has no ID.
func Validate(payload map[string]any) (model.Movie, error) {
	patch, err := check(payload, false)
	if err != nil {
		return model.Movie{}, err
	}
	return patch.Apply(model.Movie{}), nil
}

// ValidatePartial checks the fields present in payload with the same
// rules as Validate. Absent fields stay nil in the returned patch.
func ValidatePartial(payload map[string]any) (model.MoviePatch, error) {
	return check(payload, true)
}

func check(payload map[string]any, partial bool) (model.MoviePatch, error) {
	var (
		patch model.MoviePatch
		errs  Errors
	)

	for _, rule := range movieSchema {
		raw, present := payload[rule.field]
		if !present {
			if !partial && !rule.optional {
				errs = append(errs, model.FieldError{Field: rule.field, Message: msgRequired})
			}
			continue
		}

		value, msg := coerce(rule.kind, raw)
		if msg != "" {
			errs = append(errs, model.FieldError{Field: rule.field, Message: msg})
			continue
		}

		if rule.tag != "" {
			if err := validate.Var(value, rule.tag); err != nil {
				errs = append(errs, model.FieldError{Field: rule.field, Message: describe(err)})
				continue
			}
		}

		if _, tooLarge := value.(float64); tooLarge && rule.kind == kindInteger {
			errs = append(errs, model.FieldError{Field: rule.field, Message: msgInteger})
			continue
		}

		rule.set(&patch, value)
	}

	if len(errs) > 0 {
		return model.MoviePatch{}, errs
	}
	return patch, nil
}

// coerce converts a decoded value into the Go type of kind. A non-empty
// message reports a kind mismatch.
func coerce(kind fieldKind, raw any) (any, string) {
	switch kind {
	case kindString:
		s, ok := raw.(string)
		if !ok {
			return nil, msgString
		}
		return s, ""

	case kindStringList:
		return coerceStringList(raw)

	case kindInteger:
		f, ok := toFloat(raw)
		if !ok || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, msgInteger
		}
		if math.Abs(f) > maxSafeInteger {
			// Whole but not representable: keep the float so range rules
			// still report against it.
			return f, ""
		}
		return int(f), ""

	case kindNumber:
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, msgNumber
		}
		return f, ""
	}

	return nil, fmt.Sprintf("unsupported field kind %d", kind)
}

func coerceStringList(raw any) (any, string) {
	switch list := raw.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, ""
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, msgStringList
			}
			out = append(out, s)
		}
		return out, ""
	default:
		return nil, msgStringList
	}
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// describe turns the first validator failure into a client-facing message.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	isList := fe.Kind() == reflect.Slice

	switch fe.Tag() {
	case "min":
		if isList {
			return fmt.Sprintf("must contain at least %s %s", fe.Param(), items(fe.Param()))
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("must contain at most %s %s", fe.Param(), items(fe.Param()))
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "url":
		return "must be a valid url"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
}

func items(n string) string {
	if n == "1" {
		return "item"
	}
	return "items"
}
