package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// ParseDate parses an ISO-8601 calendar date ("2024-01-31") or timestamp
// into a UTC time. Calendar dates resolve to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d.In(time.UTC), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if dt, err := civil.ParseDateTime(s); err == nil {
		return dt.In(time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("ParseDate: %q is not an ISO-8601 date", s)
}

// Decode parses and validates model output against the schema for kind.
func Decode(kind SourceKind, raw string) (*Result, error) {
	switch kind {
	case KindStatement:
		var w wireStatement
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		start, _ := ParseDate(*w.PeriodStart)
		end, _ := ParseDate(*w.PeriodEnd)
		if start.After(end) {
			return nil, fmt.Errorf("period_start %s is after period_end %s", *w.PeriodStart, *w.PeriodEnd)
		}
		return &Result{Kind: kind, Statement: w.result(), RawJSON: raw}, nil
	case KindReceipt:
		var w wireReceipt
		if err := decodeInto(raw, &w); err != nil {
			return nil, err
		}
		return &Result{Kind: kind, Receipt: w.result(), RawJSON: raw}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

func decodeInto(raw string, dst any) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schemaValidator().Struct(dst); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError flattens validator output into "field: rule" pairs keyed by
// the JSON path, e.g. "transactions[2].date: required".
func schemaError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("schema validation: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		rule := fe.Tag()
		if rule == "isodate" {
			rule = "must be an ISO-8601 date"
		}
		msgs = append(msgs, path+": "+rule)
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
