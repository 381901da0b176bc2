package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// CoerceFields maps a raw LLM answer onto the requested fields. Every
// requested field is present in the result. Unrequested keys are dropped.
// Values that cannot be coerced to the field type are errors.
func CoerceFields(raw map[string]any, fields []domain.CustomField) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	var errs []error
	for _, f := range fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			out[f.Name] = nil
			continue
		}
		c, err := coerce(v, f.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", f.Name, err))
			out[f.Name] = nil
			continue
		}
		out[f.Name] = c
	}
	return out, errors.Join(errs...)
}

func coerce(v any, typ string) (any, error) {
	switch typ {
	case domain.ColumnNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(n, ",", "."))
			if s == "" {
				return nil, nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", n)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", v)
		}
	case "boolean":
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "yes", "true":
				return true, nil
			case "no", "false":
				return false, nil
			case "":
				return nil, nil
			}
			return nil, fmt.Errorf("expected boolean, got %q", b)
		default:
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
	default:
		switch s := v.(type) {
		case string:
			return strings.TrimSpace(s), nil
		case float64, bool:
			return fmt.Sprint(s), nil
		default:
			return nil, fmt.Errorf("expected string, got %T", v)
		}
	}
}
