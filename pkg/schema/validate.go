package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldsPrefix is the submission namespace dynamic attributes live under;
// error paths are reported as "fields.<attribute>".
const FieldsPrefix = "fields."

// Validate evaluates every rule of every schema field against the submitted
// values and records all violations into errs. It never fails fast: a single
// pass collects the complete error set.
//
// Absent or null optional fields are skipped. Absent, null or empty-string
// mandatory fields yield a required error and nothing else for that path.
// Keys in values that the schema does not know are ignored.
func (s Schema) Validate(values map[string]any, errs *ErrorSet) {
	for _, attribute := range s.order {
		fr := s.fields[attribute]
		path := FieldsPrefix + attribute

		v, present := values[attribute]
		if !present || v == nil || v == "" {
			if fr.Required {
				errs.Add(path, CodeRequired, fmt.Sprintf("The %s field is required.", fr.Name))
			}
			continue
		}

		for _, rule := range fr.Rules {
			switch rule.Kind {
			case RuleType:
				if !matchesKind(v, rule.Type) {
					errs.Add(path, CodeType, rule.Type.message(fr.Name))
				}
			case RuleOneOf:
				if !contains(rule.Choices, Stringify(v)) {
					errs.Add(path, CodeChoice, fmt.Sprintf("The selected %s is invalid.", fr.Name))
				}
			case RuleMinZero:
				if n, ok := asNumber(v); ok && n < 0 {
					errs.Add(path, CodeRange, fmt.Sprintf("The %s field must be at least 0.", fr.Name))
				}
			case RuleMaxLength:
				if str, ok := v.(string); ok && len([]rune(str)) > rule.MaxLen {
					errs.Add(path, CodeLength, fmt.Sprintf("The %s field must not exceed %d characters.", fr.Name, rule.MaxLen))
				}
			}
		}
	}
}

func matchesKind(v any, k Kind) bool {
	switch k {
	case KindInteger:
		_, ok := asInteger(v)
		return ok
	case KindNumber:
		_, ok := asNumber(v)
		return ok
	case KindBoolean:
		_, ok := asBoolean(v)
		return ok
	default:
		_, ok := v.(string)
		return ok
	}
}

// asInteger accepts JSON numbers with an integral value and numeric strings,
// matching how form-originated submissions carry integers.
func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asBoolean(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		if b == 0 || b == 1 {
			return b == 1, true
		}
		return false, false
	case string:
		switch b {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// Stringify renders a submitted value in the canonical form used for choice
// comparison and EAV storage: scalars as their plain text form, arrays and
// objects as compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
