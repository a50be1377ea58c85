// Package records maps the loosely shaped JSON records produced by clients into
// the strict types in package models.
//
// Clients have written fields in both camelCase and snake_case over time and
// leave optional fields out. Everything is resolved here, once, so the engine
// only ever sees models types. Values that cannot be read become zero values;
// nothing in this package returns an error for bad data.
package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Raw is one decoded JSON record
type Raw map[string]any

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// lookup returns the value stored under the camelCase key or its snake_case form
func (r Raw) lookup(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
		if v, ok := r[snakeCase(key)]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Raw) float(keys ...string) float64 {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0
	}
	return toFloat(v)
}

func (r Raw) str(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return decimal.NewFromFloat(s).String()
	default:
		return fmt.Sprint(s)
	}
}

func (r Raw) boolean(def bool, keys ...string) bool {
	v, ok := r.lookup(keys...)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		return def
	default:
		return toFloat(v) != 0
	}
}

func (r Raw) date(keys ...string) time.Time {
	v, ok := r.lookup(keys...)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

func (r Raw) object(keys ...string) (Raw, bool) {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil, false
	}
	switch o := v.(type) {
	case Raw:
		return o, true
	case map[string]any:
		return Raw(o), true
	}
	return nil, false
}

func (r Raw) list(keys ...string) []Raw {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	switch l := v.(type) {
	case []Raw:
		return l
	case []map[string]any:
		out := make([]Raw, 0, len(l))
		for _, m := range l {
			out = append(out, Raw(m))
		}
		return out
	case []any:
		out := make([]Raw, 0, len(l))
		for _, item := range l {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Raw(m))
			}
		}
		return out
	}
	return nil
}

func toFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return 0
		}
		f = d.InexactFloat64()
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(n), ",", ""))
		if err != nil {
			return 0
		}
		f = d.InexactFloat64()
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
