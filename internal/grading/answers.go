package grading

import (
	"encoding/json"
	"math"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// The coercion helpers accept both native Go values and the shapes produced by
// encoding/json when decoding into `any`.

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int(f), true
}

func asIntSlice(v any) ([]int, bool) {
	switch s := v.(type) {
	case []int:
		return s, true
	case []float64:
		out := make([]int, len(s))
		for i, f := range s {
			n, ok := floatToInt(f)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	case []any:
		out := make([]int, len(s))
		for i, e := range s {
			n, ok := asInt(e)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = str
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringMap(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, e := range m {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[k] = str
		}
		return out, true
	default:
		return nil, false
	}
}

func asPairs(v any) ([]models.MatchPair, bool) {
	switch p := v.(type) {
	case []models.MatchPair:
		return p, true
	case []any:
		out := make([]models.MatchPair, 0, len(p))
		for _, e := range p {
			m, ok := asStringMap(e)
			if !ok {
				return nil, false
			}
			out = append(out, models.MatchPair{Left: m["left"], Right: m["right"]})
		}
		return out, true
	}
	if m, ok := asStringMap(v); ok {
		out := make([]models.MatchPair, 0, len(m))
		for left, right := range m {
			out = append(out, models.MatchPair{Left: left, Right: right})
		}
		return out, true
	}
	return nil, false
}
