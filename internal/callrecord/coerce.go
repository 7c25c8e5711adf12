package callrecord

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat coerces a payload value to float64. Numbers, numeric strings and
// booleans convert; everything else, including NaN text, does not.
func ToFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, err = strconv.ParseFloat(t.String(), 64)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	case bool:
		if t {
			f = 1
		}
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
