package payload

// Lookup walks nested objects along keys. It reports false as soon as a step
// is missing, null, or not an object; it never panics on malformed input.
func Lookup(doc map[string]any, keys ...string) (any, bool) {
	var cur any = doc
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Object returns the object at keys, or an empty one.
func Object(doc map[string]any, keys ...string) map[string]any {
	v, ok := Lookup(doc, keys...)
	if !ok {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// Last returns the final element of the array at keys.
func Last(doc map[string]any, keys ...string) (any, bool) {
	v, ok := Lookup(doc, keys...)
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	last := items[len(items)-1]
	return last, last != nil
}
