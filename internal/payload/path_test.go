package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"message": map[string]any{
			"call":   map[string]any{"id": "abc"},
			"nulled": nil,
			"scalar": "x",
		},
	}

	v, ok := Lookup(doc, "message", "call", "id")
	require.True(t, ok)
	require.Equal(t, "abc", v)

	_, ok = Lookup(doc, "message", "missing", "id")
	require.False(t, ok)

	_, ok = Lookup(doc, "message", "nulled")
	require.False(t, ok)

	_, ok = Lookup(doc, "message", "scalar", "deeper")
	require.False(t, ok)

	_, ok = Lookup(nil, "message")
	require.False(t, ok)
}

func TestObject_DefaultsToEmpty(t *testing.T) {
	require.Empty(t, Object(map[string]any{}, "message"))
	require.Empty(t, Object(map[string]any{"message": "text"}, "message"))
	require.Equal(t, map[string]any{"a": 1}, Object(map[string]any{"message": map[string]any{"a": 1}}, "message"))
}

func TestLast(t *testing.T) {
	doc := map[string]any{"list": []any{"first", "second"}, "empty": []any{}, "notList": "x"}

	v, ok := Last(doc, "list")
	require.True(t, ok)
	require.Equal(t, "second", v)

	_, ok = Last(doc, "empty")
	require.False(t, ok)

	_, ok = Last(doc, "notList")
	require.False(t, ok)

	_, ok = Last(doc, "missing")
	require.False(t, ok)
}
