package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool true", true, "true"},
		{"empty array", []any{}, "[]"},
		{"string slice", []string{"p(a)", `q("b")`}, `["p(a)","q(\"b\")"]`},
		{"empty object", map[string]any{}, "{}"},
		{"simple object", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"zebra": 1, "alpha": 2, "beta": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(result))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)
	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute accent normalizes to U+00E9
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalLineSeparatorsLiteral(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	result, err = MarshalCanonical("x\\u2028")
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(result), "escaped backslash stays escaped")
}

func TestCanonicalAtomsSorted(t *testing.T) {
	out, err := CanonicalAtoms(NewInterpretation(ParseAtom("q", "a"), ParseAtom("p", "b")))
	require.NoError(t, err)
	assert.Equal(t, `["p(b)","q(a)"]`, string(out))
}
