package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{"zebra": IRInt(1), "alpha": IRInt(2), "Beta": IRInt(3)}
	assert.Equal(t, []string{"Beta", "alpha", "zebra"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"a", "ab", -1},
		{"\U00010000", "\uE000", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b))
		})
	}
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "vip", IRString("vip")},
		{"int", 5, IRInt(5)},
		{"int64", int64(-3), IRInt(-3)},
		{"int32", int32(9), IRInt(9)},
		{"uint64", uint64(12), IRInt(12)},
		{"bool", true, IRBool(true)},
		{"bytes", []byte{1, 2}, IRBytes{1, 2}},
		{"ir value", IRString("kept"), IRString("kept")},
		{"slice", []any{"a", 1}, IRArray{IRString("a"), IRInt(1)}},
		{"map", map[string]any{"n": nil}, IRObject{"n": IRNull{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %s", Format(got))
		})
	}
}

func TestFromGoErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
		msg   string
	}{
		{"float", 1.5, "floats are forbidden"},
		{"nested float", []any{"a", 0.1}, "[1]"},
		{"map float", map[string]any{"x": float32(1)}, `["x"]`},
		{"uint64 overflow", uint64(1 << 63), "out of int64 range"},
		{"struct", struct{}{}, "unsupported type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGo(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b IRValue
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"null null", IRNull{}, IRNull{}, true},
		{"null vs nil", IRNull{}, nil, false},
		{"strings", IRString("a"), IRString("a"), true},
		{"string vs int", IRString("1"), IRInt(1), false},
		{"ints", IRInt(1), IRInt(2), false},
		{"bools", IRBool(true), IRBool(true), true},
		{"bytes", IRBytes{1}, IRBytes{1}, true},
		{"arrays", IRArray{IRInt(1)}, IRArray{IRInt(1)}, true},
		{"array length", IRArray{IRInt(1)}, IRArray{}, false},
		{"objects", IRObject{"a": IRInt(1)}, IRObject{"a": IRInt(1)}, true},
		{"object keys", IRObject{"a": IRInt(1)}, IRObject{"b": IRInt(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   IRValue
		want string
	}{
		{"nil", nil, "null"},
		{"null", IRNull{}, "null"},
		{"string", IRString(`say "hi"`), `"say \"hi\""`},
		{"int", IRInt(-4), "-4"},
		{"bool", IRBool(false), "false"},
		{"bytes", IRBytes{0xca, 0xfe}, "0xcafe"},
		{"array", IRArray{IRInt(1), IRString("a")}, `[1, "a"]`},
		{"object", IRObject{"b": IRInt(2), "a": IRNull{}}, "{a: null, b: 2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}
