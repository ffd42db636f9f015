package parser

import (
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcncl/evosave/internal/errors"
	"github.com/mcncl/evosave/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "Clink", "level": 30, "ratio": 0.5, "alive": false, "pet": null}`

	root, err := Parse(strings.NewReader(jsonStr))
	require.NoError(t, err)

	obj, ok := root.(*models.Object)
	require.True(t, ok, "got %T", root)
	assert.Equal(t, []string{"name", "level", "ratio", "alive", "pet"}, obj.Keys())

	want := models.NewObject(
		models.Member{Key: "name", Value: "Clink"},
		models.Member{Key: "level", Value: int64(30)},
		models.Member{Key: "ratio", Value: 0.5},
		models.Member{Key: "alive", Value: false},
		models.Member{Key: "pet", Value: nil},
	)
	assert.True(t, models.Equal(want, root), "got %#v", root)
}

func TestParse_KeyOrderIsPreserved(t *testing.T) {
	root, err := ParseString(`{"z": 1, "a": {"y": 2, "b": 3}, "m": []}`)
	require.NoError(t, err)

	obj := root.(*models.Object)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())

	inner, _ := obj.Get("a")
	assert.Equal(t, []string{"y", "b"}, inner.(*models.Object).Keys())

	empty, _ := obj.Get("m")
	assert.Equal(t, models.Array{}, empty)
}

func TestParse_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  models.Value
	}{
		{"1", int64(1)},
		{"-7", int64(-7)},
		{"1.0", 1.0},
		{"1e3", 1000.0},
		{"2.5E-1", 0.25},
		{"1600000000000", int64(1600000000000)},
		{"99999999999999999999", 1e20},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_NonFiniteFloats(t *testing.T) {
	root, err := ParseString(`[{"__float": "NaN"}, {"__float": "+Inf"}, {"__float": "-Inf"}, {"__float": "x"}]`)
	require.NoError(t, err)

	arr := root.(models.Array)
	require.Len(t, arr, 4)
	assert.True(t, math.IsNaN(arr[0].(float64)))
	assert.True(t, math.IsInf(arr[1].(float64), 1))
	assert.True(t, math.IsInf(arr[2].(float64), -1))

	_, isObject := arr[3].(*models.Object)
	assert.True(t, isObject, "unknown __float values stay objects")
}

func TestParse_JSONC(t *testing.T) {
	input := `{
		// the envelope
		"data": {"gold": 10,},
		/* block comment */
		"time": 1,
	}`

	root, err := ParseString(input)
	require.NoError(t, err)

	want := models.NewObject(
		models.Member{Key: "data", Value: models.NewObject(models.Member{Key: "gold", Value: int64(10)})},
		models.Member{Key: "time", Value: int64(1)},
	)
	assert.True(t, models.Equal(want, root), "got %#v", root)
}

func TestParse_EscapedStrings(t *testing.T) {
	root, err := ParseString(`{"a\"b": "line\nbreak é"}`)
	require.NoError(t, err)

	v, ok := root.(*models.Object).Get(`a"b`)
	require.True(t, ok)
	assert.Equal(t, "line\nbreak é", v)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target error
	}{
		{"empty", "", errors.ErrEmptyInput},
		{"whitespace", "   \n", errors.ErrEmptyInput},
		{"only comments", "// nothing here\n", errors.ErrEmptyInput},
		{"unterminated object", `{"name": "Clink"`, errors.ErrInvalidJSON},
		{"unterminated array", `["a", "b",`, errors.ErrInvalidJSON},
		{"two values", `{} {}`, errors.ErrInvalidJSON},
		{"bare word", `savegame`, errors.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestParseString_EmptyInput(t *testing.T) {
	_, err := ParseString("  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input string is empty")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data": [1, 2.5]}`), 0o644))

	root, err := ParseFile(path)
	require.NoError(t, err)
	data, _ := root.(*models.Object).Get("data")
	assert.Equal(t, models.Array{int64(1), 2.5}, data)

	emptyPath := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o644))
	_, err = ParseFile(emptyPath)
	assert.True(t, stderrors.Is(err, errors.ErrFileEmpty))

	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))

	_, err = ParseFile(" ")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidFilePath))
}
