package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mcncl/evosave/internal/errors"
	"github.com/mcncl/evosave/internal/models"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// Parse reads a JSON document from reader. Comments and trailing commas
// are accepted. Object keys keep their order, and numbers written without
// a fraction or exponent are read as integers.
func Parse(reader io.Reader) (models.Value, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a JSON document held in data.
func ParseBytes(data []byte) (models.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	data = jsonc.ToJSON(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewParsingError("input contains only comments", errors.ErrEmptyInput)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.NewParsingError("malformed JSON document", errors.ErrInvalidJSON)
	}

	return convert(gjson.ParseBytes(data)), nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Value, error) {
	if strings.TrimSpace(jsonString) == "" {
		return nil, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseBytes([]byte(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.Value, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to read file '%s'", filePath),
			err,
		)
	}
	if len(data) == 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}
	return ParseBytes(data)
}

func convert(r gjson.Result) models.Value {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return r.Str
	case gjson.Number:
		return number(r.Raw, r.Num)
	}

	if r.IsArray() {
		arr := make(models.Array, 0)
		r.ForEach(func(_, value gjson.Result) bool {
			arr = append(arr, convert(value))
			return true
		})
		return arr
	}

	obj := models.NewObject()
	r.ForEach(func(key, value gjson.Result) bool {
		obj.Set(key.String(), convert(value))
		return true
	})
	if f, ok := nonFinite(obj); ok {
		return f
	}
	return obj
}

// number keeps the int/float distinction of the source text.
func number(raw string, f float64) models.Value {
	if strings.ContainsAny(raw, ".eE") {
		return f
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return f
	}
	return n
}

// nonFinite reads the {"__float": "NaN"} form JSON uses for floats it
// cannot represent.
func nonFinite(o *models.Object) (float64, bool) {
	if o.Len() != 1 {
		return 0, false
	}
	v, ok := o.Get(models.FloatHintKey)
	if !ok {
		return 0, false
	}
	switch v {
	case "NaN":
		return math.NaN(), true
	case "+Inf", "Inf":
		return math.Inf(1), true
	case "-Inf":
		return math.Inf(-1), true
	}
	return 0, false
}
