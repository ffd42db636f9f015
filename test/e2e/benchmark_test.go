package e2e_test

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mcncl/evosave/internal/formatter"
	"github.com/mcncl/evosave/internal/normalize"
	"github.com/mcncl/evosave/internal/parser"
	"github.com/mcncl/evosave/internal/savegame"
	"github.com/stretchr/testify/require"
)

var benchTime int64 = 1600000000000

// generateNestedData creates a deeply nested save structure for benchmarking
func generateNestedData(depth int, width int) map[string]any {
	if depth <= 0 {
		return map[string]any{
			"leaf_value": "data",
			"count":      rand.Intn(100),
			"enabled":    rand.Intn(2) == 1,
			"ratio":      rand.Float64(),
		}
	}

	result := make(map[string]any)

	for i := 0; i < width; i++ {
		key := fmt.Sprintf("nested_%d_%d", depth, i)
		result[key] = generateNestedData(depth-1, width)
	}

	return result
}

// generateWideData creates a save structure with many fields at the same level
func generateWideData(fieldCount int) map[string]any {
	result := make(map[string]any)

	for i := 0; i < fieldCount; i++ {
		// Mix different types of fields
		switch i % 5 {
		case 0:
			result[fmt.Sprintf("string_field_%d", i)] = fmt.Sprintf("value %d", i%7)
		case 1:
			result[fmt.Sprintf("int_field_%d", i)] = i
		case 2:
			result[fmt.Sprintf("bool_field_%d", i)] = i%2 == 0
		case 3:
			result[fmt.Sprintf("float_field_%d", i)] = float64(i) + 0.5
		case 4:
			result[fmt.Sprintf("items_field_%d", i)] = []any{i, nil, nil, fmt.Sprintf("Item %d", i)}
		}
	}

	return result
}

// generateInventory creates an array of item objects
func generateInventory(size int) []any {
	items := make([]any, size)
	for i := range items {
		items[i] = map[string]any{
			"id":       i,
			"name":     fmt.Sprintf("Item %d", i),
			"value":    rand.Float64() * 100,
			"active":   i%2 == 0,
			"category": fmt.Sprintf("Category %d", i%5),
		}
	}
	return items
}

func benchSave(b *testing.B, data map[string]any) string {
	b.Helper()
	doc := savegame.WrapSavegame(normalize.Normalize(data), savegame.Evo2, &benchTime)
	text, err := savegame.Encode(doc)
	require.NoError(b, err)
	return text
}

// BenchmarkEncode benchmarks encoding documents of different shapes
func BenchmarkEncode(b *testing.B) {
	cases := []struct {
		name string
		data map[string]any
	}{
		{"Depth3Width3", generateNestedData(3, 3)},
		{"Depth5Width2", generateNestedData(5, 2)},
		{"Fields100", generateWideData(100)},
		{"Fields1000", generateWideData(1000)},
		{"Array1000", map[string]any{"inventory": generateInventory(1000)}},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			doc := savegame.WrapSavegame(normalize.Normalize(tc.data), savegame.Evo2, &benchTime)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := savegame.Encode(doc)
				require.NoError(b, err)
			}
		})
	}
}

// BenchmarkDecode benchmarks decoding and verifying savegames
func BenchmarkDecode(b *testing.B) {
	cases := []struct {
		name string
		data map[string]any
	}{
		{"Depth3Width3", generateNestedData(3, 3)},
		{"Fields1000", generateWideData(1000)},
		{"Array5000", map[string]any{"inventory": generateInventory(5000)}},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			text := benchSave(b, tc.data)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				doc, err := savegame.Decode(text)
				require.NoError(b, err)
				require.Equal(b, savegame.ChecksumValid, doc.Status)
			}
		})
	}
}

// BenchmarkJSONRoundTrip benchmarks the savegame -> JSON -> savegame cycle
// behind every edit
func BenchmarkJSONRoundTrip(b *testing.B) {
	text := benchSave(b, map[string]any{
		"inventory": generateInventory(500),
		"world":     generateNestedData(3, 3),
	})
	f := formatter.NewFormatter("  ", 80)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc, err := savegame.Decode(text)
		require.NoError(b, err)
		out, err := f.Format(doc.Root)
		require.NoError(b, err)
		root, err := parser.ParseBytes(out)
		require.NoError(b, err)
		_, err = savegame.Encode(root)
		require.NoError(b, err)
	}
}

// BenchmarkCLIDecode benchmarks the decode command end to end
func BenchmarkCLIDecode(b *testing.B) {
	// Skip in short mode
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	tempDir := b.TempDir()
	saveFile := filepath.Join(tempDir, "savegame")
	err := os.WriteFile(saveFile, []byte(benchSave(b, generateWideData(500))), 0o644)
	require.NoError(b, err)
	outputFile := filepath.Join(tempDir, "savegame.json")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cmd := exec.Command("go", "run", "../../main.go", "decode", saveFile, "-o", outputFile)
		output, err := cmd.CombinedOutput()
		require.NoError(b, err, "CLI command failed: %s", string(output))

		// Clean up output file for next iteration
		if err := os.Remove(outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing file: %v\n", err)
		}
	}
}
