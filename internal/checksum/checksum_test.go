package checksum

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestSum_GoldenVectors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "empty payload", payload: "", want: "322a81f162a39172a88c250a5b746326"},
		{name: "short payload", payload: "abc", want: "6eaeec45468a201bad4cb79ba4d444d2"},
		{
			name:    "savegame envelope",
			payload: "oy4:datany4:gamewy8:GameTypey4:Evo1:0y4:timed1600000000000g",
			want:    "78151f43f66f16f0320b5f965c3b4a9d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sum(tt.payload))
		})
	}
}

func TestSum_Deterministic(t *testing.T) {
	payloads := []string{"", "a", "b", "ab", "ba", "oy1:xi1g", "oy1:xi2g", "héllo", Salt}
	seen := make(map[string]string, len(payloads))

	for _, p := range payloads {
		sum := Sum(p)
		assert.Equal(t, sum, Sum(p), "checksum of %q changed between calls", p)
		assert.Regexp(t, hex32, sum)
		if prev, ok := seen[sum]; ok {
			t.Errorf("checksum collision between %q and %q", prev, p)
		}
		seen[sum] = p
	}
}

func TestVerify(t *testing.T) {
	assert.True(t, Verify("abc", "6eaeec45468a201bad4cb79ba4d444d2"))
	assert.False(t, Verify("abd", "6eaeec45468a201bad4cb79ba4d444d2"))
	assert.False(t, Verify("abc", "6EAEEC45468A201BAD4CB79BA4D444D2"))
	assert.False(t, Verify("abc", ""))
}
