package hxser

import (
	"encoding/base64"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// bytesEncoding is the base64 alphabet Haxe uses for Bytes, without padding.
var bytesEncoding = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789%:").WithPadding(base64.NoPadding)

const upperhex = "0123456789ABCDEF"

// urlEncode escapes s the way encodeURIComponent does, which is what the
// Haxe serializer produces on the JavaScript target.
func urlEncode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0f])
	}
	return sb.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// urlDecode reverses urlEncode. A '+' decodes to a space, as in
// StringTools.urlDecode.
func urlDecode(s string) (string, error) {
	if !strings.ContainsAny(s, "%+") {
		return s, nil
	}
	return url.PathUnescape(strings.ReplaceAll(s, "+", " "))
}

// FormatFloat renders f like ECMAScript Number.prototype.toString for
// finite values.
func FormatFloat(f float64) string {
	if f == 0 {
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	// shortest round-tripping digits and exponent, e.g. "1.2345e+06"
	e := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(e, "e")
	digits := strings.Replace(mant, ".", "", 1)
	x, _ := strconv.Atoi(exp)

	k := len(digits)
	n := x + 1 // position of the decimal point relative to digits

	var out string
	switch {
	case k <= n && n <= 21:
		out = digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		out = digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		out = "0." + strings.Repeat("0", -n) + digits
	default:
		out = digits[:1]
		if k > 1 {
			out += "." + digits[1:]
		}
		if n-1 < 0 {
			out += "e-" + strconv.Itoa(1-n)
		} else {
			out += "e+" + strconv.Itoa(n-1)
		}
	}
	return sign + out
}

// fitsInt32 reports whether v is a Haxe Int.
func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}
