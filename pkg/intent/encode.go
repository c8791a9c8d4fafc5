package intent

import (
	"math"
	"strconv"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EncodeText percent-encodes s for inclusion in a locator. ASCII letters, digits
// and "_-!.~'()*" are left as is; every other byte of the UTF-8 form is written
// as %XX. An empty input yields an empty output.
func EncodeText(s string) string {
	return encode(s, "")
}

// encode is EncodeText that also keeps the bytes in keep unescaped.
func encode(s, keep string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) && strings.IndexByte(keep, s[i]) < 0 {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) || strings.IndexByte(keep, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '-', '!', '.', '~', '\'', '(', ')', '*':
		return true
	}
	return false
}

// FormatCoordinate renders v with the shortest decimal representation that
// round-trips, using '.' as decimal point and never an exponent.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatLocation joins two coordinates with a literal comma.
func FormatLocation(latitude, longitude float64) string {
	return FormatCoordinate(latitude) + "," + FormatCoordinate(longitude)
}

// JoinList joins values with sep, skipping empty and blank entries.
func JoinList(values []string, sep string) string {
	var b strings.Builder
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(v)
	}
	return b.String()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func checkCoordinates(latitude, longitude float64) error {
	for _, v := range []float64{latitude, longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalidArgument("coordinates must be finite, got %v,%v", latitude, longitude)
		}
	}
	return nil
}
