// Package fingerprint derives the dedup key of a content item.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// domain prefixes the hashed payload so the algorithm can be versioned.
const domain = "content-curator/fingerprint/v1"

const fieldSeparator = "\x1f"

// Compute returns the hex SHA-256 fingerprint of the normalized title, source and URL.
// The body is not part of the key.
func Compute(title, source, url string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(strings.Join([]string{
		Normalize(title),
		Normalize(source),
		Normalize(url),
	}, fieldSeparator)))
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize applies NFKC, drops control characters, lower-cases, collapses whitespace
// runs into one space and strips trailing punctuation.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
