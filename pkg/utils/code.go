// Package utils: normalize net codes before they hit the store
package utils

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxCodeLen = 16

// NormalizeCode uppercases, strips anything that is not alphanumeric or a
// dash, collapses runs of dashes and trims the result to maxCodeLen.
// Returns "" when nothing usable is left.
func NormalizeCode(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))

	var b strings.Builder
	lastDash := true // also swallows a leading dash
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || r == ' ':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	code := strings.Trim(b.String(), "-")
	if len(code) > maxCodeLen {
		code = strings.Trim(code[:maxCodeLen], "-")
	}
	return code
}

// GenerateCode builds a code from a prefix plus a short random suffix,
// e.g. "ADHOC-3F2A".
func GenerateCode(prefix string) string {
	prefix = NormalizeCode(prefix)
	if prefix == "" {
		prefix = "NET"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	code := prefix + "-" + suffix
	if len(code) > maxCodeLen {
		code = code[:maxCodeLen]
	}
	return code
}

// CodePrefix derives a short prefix from a free-text title: first letter of
// up to three words, falling back to OPS.
func CodePrefix(title string) string {
	var b strings.Builder
	for _, word := range strings.Fields(title) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if b.Len() >= 3 {
			break
		}
	}
	if b.Len() == 0 {
		return "OPS"
	}
	return b.String()
}
