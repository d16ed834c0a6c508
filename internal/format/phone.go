package format

import (
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

var (
	rePhoneNoise  = regexp.MustCompile(`[^\d\s\-()]`)
	rePhoneDigits = regexp.MustCompile(`^\+?\d{7,15}$`)
)

// Phone validates v as a phone number and renders it through mask, where
// every 'X' or 'x' is a digit placeholder. When the number has more digits
// than the mask has placeholders the leading digits (country prefix) are
// dropped; when it has fewer, rendering stops at the last digit.
func Phone(v any, mask string) (string, bool) {
	if v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	digits := PhoneDigits(s)
	if !rePhoneDigits.MatchString(digits) {
		return "", false
	}
	if mask == "" {
		mask = DefaultPhoneMask
	}
	return applyMask(digits, mask), true
}

// PhoneDigits strips everything but digits, spaces, hyphens and parentheses
// from s and returns the remaining digit sequence.
func PhoneDigits(s string) string {
	cleaned := rePhoneNoise.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cleaned)
}

func applyMask(digits, mask string) string {
	slots := 0
	for _, r := range mask {
		if r == 'X' || r == 'x' {
			slots++
		}
	}
	if slots == 0 {
		return digits
	}
	if len(digits) > slots {
		digits = digits[len(digits)-slots:]
	}

	var b strings.Builder
	i := 0
	for _, r := range mask {
		if r != 'X' && r != 'x' {
			b.WriteRune(r)
			continue
		}
		if i == len(digits) {
			return strings.TrimRight(b.String(), " -(")
		}
		b.WriteByte(digits[i])
		i++
	}
	return b.String()
}
