// Package phone normalizes operator-supplied phone numbers into the
// canonical recipient addresses the messaging transport expects.
package phone

import (
	"strings"
	"unicode"

	"github.com/wagate/wagate/internal/errors"
)

// Suffix is the transport's addressing domain for individual contacts.
const Suffix = "@c.us"

// Format normalizes a raw phone number into a transport recipient address:
// every non-digit is stripped, a leading national "0" is replaced with the
// country prefix "62", and the addressing suffix is appended. An input that
// is already a full address passes through formatting unchanged.
func Format(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if number == "" {
		return "", errors.NewValidationError("phone number contains no digits").
			WithField("number").WithValue(raw)
	}

	if strings.HasPrefix(number, "0") {
		number = "62" + number[1:]
	}

	return number + Suffix, nil
}
