package domain

import "strings"

// ZipCodeLength is the number of digits in a US ZIP code.
const ZipCodeLength = 5

// NormalizeZipCode strips every non-digit character.
func NormalizeZipCode(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// ValidateZipCode normalizes raw and requires exactly five digits.
func ValidateZipCode(raw string) (string, error) {
	zip := NormalizeZipCode(raw)
	if len(zip) != ZipCodeLength {
		return "", InvalidArgument("ZIP code must be exactly five digits, got %q", raw)
	}
	return zip, nil
}
