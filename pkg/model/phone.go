package model

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is assumed for numbers written without a country code.
const DefaultPhoneRegion = "US"

// FormatPhone renders a phone number in international format. Input that
// does not parse as a valid number is returned trimmed.
func FormatPhone(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.INTERNATIONAL)
}
