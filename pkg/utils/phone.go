package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultPhoneRegion = "US"

// FormatE164 parses a phone number written in any common format and returns
// it in E.164. Numbers without a leading + are read in DefaultPhoneRegion.
func FormatE164(phone string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(phone), DefaultPhoneRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func IsValidPhone(phone string) bool {
	_, err := FormatE164(phone)
	return err == nil
}

func IsE164Format(phone string) bool {
	formatted, err := FormatE164(phone)
	return err == nil && formatted == phone
}
