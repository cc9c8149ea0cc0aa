package utils

import "strings"

// MaskEmail keeps the first character of the local part.
// Example: abcd@domain.com -> a***@domain.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return "***"
	}
	if at <= 1 {
		return "***" + email[at:]
	}
	return email[:1] + "***" + email[at:]
}

// MaskPhone keeps the first 5 and last 3 characters of an E.164 number.
func MaskPhone(phone string) string {
	const prefixLen, suffixLen = 5, 3
	if len(phone) <= prefixLen+suffixLen {
		return phone
	}
	return phone[:prefixLen] + strings.Repeat("*", len(phone)-prefixLen-suffixLen) + phone[len(phone)-suffixLen:]
}
