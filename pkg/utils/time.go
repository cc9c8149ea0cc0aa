package utils

import "time"

// NowUnixMillis returns the current time in Unix milliseconds.
func NowUnixMillis() int64 {
	return time.Now().UnixMilli()
}

func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatMillis renders a unix-millis timestamp for humans, e.g. in emails.
func FormatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return MillisToTime(ms).Format("2006-01-02 15:04 MST")
}
