package utils

import (
	"strconv"
	"time"
)

// DateLayout is the format of <input type="date"> values
const DateLayout = "2006-01-02"

// ParsePage reads a page query value, defaulting to 1 for anything unusable
func ParsePage(s string) int {
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ParseDate parses a YYYY-MM-DD value in loc. ok is false when s is empty.
func ParseDate(s string, loc *time.Location) (t time.Time, ok bool, err error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
