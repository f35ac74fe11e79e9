package fnb

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidDuration = errors.New("invalid duration")

var (
	minutesPattern = regexp.MustCompile(`^\d+$`)
	clockPattern   = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// NormalizeDuration converts a duration typed in the booking form to "HH:MM:SS".
// A bare number is a count of minutes ("90" is "01:30:00"), "H:MM" and "H:MM:SS"
// are padded. Blank input returns "" and no error.
func NormalizeDuration(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	if minutesPattern.MatchString(s) {
		total, err := strconv.Atoi(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
		}
		return fmt.Sprintf("%02d:%02d:00", total/60, total%60), nil
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds := 0
	if m[3] != "" {
		seconds, _ = strconv.Atoi(m[3])
	}
	if minutes > 59 || seconds > 59 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds), nil
}
