package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseTimeEntry parses a manually entered step duration into seconds.
// Supported formats:
// - plain seconds (e.g., "90")
// - minutes:seconds (e.g., "4:30")
// - hours:minutes:seconds (e.g., "1:02:05")
// - unit shorthand (e.g., "90s", "5m", "1h30m")
func ParseTimeEntry(input string) (int, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, fmt.Errorf("enter a time")
	}

	if secs, err := strconv.Atoi(input); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("time cannot be negative")
		}
		return secs, nil
	}

	if secs, err := parseColonFormat(input); err == nil {
		return secs, nil
	}

	if secs, err := parseUnitFormat(input); err == nil {
		return secs, nil
	}

	return 0, fmt.Errorf("invalid time format. Use: 90, 4:30, 1:02:05, or 1h30m")
}

// parseColonFormat parses mm:ss and hh:mm:ss.
func parseColonFormat(input string) (int, error) {
	parts := strings.Split(input, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock format")
	}
	var nums []int
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock format")
		}
		nums = append(nums, n)
	}
	if len(nums) == 2 {
		if nums[1] > 59 {
			return 0, fmt.Errorf("seconds must be below 60")
		}
		return nums[0]*60 + nums[1], nil
	}
	if nums[1] > 59 || nums[2] > 59 {
		return 0, fmt.Errorf("minutes and seconds must be below 60")
	}
	return nums[0]*3600 + nums[1]*60 + nums[2], nil
}

var unitRegex = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// parseUnitFormat parses 1h30m / 5m / 90s combinations.
func parseUnitFormat(input string) (int, error) {
	matches := unitRegex.FindStringSubmatch(input)
	if matches == nil || (matches[1] == "" && matches[2] == "" && matches[3] == "") {
		return 0, fmt.Errorf("invalid unit format")
	}
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid unit format")
		}
		total += n * mult
	}
	return total, nil
}

// DurationFromRange converts a start/end timestamp pair into whole seconds,
// clamped at zero so a reversed pair never yields a negative duration.
func DurationFromRange(start, end time.Time) int {
	secs := int(end.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Timestamp layouts accepted by ParseTimestamp, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// ParseTimestamp parses an operator-entered clock time or datetime, using
// the reference day for time-only inputs.
func ParseTimestamp(input string, ref time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, input, ref.Location())
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = time.Date(ref.Year(), ref.Month(), ref.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, ref.Location())
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time. Use: HH:MM, HH:MM:SS, or YYYY-MM-DD HH:MM")
}
