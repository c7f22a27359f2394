package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var moRegex = regexp.MustCompile(`^MO-(\d{4,})$`)

// NormalizeMONumber normalizes manufacturing order numbers to uppercase
// MO-NNNN format. Accepts "mo-1042", "MO-1042", "1042" (prefix added).
// Returns an error for anything else.
func NormalizeMONumber(mo string) (string, error) {
	mo = strings.ToUpper(strings.TrimSpace(mo))
	if mo == "" {
		return "", fmt.Errorf("MO number is required")
	}
	if !strings.HasPrefix(mo, "MO-") {
		mo = "MO-" + mo
	}
	if !moRegex.MatchString(mo) {
		return "", fmt.Errorf("invalid MO number. Use: MO-1234 (at least four digits)")
	}
	return mo, nil
}

// IsValidMOFormat checks whether a string is an acceptable MO number.
func IsValidMOFormat(mo string) bool {
	_, err := NormalizeMONumber(mo)
	return err == nil
}
