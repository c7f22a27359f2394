package tui

import (
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// digit glyphs for the stopwatch display, three rows per character.
var clockDigits = map[rune][3]string{
	'0': {"┌─┐", "│ │", "└─┘"},
	'1': {" ┐ ", " │ ", " ┴ "},
	'2': {"┌─┐", "┌─┘", "└─┘"},
	'3': {"┌─┐", " ─┤", "└─┘"},
	'4': {"┐ ┌", "└─┤", "  ┘"},
	'5': {"┌─┐", "└─┐", "└─┘"},
	'6': {"┌─┐", "├─┐", "└─┘"},
	'7': {"┌─┐", "  │", "  ┘"},
	'8': {"┌─┐", "├─┤", "└─┘"},
	'9': {"┌─┐", "└─┤", "└─┘"},
	':': {"   ", " · ", " · "},
}

// bigClock renders a MM:SS or HH:MM:SS string as three-row block digits.
func bigClock(timeStr string) string {
	var rows [3]strings.Builder
	for _, ch := range timeStr {
		glyph, ok := clockDigits[ch]
		if !ok {
			continue
		}
		for i := 0; i < 3; i++ {
			rows[i].WriteString(glyph[i])
			rows[i].WriteString(" ")
		}
	}
	return rows[0].String() + "\n" + rows[1].String() + "\n" + rows[2].String()
}

var probeClient = &http.Client{Timeout: 2 * time.Second}

// probeImage checks whether a step image is reachable: a HEAD request for
// URLs, a stat for local paths. Failures degrade to placeholders, never
// errors.
func probeImage(ref string) bool {
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		resp, err := probeClient.Head(ref)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode < 400
	}
	_, err := os.Stat(ref)
	return err == nil
}
