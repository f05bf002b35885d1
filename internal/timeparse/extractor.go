package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extractor resolves a free-text time expression against a reference time.
// Implementations return the absolute due time, a human-readable display
// string, and whether anything usable was found. Callers treat the output
// as authoritative once obtained, so implementations should guess rather
// than fail on sloppy input.
type Extractor interface {
	Extract(text string, ref time.Time) (time.Time, string, bool)
}

var (
	cueRe      = regexp.MustCompile(`(?i)\bat\b|\bin\b|\btomorrow\b|\btoday\b|[0-9]+(:[0-9]+)?(\s*[ap]m)?`)
	relativeRe = regexp.MustCompile(`(?i)\bin\s+(\d+)\s*(minutes?|mins?|hours?|hrs?|days?)\b`)
	clockRe    = regexp.MustCompile(`(?i)\b(at\s+)?(\d{1,2})(:[0-5]\d)?\s*([ap]m)?\b`)
	tomorrowRe = regexp.MustCompile(`(?i)\btomorrow\b`)
)

// HasTimeCue reports whether text plausibly contains a time expression:
// the prepositions "at"/"in", a relative day word, or a clock-like token.
func HasTimeCue(text string) bool {
	return cueRe.MatchString(text)
}

// FirstCue returns the first temporal token in text, empty when none.
func FirstCue(text string) string {
	return cueRe.FindString(strings.ToLower(text))
}

// RegexExtractor is the default heuristic Extractor. It understands
// relative durations ("in 30 minutes"), clock times ("at 5pm", "17:30")
// and day words ("tomorrow"), resolving everything against the supplied
// reference time.
type RegexExtractor struct{}

// New returns the default extractor.
func New() RegexExtractor {
	return RegexExtractor{}
}

func (RegexExtractor) Extract(text string, ref time.Time) (time.Time, string, bool) {
	// Relative durations take priority: "in 30 minutes" must not be read
	// as the clock time 30.
	if m := relativeRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			var unit time.Duration
			var label string
			switch strings.ToLower(m[2])[0] {
			case 'm':
				unit, label = time.Minute, "minute"
			case 'h':
				unit, label = time.Hour, "hour"
			default:
				unit, label = 24*time.Hour, "day"
			}
			if n > 1 {
				label += "s"
			}
			return ref.Add(time.Duration(n) * unit), fmt.Sprintf("in %d %s", n, label), true
		}
	}

	tomorrow := tomorrowRe.MatchString(text)

	if hour, minute, ok := findClock(text); ok {
		due := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location())
		if tomorrow {
			due = due.AddDate(0, 0, 1)
			return due, "tomorrow " + clockPhrase(due), true
		}
		// Ambiguous hours roll forward to the next occurrence.
		if !due.After(ref) && hour < 12 {
			due = due.Add(12 * time.Hour)
		}
		if !due.After(ref) {
			due = due.AddDate(0, 0, 1)
		}
		return due, clockPhrase(due), true
	}

	if tomorrow {
		due := time.Date(ref.Year(), ref.Month(), ref.Day(), 9, 0, 0, 0, ref.Location()).AddDate(0, 0, 1)
		return due, "tomorrow " + clockPhrase(due), true
	}

	return time.Time{}, "", false
}

// findClock locates a clock-like token. Bare numbers only count when
// anchored by "at", a colon, or an am/pm suffix.
func findClock(text string) (hour, minute int, ok bool) {
	for _, m := range clockRe.FindAllStringSubmatch(text, -1) {
		hasAt := m[1] != ""
		hasColon := m[3] != ""
		meridiem := strings.ToLower(strings.TrimSpace(m[4]))
		if !hasAt && !hasColon && meridiem == "" {
			continue
		}
		h, err := strconv.Atoi(m[2])
		if err != nil || h > 23 {
			continue
		}
		mi := 0
		if hasColon {
			mi, _ = strconv.Atoi(m[3][1:])
		}
		switch meridiem {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		return h, mi, true
	}
	return 0, 0, false
}

func clockPhrase(t time.Time) string {
	return "at " + t.Format("03:04 PM")
}
