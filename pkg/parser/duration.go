package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

const (
	Minute int64 = 60
	Hour         = 60 * Minute
	Day          = 24 * Hour
	Week         = 7 * Day
	Year         = 365 * Day
)

// unitSeconds maps every accepted unit word, after Normalize, to its length.
var unitSeconds = map[string]int64{
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1, "masodperc": 1,
	"m": Minute, "min": Minute, "mins": Minute, "minute": Minute, "minutes": Minute, "perc": Minute,
	"h": Hour, "hr": Hour, "hrs": Hour, "hour": Hour, "hours": Hour, "ora": Hour,
	"d": Day, "day": Day, "days": Day, "nap": Day,
	"w": Week, "wk": Week, "week": Week, "weeks": Week, "het": Week,
	"y": Year, "yr": Year, "yrs": Year, "year": Year, "years": Year, "ev": Year,
}

// displayUnits is ordered from largest to smallest.
var displayUnits = []struct {
	seconds int64
	name    string
}{
	{Year, "year"},
	{Week, "week"},
	{Day, "day"},
	{Hour, "hour"},
	{Minute, "minute"},
	{1, "second"},
}

var (
	bareSeconds = regexp.MustCompile(`^\d+$`)
	// Terms may be separated by whitespace, commas or semicolons. A comma
	// directly between digits is a decimal comma.
	durationTerm = regexp.MustCompile(`^[\s,;]*(\d+)(?:[.,](\d+))?\s*([a-z]+)\.?[\s,;]*`)
)

// DurationParser reads a duration in seconds. A bare integer is taken as seconds;
// otherwise the value is a sequence of "<n> <unit>" terms such as "2 hours",
// "1 nap 12 ora" or "1,5 óra". Fractions are rounded to whole seconds.
type DurationParser struct {
	aliases
}

// NewDurationParser creates a duration parser answering to the given labels.
func NewDurationParser(names ...string) *DurationParser {
	return &DurationParser{aliases: newAliases(names...)}
}

var Duration = NewDurationParser("Idő", "Időtartam", "Time", "Duration")

func (p *DurationParser) Parse(raw string) (model.Value, bool) {
	n, err := ParseSeconds(raw)
	if err != nil {
		return nil, false
	}
	return model.Seconds(n), true
}

// ParseSeconds parses a duration expression into seconds. Signs are not
// accepted, so "-2 hours" is an error.
func ParseSeconds(raw string) (int64, error) {
	s := strings.TrimSpace(Fold(raw))
	if s == "" {
		return 0, fmt.Errorf("parser: empty duration")
	}
	if bareSeconds.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parser: duration %q: %w", raw, err)
		}
		return n, nil
	}

	var total int64
	for rest := s; rest != ""; {
		m := durationTerm.FindStringSubmatch(rest)
		if m == nil {
			return 0, fmt.Errorf("parser: malformed duration %q", raw)
		}
		unit, ok := unitSeconds[m[3]]
		if !ok {
			return 0, fmt.Errorf("parser: unknown duration unit %q", m[3])
		}
		n, err := termSeconds(m[1], m[2], unit)
		if err != nil || n > math.MaxInt64-total {
			return 0, fmt.Errorf("parser: duration %q out of range", raw)
		}
		total += n
		rest = rest[len(m[0]):]
	}
	return total, nil
}

// termSeconds returns whole.frac units in seconds, rounded to the nearest second.
func termSeconds(whole, frac string, unit int64) (int64, error) {
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || n > math.MaxInt64/unit {
		return 0, fmt.Errorf("parser: duration term out of range")
	}
	secs := n * unit
	if frac == "" {
		return secs, nil
	}
	f, err := strconv.ParseFloat("0."+frac, 64)
	if err != nil {
		return 0, err
	}
	extra := int64(math.Round(f * float64(unit)))
	if extra > math.MaxInt64-secs {
		return 0, fmt.Errorf("parser: duration term out of range")
	}
	return secs + extra, nil
}

// SecondsToString renders seconds using the largest unit that divides it exactly,
// e.g. 7200 -> "2 hours". The result parses back to the same value. Negative
// input yields "".
func SecondsToString(seconds int64) string {
	if seconds < 0 {
		return ""
	}
	if seconds == 0 {
		return "0 seconds"
	}
	for _, u := range displayUnits {
		if seconds%u.seconds != 0 {
			continue
		}
		n := seconds / u.seconds
		if n == 1 {
			return "1 " + u.name
		}
		return strconv.FormatInt(n, 10) + " " + u.name + "s"
	}
	return strconv.FormatInt(seconds, 10) + " seconds"
}
