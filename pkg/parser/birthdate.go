package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

var birthDatePattern = regexp.MustCompile(`(?:^|\D)(\d{4})[./\s-]+(\d{1,2})[./\s-]+(\d{1,2})(?:\D|$)`)

// BirthDateParser reads a year-month-day date with dot, dash, slash or space
// separators and renders it as model.BirthDateLayout.
type BirthDateParser struct {
	aliases
	now func() time.Time
}

// NewBirthDateParser creates a date-of-birth parser. now decides which years lie
// in the future; nil means time.Now.
func NewBirthDateParser(now func() time.Time, names ...string) *BirthDateParser {
	if now == nil {
		now = time.Now
	}
	return &BirthDateParser{aliases: newAliases(names...), now: now}
}

var BirthDate = NewBirthDateParser(nil,
	"Születési idő", "Születési dátum", "Birth date", "Date of birth",
	"Szül. idő", "Szül. dátum", "Szül.idő", "Szül.dátum",
)

func (p *BirthDateParser) Parse(raw string) (model.Value, bool) {
	s, err := p.Format(raw)
	if err != nil {
		return nil, false
	}
	return model.Text(s), true
}

// Format validates raw and returns it in normalized form, e.g. "2004. 03. 07.".
func (p *BirthDateParser) Format(raw string) (string, error) {
	m := birthDatePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("parser: no date in %q", raw)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	if year > p.now().Year() {
		return "", fmt.Errorf("parser: birth year %d is in the future", year)
	}
	if year < model.MinBirthYear {
		return "", fmt.Errorf("parser: birth year %d is before %d", year, model.MinBirthYear)
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("parser: invalid month %d", month)
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if day < 1 || d.Day() != day {
		return "", fmt.Errorf("parser: invalid day %d", day)
	}
	return d.Format(model.BirthDateLayout), nil
}
