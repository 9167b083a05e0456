package parser

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Név":            "nev",
		"  Időtartam:  ": "idotartam",
		"Szül. idő":      "szul ido",
		"IP cím":         "ip cim",
		"STEAM ID":       "steam id",
		"":               "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := map[string]struct {
		parser FieldParser
		label  string
		want   bool
	}{
		"name_hungarian":   {Name, "Név", true},
		"name_english":     {Name, "name", true},
		"name_no_accents":  {Name, "Felhasznalo", true},
		"id_spaced":        {ID, "Steam ID", true},
		"reason_short":     {Reason, "Ok", true},
		"ip_hungarian":     {IP, "IP cím", true},
		"duration_time":    {Duration, "TIME", true},
		"birth_compact":    {BirthDate, "Szül.dátum", true},
		"name_not_reason":  {Name, "Reason", false},
		"duration_partial": {Duration, "Ti", false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Matches(tt.parser, tt.label); got != tt.want {
				t.Errorf("Matches(%v, %q) = %v, want %v", tt.parser.Names(), tt.label, got, tt.want)
			}
		})
	}
}

func TestStringParser(t *testing.T) {
	v, ok := Reason.Parse("cheating on 54")
	if !ok || v != model.Text("cheating on 54") {
		t.Fatalf("Parse = %v, %v", v, ok)
	}
	if _, ok := Reason.Parse(""); ok {
		t.Fatalf("Parse(\"\") ok = true")
	}
}

func TestParseSeconds(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    int64
		wantErr bool
	}{
		"bare":            {"3600", 3600, false},
		"hours":           {"2 hours", 7200, false},
		"hour_singular":   {"1 hour", 3600, false},
		"compact":         {"1h30m", 5400, false},
		"hungarian_day":   {"3 nap", 3 * Day, false},
		"hungarian_hour":  {"2 óra", 2 * Hour, false},
		"hungarian_mixed": {"1 hét, 2 nap", Week + 2*Day, false},
		"year":            {"1 év", Year, false},
		"upper":           {"5 MINUTES", 300, false},
		"empty":           {"", 0, true},
		"unknown_unit":    {"3 fortnights", 0, true},
		"no_number":       {"forever", 0, true},
		"decimal_point":   {"1.5 hours", 5400, false},
		"decimal_comma":   {"1,5 óra", 5400, false},
		"decimal_compact": {"2.5h", 9000, false},
		"trailing_period": {"2 hours.", 7200, false},
		"negative":        {"-2 hours", 0, true},
		"negative_bare":   {"-3600", 0, true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseSeconds(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSeconds(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSeconds(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSeconds(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSecondsToStringRoundTrip(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{60, "1 minute"},
		{3600, "1 hour"},
		{86400, "1 day"},
		{604800, "1 week"},
		{31536000, "1 year"},
		{7200, "2 hours"},
		{90, "90 seconds"},
		{1, "1 second"},
		{0, "0 seconds"},
	}
	for _, tt := range tests {
		got := SecondsToString(tt.seconds)
		if got != tt.want {
			t.Errorf("SecondsToString(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
		back, ok := Duration.Parse(got)
		if !ok || back != model.Seconds(tt.seconds) {
			t.Errorf("Duration.Parse(%q) = %v, %v, want %d", got, back, ok, tt.seconds)
		}
	}
	if got := SecondsToString(-1); got != "" {
		t.Errorf("SecondsToString(-1) = %q, want empty", got)
	}
}

func TestServerListParser(t *testing.T) {
	catalog := model.NewCatalog(
		model.ServerInfo{Name: model.Server54, Roles: []string{"SCP54"}},
		model.ServerInfo{Name: model.Server56},
		model.ServerInfo{Name: model.Server58, Roles: []string{"Hardcore"}},
		model.ServerInfo{Name: model.Server62},
	)
	p := NewServerListParser(catalog)

	tests := map[string]struct {
		input string
		want  model.ServerList
	}{
		"number":         {"54", model.ServerList{model.Server54}},
		"role_and_num":   {"SCP54, 54", model.ServerList{model.Server54}},
		"role_only":      {"hardcore", model.ServerList{model.Server58}},
		"several":        {"62 és 56", model.ServerList{model.Server56, model.Server62}},
		"canonical":      {"58-as Körzet", model.ServerList{model.Server58}},
		"number_in_word": {"540", nil},
		"nothing":        {"minden", nil},
		"empty":          {"", nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := p.Parse(tt.input)
			if tt.want == nil {
				if ok {
					t.Fatalf("Parse(%q) = %v, want no match", tt.input, v)
				}
				return
			}
			if !ok {
				t.Fatalf("Parse(%q) matched nothing", tt.input)
			}
			if diff := cmp.Diff(tt.want, v); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestBirthDateParser(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	p := NewBirthDateParser(now, "Birth date")

	tests := map[string]struct {
		input string
		want  string
	}{
		"dots":        {"2008.3.7", "2008. 03. 07."},
		"dashes":      {"2008-03-07", "2008. 03. 07."},
		"slashes":     {"2008/12/31", "2008. 12. 31."},
		"spaces":      {"2008 3 7", "2008. 03. 07."},
		"normalized":  {"2008. 03. 07.", "2008. 03. 07."},
		"leap_day":    {"2008.02.29", "2008. 02. 29."},
		"this_year":   {"2024.01.01", "2024. 01. 01."},
		"future_year": {"2025.01.01", ""},
		"bad_month":   {"2008.13.01", ""},
		"bad_day":     {"2007.02.29", ""},
		"zero_day":    {"2008.01.00", ""},
		"no_date":     {"about 15", ""},
		"short_year":  {"08.03.07", ""},
		"long_year":   {"12004.03.07", ""},
		"year_zero":   {"0000.01.01", ""},
		"before_1900": {"1899.12.31", ""},
		"in_sentence": {"born 2008.03.07 maybe", "2008. 03. 07."},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := p.Parse(tt.input)
			if tt.want == "" {
				if ok {
					t.Fatalf("Parse(%q) = %v, want rejection", tt.input, v)
				}
				return
			}
			if !ok || v != model.Text(tt.want) {
				t.Errorf("Parse(%q) = %v, %v, want %q", tt.input, v, ok, tt.want)
			}
		})
	}
}
