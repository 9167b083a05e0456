package datastore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

var commonColumns = []string{"issued_by", "player_name", "created_at", "severity"}

// table maps one sanction kind onto its SQL table. encode returns the
// kind-specific column values of s and scanDest the matching scan destinations.
type table struct {
	name     string
	columns  []string // kind-specific columns, after commonColumns
	encode   func(s model.Sanction) []any
	scanDest func(s model.Sanction) []any
}

var tables = map[model.Kind]*table{
	model.KindBan: {
		name:    "bans",
		columns: []string{"reason", "identifier", "ip", "duration", "servers"},
		encode: func(s model.Sanction) []any {
			b := s.(*model.Ban)
			return []any{b.Reason, b.Identifier, b.IP, b.Duration, encodeServers(b.Servers)}
		},
		scanDest: func(s model.Sanction) []any {
			b := s.(*model.Ban)
			return []any{&b.Reason, &b.Identifier, &b.IP, &b.Duration, serversColumn{&b.Servers}}
		},
	},
	model.KindWarning: {
		name:    "warnings",
		columns: []string{"reason", "identifier", "ip", "servers"},
		encode: func(s model.Sanction) []any {
			w := s.(*model.Warning)
			return []any{w.Reason, w.Identifier, w.IP, encodeServers(w.Servers)}
		},
		scanDest: func(s model.Sanction) []any {
			w := s.(*model.Warning)
			return []any{&w.Reason, &w.Identifier, &w.IP, serversColumn{&w.Servers}}
		},
	},
	model.KindAgeCheck: {
		name:    "age_checks",
		columns: []string{"identifier", "birth_date"},
		encode: func(s model.Sanction) []any {
			a := s.(*model.AgeCheck)
			return []any{a.Identifier, a.ApparentDateOfBirth}
		},
		scanDest: func(s model.Sanction) []any {
			a := s.(*model.AgeCheck)
			return []any{&a.Identifier, &a.ApparentDateOfBirth}
		},
	},
	model.KindWanted: {
		name:    "wanted_individuals",
		columns: []string{"reason", "servers"},
		encode: func(s model.Sanction) []any {
			w := s.(*model.Wanted)
			return []any{w.Reason, encodeServers(w.Servers)}
		},
		scanDest: func(s model.Sanction) []any {
			w := s.(*model.Wanted)
			return []any{&w.Reason, serversColumn{&w.Servers}}
		},
	},
}

func (t *table) allColumns() []string {
	return append(append([]string(nil), commonColumns...), t.columns...)
}

// values returns the arguments for allColumns.
func (t *table) values(s model.Sanction) []any {
	r := s.Common()
	args := []any{int64(r.IssuedBy), r.PlayerName, formatDBTime(r.Created), string(r.Severity)}
	return append(args, t.encode(s)...)
}

// dest returns scan destinations for "id" followed by allColumns.
func (t *table) dest(s model.Sanction) []any {
	r := s.Common()
	dest := []any{&r.ID, &r.IssuedBy, &r.PlayerName, timeColumn{&r.Created}, &r.Severity}
	return append(dest, t.scanDest(s)...)
}

func encodeServers(servers []model.Server) string {
	if len(servers) == 0 {
		return "[]"
	}
	b, err := json.Marshal(servers)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// serversColumn scans a JSON array of server names.
type serversColumn struct {
	dst *[]model.Server
}

func (c serversColumn) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c.dst = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("datastore: servers column: unsupported type %T", src)
	}
	var servers []model.Server
	if err := json.Unmarshal(raw, &servers); err != nil {
		return fmt.Errorf("datastore: servers column: %w", err)
	}
	if len(servers) == 0 {
		servers = nil
	}
	*c.dst = servers
	return nil
}

// timeColumn scans a nullable dbTimeLayout timestamp.
type timeColumn struct {
	dst *time.Time
}

func (c timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c.dst = time.Time{}
		return nil
	case time.Time:
		*c.dst = v.UTC()
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("datastore: time column: unsupported type %T", src)
	}
}

func (c timeColumn) parse(s string) error {
	t, err := parseDBTime(s)
	if err != nil {
		return fmt.Errorf("datastore: time column: %w", err)
	}
	*c.dst = t
	return nil
}
