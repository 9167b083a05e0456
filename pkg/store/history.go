package store

import (
	"slices"
	"strings"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

// QueryType is how a history query was interpreted.
type QueryType int

const (
	QueryNickname QueryType = iota
	QueryIdentifier
	QueryIP
)

func (q QueryType) String() string {
	switch q {
	case QueryIdentifier:
		return "identifier"
	case QueryIP:
		return "ip"
	default:
		return "nickname"
	}
}

// ClassifyQuery decides whether query is an IP address, a player identifier
// (17-digit platform id or "account@provider") or a nickname.
func ClassifyQuery(query string) QueryType {
	q := strings.TrimSpace(query)
	switch {
	case model.IsIP(q):
		return QueryIP
	case model.IsPlatformID(q) || model.IsUserID(q):
		return QueryIdentifier
	default:
		return QueryNickname
	}
}

// History is the record of one player. Each list is ordered by creation time.
type History struct {
	Query     string
	Type      QueryType
	Bans      []model.Sanction
	Warnings  []model.Sanction
	AgeChecks []model.Sanction
	Wanted    []model.Sanction
}

// Counts returns the number of entries per kind.
func (h History) Counts() map[model.Kind]int {
	return map[model.Kind]int{
		model.KindBan:      len(h.Bans),
		model.KindWarning:  len(h.Warnings),
		model.KindAgeCheck: len(h.AgeChecks),
		model.KindWanted:   len(h.Wanted),
	}
}

// Len returns the total number of entries.
func (h History) Len() int {
	return len(h.Bans) + len(h.Warnings) + len(h.AgeChecks) + len(h.Wanted)
}

// History looks up everything recorded for query. Age checks are searched only
// for identifiers and nicknames, wanted notices only for nicknames.
func (x *Index) History(query string) History {
	q := strings.TrimSpace(query)
	h := History{Query: q, Type: ClassifyQuery(q)}
	switch h.Type {
	case QueryIP:
		h.Bans = x.FindByIP(q, model.KindBan)
		h.Warnings = x.FindByIP(q, model.KindWarning)
	case QueryIdentifier:
		h.Bans = x.FindByIdentifier(q, model.KindBan)
		h.Warnings = x.FindByIdentifier(q, model.KindWarning)
		h.AgeChecks = x.FindByIdentifier(q, model.KindAgeCheck)
	default:
		h.Bans = x.FindByNickname(q, model.KindBan)
		h.Warnings = x.FindByNickname(q, model.KindWarning)
		h.AgeChecks = x.FindByNickname(q, model.KindAgeCheck)
		h.Wanted = x.FindByNickname(q, model.KindWanted)
	}
	for _, list := range [][]model.Sanction{h.Bans, h.Warnings, h.AgeChecks, h.Wanted} {
		SortByCreated(list)
	}
	return h
}

// SortByCreated orders list by creation time, oldest first. Ties keep index order.
func SortByCreated(list []model.Sanction) {
	slices.SortStableFunc(list, func(a, b model.Sanction) int {
		return a.Common().Created.Compare(b.Common().Created)
	})
}
