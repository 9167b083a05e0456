package parser

import (
	"regexp"
	"strings"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

var numberToken = regexp.MustCompile(`\d+`)

// ServerListParser recognizes servers of a catalog in free text, first by the
// role names configured for each server and then by the leading number of the
// server's name ("54" for "54-es Körzet").
type ServerListParser struct {
	aliases
	catalog *model.Catalog
}

// NewServerListParser creates a server-list parser over catalog.
func NewServerListParser(catalog *model.Catalog) *ServerListParser {
	return &ServerListParser{
		aliases: newAliases("Szerver", "Server", "Szerverek", "Servers"),
		catalog: catalog,
	}
}

// Parse returns a deduplicated model.ServerList in catalog order, or false when
// no server is recognized.
func (p *ServerListParser) Parse(raw string) (model.Value, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	text := Normalize(raw)
	numbers := numberToken.FindAllString(raw, -1)

	var found []model.Server
	for _, info := range p.catalog.Infos() {
		if matchesRole(text, info.Roles) || containsString(numbers, leadingNumber(info.Name)) {
			found = append(found, info.Name)
		}
	}
	if len(found) == 0 {
		return nil, false
	}
	return model.ServerList(p.catalog.Sort(found)), true
}

func matchesRole(text string, roles []string) bool {
	for _, r := range roles {
		if r := Normalize(r); r != "" && strings.Contains(text, r) {
			return true
		}
	}
	return false
}

// leadingNumber returns the digits a server name starts with, or "".
func leadingNumber(s model.Server) string {
	name := strings.TrimSpace(string(s))
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	return name[:end]
}

func containsString(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
