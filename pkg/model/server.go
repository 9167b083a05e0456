package model

import (
	"slices"
	"strings"
)

// Server is the canonical name of a game server, e.g. "54-es Körzet".
type Server string

const (
	Server54 Server = "54-es Körzet"
	Server56 Server = "56-os Körzet"
	Server58 Server = "58-as Körzet"
	Server62 Server = "62-es Körzet"
)

// ServerInfo associates a server with the role names that refer to it in free text.
type ServerInfo struct {
	Name  Server
	Roles []string
}

// Catalog is the fixed, externally configured set of servers.
type Catalog struct {
	servers []ServerInfo
}

// NewCatalog creates a catalog. Order of infos is the display order.
func NewCatalog(infos ...ServerInfo) *Catalog {
	c := &Catalog{servers: make([]ServerInfo, 0, len(infos))}
	for _, info := range infos {
		if strings.TrimSpace(string(info.Name)) == "" {
			continue
		}
		c.servers = append(c.servers, ServerInfo{Name: info.Name, Roles: slices.Clone(info.Roles)})
	}
	return c
}

// DefaultCatalog returns the four community servers without role associations.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		ServerInfo{Name: Server54},
		ServerInfo{Name: Server56},
		ServerInfo{Name: Server58},
		ServerInfo{Name: Server62},
	)
}

// Infos returns a copy of the catalog entries.
func (c *Catalog) Infos() []ServerInfo {
	out := make([]ServerInfo, len(c.servers))
	for i, s := range c.servers {
		out[i] = ServerInfo{Name: s.Name, Roles: slices.Clone(s.Roles)}
	}
	return out
}

// Servers returns the canonical server names in catalog order.
func (c *Catalog) Servers() []Server {
	out := make([]Server, len(c.servers))
	for i, s := range c.servers {
		out[i] = s.Name
	}
	return out
}

// Contains reports whether s is part of the catalog.
func (c *Catalog) Contains(s Server) bool {
	return c.index(s) >= 0
}

func (c *Catalog) index(s Server) int {
	for i, info := range c.servers {
		if info.Name == s {
			return i
		}
	}
	return -1
}

// Sort returns list deduplicated and ordered by catalog position.
// Servers unknown to the catalog keep their relative order at the end.
func (c *Catalog) Sort(list []Server) []Server {
	out := make([]Server, 0, len(list))
	for _, s := range list {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b Server) int {
		ia, ib := c.index(a), c.index(b)
		if ia < 0 {
			ia = len(c.servers)
		}
		if ib < 0 {
			ib = len(c.servers)
		}
		return ia - ib
	})
	return out
}
