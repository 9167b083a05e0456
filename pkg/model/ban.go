package model

// Ban represents a temporary ban of a player from one or more servers.
type Ban struct {
	Record
	Reason     string   `json:"reason"`
	Identifier string   `json:"identifier"`
	IP         string   `json:"ip"`
	Duration   int64    `json:"duration"` // seconds
	Servers    []Server `json:"servers"`
}

// NewBan returns a blank, unpersisted ban.
func NewBan() *Ban {
	return &Ban{Record: newRecord(SeverityRed)}
}

func (b *Ban) Kind() Kind {
	return KindBan
}

func (b *Ban) Common() *Record {
	return &b.Record
}

func (b *Ban) Clone() Sanction {
	c := NewBan()
	_ = b.CopyTo(c)
	return c
}

func (b *Ban) ServerList() []Server {
	return b.Servers
}

func (b *Ban) SetServers(s []Server) {
	b.Servers = s
}

func (b *Ban) PlayerIdentifier() string {
	return b.Identifier
}

func (b *Ban) Address() string {
	return b.IP
}

// Validate checks identifier, reason, duration, IP and servers in that order.
func (b *Ban) Validate() error {
	if !IsUserID(b.Identifier) {
		return invalid(FieldIdentifier, "invalid user ID")
	}
	if b.Reason == "" {
		return invalid(FieldReason, "reason is empty")
	}
	if b.Duration <= 0 {
		return invalid(FieldDuration, "invalid duration")
	}
	if !IsIP(b.IP) {
		return invalid(FieldIP, "invalid IP address")
	}
	if len(b.Servers) < 1 {
		return invalid(FieldServers, "no server selected")
	}
	return b.Record.validate()
}

func (b *Ban) CopyTo(dst Sanction) error {
	t, ok := dst.(*Ban)
	if !ok {
		return mismatch(KindBan, dst)
	}
	t.Record = b.Record
	t.Reason = b.Reason
	t.Identifier = b.Identifier
	t.IP = b.IP
	t.Duration = b.Duration
	t.Servers = copyServers(b.Servers)
	return nil
}
