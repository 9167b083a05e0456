package model

// Warning is a recorded warning. It carries the same data as a ban minus the duration.
type Warning struct {
	Record
	Reason     string   `json:"reason"`
	Identifier string   `json:"identifier"`
	IP         string   `json:"ip"`
	Servers    []Server `json:"servers"`
}

// NewWarning returns a blank, unpersisted warning.
func NewWarning() *Warning {
	return &Warning{Record: newRecord(SeverityYellow)}
}

func (w *Warning) Kind() Kind {
	return KindWarning
}

func (w *Warning) Common() *Record {
	return &w.Record
}

func (w *Warning) Clone() Sanction {
	c := NewWarning()
	_ = w.CopyTo(c)
	return c
}

func (w *Warning) ServerList() []Server {
	return w.Servers
}

func (w *Warning) SetServers(s []Server) {
	w.Servers = s
}

func (w *Warning) PlayerIdentifier() string {
	return w.Identifier
}

func (w *Warning) Address() string {
	return w.IP
}

func (w *Warning) Validate() error {
	if !IsUserID(w.Identifier) {
		return invalid(FieldIdentifier, "invalid user ID")
	}
	if w.Reason == "" {
		return invalid(FieldReason, "reason is empty")
	}
	if !IsIP(w.IP) {
		return invalid(FieldIP, "invalid IP address")
	}
	if len(w.Servers) < 1 {
		return invalid(FieldServers, "no server selected")
	}
	return w.Record.validate()
}

func (w *Warning) CopyTo(dst Sanction) error {
	t, ok := dst.(*Warning)
	if !ok {
		return mismatch(KindWarning, dst)
	}
	t.Record = w.Record
	t.Reason = w.Reason
	t.Identifier = w.Identifier
	t.IP = w.IP
	t.Servers = copyServers(w.Servers)
	return nil
}
