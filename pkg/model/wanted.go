package model

// Wanted is a wanted-person notice. Any moderator may delete it.
type Wanted struct {
	Record
	Reason  string   `json:"reason"`
	Servers []Server `json:"servers"`
}

// NewWanted returns a blank, unpersisted wanted notice.
func NewWanted() *Wanted {
	return &Wanted{Record: newRecord(SeverityDarkRed)}
}

func (w *Wanted) Kind() Kind {
	return KindWanted
}

func (w *Wanted) Common() *Record {
	return &w.Record
}

func (w *Wanted) Clone() Sanction {
	c := NewWanted()
	_ = w.CopyTo(c)
	return c
}

func (w *Wanted) ServerList() []Server {
	return w.Servers
}

func (w *Wanted) SetServers(s []Server) {
	w.Servers = s
}

func (w *Wanted) DeletableByAnyone() bool {
	return true
}

func (w *Wanted) Validate() error {
	if w.Reason == "" {
		return invalid(FieldReason, "reason is empty")
	}
	if len(w.Servers) < 1 {
		return invalid(FieldServers, "no server selected")
	}
	return w.Record.validate()
}

func (w *Wanted) CopyTo(dst Sanction) error {
	t, ok := dst.(*Wanted)
	if !ok {
		return mismatch(KindWanted, dst)
	}
	t.Record = w.Record
	t.Reason = w.Reason
	t.Servers = copyServers(w.Servers)
	return nil
}
