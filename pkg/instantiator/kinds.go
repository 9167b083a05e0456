package instantiator

import (
	"time"

	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/parser"
)

// BanInstantiator describes *model.Ban forms.
type BanInstantiator struct {
	base[*model.Ban]
}

func NewBanInstantiator() *BanInstantiator {
	return &BanInstantiator{base[*model.Ban]{
		kind:        model.KindBan,
		name:        "Ban",
		description: "Select the servers, then confirm to record the ban.",
		tracked:     true,
		newFn:       model.NewBan,
		setters: map[model.Field]setter[*model.Ban]{
			model.FieldPlayerName: func(b *model.Ban, v model.Value) bool { return setText(&b.PlayerName, v) },
			model.FieldIdentifier: func(b *model.Ban, v model.Value) bool { return setText(&b.Identifier, v) },
			model.FieldIP:         func(b *model.Ban, v model.Value) bool { return setText(&b.IP, v) },
			model.FieldReason:     func(b *model.Ban, v model.Value) bool { return setText(&b.Reason, v) },
			model.FieldDuration:   func(b *model.Ban, v model.Value) bool { return setSeconds(&b.Duration, v) },
			model.FieldServers:    func(b *model.Ban, v model.Value) bool { return setServers(&b.Servers, v) },
		},
	}}
}

func (i *BanInstantiator) DisplayFields(s model.Sanction) []DisplayField {
	b, ok := s.(*model.Ban)
	if !ok {
		return nil
	}
	expires := emptyValue
	if !b.Created.IsZero() {
		expires = b.Created.Add(time.Duration(b.Duration) * time.Second).Format(ExpiryLayout)
	}
	return []DisplayField{
		{Name: "Player", Value: orEmpty(b.PlayerName), Inline: true},
		{Name: "Steam ID", Value: orEmpty(b.Identifier), Inline: true},
		{Name: "IP", Value: orEmpty(b.IP)},
		{Name: "Reason", Value: orEmpty(b.Reason)},
		{Name: "Servers", Value: joinServers(b.Servers), Inline: true},
		{Name: "Duration", Value: orEmpty(parser.SecondsToString(b.Duration)), Inline: true},
		{Name: "Expires", Value: expires, Inline: true},
	}
}

func (i *BanInstantiator) Inputs(s model.Sanction) []Input {
	b, ok := s.(*model.Ban)
	if !ok {
		return nil
	}
	duration := ""
	if b.Duration > 0 {
		duration = parser.SecondsToString(b.Duration)
	}
	return []Input{
		{Label: "Player", Field: model.FieldPlayerName, Value: b.PlayerName, MaxLength: 64},
		{Label: "Steam ID", Field: model.FieldIdentifier, Value: b.Identifier, MaxLength: 32},
		{Label: "IP", Field: model.FieldIP, Value: b.IP, MinLength: 7, MaxLength: 32},
		{Label: "Reason", Field: model.FieldReason, Value: b.Reason, MaxLength: 2048, Multiline: true},
		{Label: "Duration", Field: model.FieldDuration, Value: duration, MaxLength: 32},
	}
}

// WarningInstantiator describes *model.Warning forms.
type WarningInstantiator struct {
	base[*model.Warning]
}

func NewWarningInstantiator() *WarningInstantiator {
	return &WarningInstantiator{base[*model.Warning]{
		kind:        model.KindWarning,
		name:        "Warning",
		description: "Select the servers, then confirm to record the warning.",
		tracked:     true,
		newFn:       model.NewWarning,
		setters: map[model.Field]setter[*model.Warning]{
			model.FieldPlayerName: func(w *model.Warning, v model.Value) bool { return setText(&w.PlayerName, v) },
			model.FieldIdentifier: func(w *model.Warning, v model.Value) bool { return setText(&w.Identifier, v) },
			model.FieldIP:         func(w *model.Warning, v model.Value) bool { return setText(&w.IP, v) },
			model.FieldReason:     func(w *model.Warning, v model.Value) bool { return setText(&w.Reason, v) },
			model.FieldServers:    func(w *model.Warning, v model.Value) bool { return setServers(&w.Servers, v) },
		},
	}}
}

func (i *WarningInstantiator) DisplayFields(s model.Sanction) []DisplayField {
	w, ok := s.(*model.Warning)
	if !ok {
		return nil
	}
	return []DisplayField{
		{Name: "Player", Value: orEmpty(w.PlayerName), Inline: true},
		{Name: "Steam ID", Value: orEmpty(w.Identifier), Inline: true},
		{Name: "IP", Value: orEmpty(w.IP)},
		{Name: "Reason", Value: orEmpty(w.Reason)},
		{Name: "Servers", Value: joinServers(w.Servers), Inline: true},
		{Name: "Created", Value: formatCreated(w.Created), Inline: true},
	}
}

func (i *WarningInstantiator) Inputs(s model.Sanction) []Input {
	w, ok := s.(*model.Warning)
	if !ok {
		return nil
	}
	return []Input{
		{Label: "Player", Field: model.FieldPlayerName, Value: w.PlayerName, MaxLength: 64},
		{Label: "Steam ID", Field: model.FieldIdentifier, Value: w.Identifier, MaxLength: 32},
		{Label: "IP", Field: model.FieldIP, Value: w.IP, MinLength: 7, MaxLength: 32},
		{Label: "Reason", Field: model.FieldReason, Value: w.Reason, MaxLength: 2048, Multiline: true},
	}
}

// AgeCheckInstantiator describes *model.AgeCheck forms.
type AgeCheckInstantiator struct {
	base[*model.AgeCheck]
}

func NewAgeCheckInstantiator() *AgeCheckInstantiator {
	return &AgeCheckInstantiator{base[*model.AgeCheck]{
		kind:        model.KindAgeCheck,
		name:        "Age check",
		description: "Confirm to record the player's apparent date of birth.",
		newFn:       model.NewAgeCheck,
		setters: map[model.Field]setter[*model.AgeCheck]{
			model.FieldPlayerName:  func(a *model.AgeCheck, v model.Value) bool { return setText(&a.PlayerName, v) },
			model.FieldIdentifier:  func(a *model.AgeCheck, v model.Value) bool { return setText(&a.Identifier, v) },
			model.FieldDateOfBirth: func(a *model.AgeCheck, v model.Value) bool { return setText(&a.ApparentDateOfBirth, v) },
		},
	}}
}

func (i *AgeCheckInstantiator) DisplayFields(s model.Sanction) []DisplayField {
	a, ok := s.(*model.AgeCheck)
	if !ok {
		return nil
	}
	birth := emptyValue
	if d, ok := a.BirthDate(); ok {
		birth = d.Format("2 January 2006")
	}
	return []DisplayField{
		{Name: "Player", Value: orEmpty(a.PlayerName), Inline: true},
		{Name: "Steam ID", Value: orEmpty(a.Identifier), Inline: true},
		{Name: "Date of birth", Value: birth},
		{Name: "Created", Value: formatCreated(a.Created), Inline: true},
	}
}

func (i *AgeCheckInstantiator) Inputs(s model.Sanction) []Input {
	a, ok := s.(*model.AgeCheck)
	if !ok {
		return nil
	}
	return []Input{
		{Label: "Player", Field: model.FieldPlayerName, Value: a.PlayerName, MaxLength: 64},
		{Label: "Steam ID", Field: model.FieldIdentifier, Value: a.Identifier, MaxLength: 32},
		{Label: "Date of birth", Field: model.FieldDateOfBirth, Value: a.ApparentDateOfBirth, MaxLength: 32},
	}
}

// WantedInstantiator describes *model.Wanted forms.
type WantedInstantiator struct {
	base[*model.Wanted]
}

func NewWantedInstantiator() *WantedInstantiator {
	return &WantedInstantiator{base[*model.Wanted]{
		kind:        model.KindWanted,
		name:        "Wanted individual",
		description: "Select the servers, then confirm to post the wanted notice.",
		tracked:     true,
		newFn:       model.NewWanted,
		setters: map[model.Field]setter[*model.Wanted]{
			model.FieldPlayerName: func(w *model.Wanted, v model.Value) bool { return setText(&w.PlayerName, v) },
			model.FieldReason:     func(w *model.Wanted, v model.Value) bool { return setText(&w.Reason, v) },
			model.FieldServers:    func(w *model.Wanted, v model.Value) bool { return setServers(&w.Servers, v) },
		},
	}}
}

func (i *WantedInstantiator) DisplayFields(s model.Sanction) []DisplayField {
	w, ok := s.(*model.Wanted)
	if !ok {
		return nil
	}
	return []DisplayField{
		{Name: "Player", Value: orEmpty(w.PlayerName), Inline: true},
		{Name: "Reason", Value: orEmpty(w.Reason)},
		{Name: "Servers", Value: joinServers(w.Servers), Inline: true},
		{Name: "Created", Value: formatCreated(w.Created), Inline: true},
	}
}

func (i *WantedInstantiator) Inputs(s model.Sanction) []Input {
	w, ok := s.(*model.Wanted)
	if !ok {
		return nil
	}
	return []Input{
		{Label: "Player", Field: model.FieldPlayerName, Value: w.PlayerName, MaxLength: 64},
		{Label: "Reason", Field: model.FieldReason, Value: w.Reason, MaxLength: 2048, Multiline: true},
	}
}
