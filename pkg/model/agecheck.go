package model

import "time"

// BirthDateLayout is the normalized textual form of an apparent date of birth.
const BirthDateLayout = "2006. 01. 02."

// MinBirthYear is the earliest accepted year of birth.
const MinBirthYear = 1900

// AgeCheck records the apparent date of birth of a player.
type AgeCheck struct {
	Record
	Identifier          string `json:"identifier"`
	ApparentDateOfBirth string `json:"apparent_date_of_birth"` // BirthDateLayout
}

// NewAgeCheck returns a blank, unpersisted age check.
func NewAgeCheck() *AgeCheck {
	return &AgeCheck{Record: newRecord(SeverityGreen)}
}

func (a *AgeCheck) Kind() Kind {
	return KindAgeCheck
}

func (a *AgeCheck) Common() *Record {
	return &a.Record
}

func (a *AgeCheck) Clone() Sanction {
	c := NewAgeCheck()
	_ = a.CopyTo(c)
	return c
}

func (a *AgeCheck) PlayerIdentifier() string {
	return a.Identifier
}

// BirthDate parses ApparentDateOfBirth. ok is false if the field is empty or malformed.
func (a *AgeCheck) BirthDate() (t time.Time, ok bool) {
	t, err := time.Parse(BirthDateLayout, a.ApparentDateOfBirth)
	return t, err == nil
}

func (a *AgeCheck) Validate() error {
	if !IsUserID(a.Identifier) {
		return invalid(FieldIdentifier, "invalid user ID")
	}
	if a.ApparentDateOfBirth == "" {
		return invalid(FieldDateOfBirth, "date of birth is not set")
	}
	t, ok := a.BirthDate()
	if !ok {
		return invalid(FieldDateOfBirth, "malformed date of birth")
	}
	if t.Year() < MinBirthYear {
		return invalid(FieldDateOfBirth, "date of birth is too early")
	}
	return a.Record.validate()
}

func (a *AgeCheck) CopyTo(dst Sanction) error {
	t, ok := dst.(*AgeCheck)
	if !ok {
		return mismatch(KindAgeCheck, dst)
	}
	t.Record = a.Record
	t.Identifier = a.Identifier
	t.ApparentDateOfBirth = a.ApparentDateOfBirth
	return nil
}
