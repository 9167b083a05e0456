package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

// BackupVersion is written into every backup and checked on restore.
const BackupVersion = 1

var ErrBackupVersion = errors.New("datastore: unsupported backup version")

// Backup is the YAML document produced by Export.
type Backup struct {
	Version    int            `yaml:"version"`
	ExportedAt time.Time      `yaml:"exportedAt"`
	Bans       []BackupRecord `yaml:"bans"`
	Warnings   []BackupRecord `yaml:"warnings"`
	AgeChecks  []BackupRecord `yaml:"ageChecks"`
	Wanted     []BackupRecord `yaml:"wantedIndividuals"`
}

// BackupRecord is the flat YAML form of any sanction kind.
type BackupRecord struct {
	ID         int64          `yaml:"id"`
	IssuedBy   snowflake.ID   `yaml:"issuedBy"`
	PlayerName string         `yaml:"playerName"`
	Created    time.Time      `yaml:"created,omitempty"`
	Severity   model.Severity `yaml:"severity,omitempty"`
	Reason     string         `yaml:"reason,omitempty"`
	Identifier string         `yaml:"identifier,omitempty"`
	IP         string         `yaml:"ip,omitempty"`
	Duration   int64          `yaml:"duration,omitempty"`
	Servers    []model.Server `yaml:"servers,omitempty"`
	BirthDate  string         `yaml:"birthDate,omitempty"`
}

func (b *Backup) list(k model.Kind) *[]BackupRecord {
	switch k {
	case model.KindBan:
		return &b.Bans
	case model.KindWarning:
		return &b.Warnings
	case model.KindAgeCheck:
		return &b.AgeChecks
	case model.KindWanted:
		return &b.Wanted
	default:
		return nil
	}
}

// Len returns the number of records in the backup.
func (b *Backup) Len() int {
	return len(b.Bans) + len(b.Warnings) + len(b.AgeChecks) + len(b.Wanted)
}

func toRecord(s model.Sanction) BackupRecord {
	c := s.Common()
	r := BackupRecord{
		ID:         c.ID,
		IssuedBy:   c.IssuedBy,
		PlayerName: c.PlayerName,
		Created:    c.Created,
		Severity:   c.Severity,
	}
	switch v := s.(type) {
	case *model.Ban:
		r.Reason, r.Identifier, r.IP, r.Duration = v.Reason, v.Identifier, v.IP, v.Duration
		r.Servers = v.Servers
	case *model.Warning:
		r.Reason, r.Identifier, r.IP = v.Reason, v.Identifier, v.IP
		r.Servers = v.Servers
	case *model.AgeCheck:
		r.Identifier, r.BirthDate = v.Identifier, v.ApparentDateOfBirth
	case *model.Wanted:
		r.Reason = v.Reason
		r.Servers = v.Servers
	}
	return r
}

func fromRecord(k model.Kind, r BackupRecord) model.Sanction {
	s := model.New(k)
	c := s.Common()
	c.ID, c.IssuedBy, c.PlayerName, c.Created = r.ID, r.IssuedBy, r.PlayerName, r.Created
	if r.Severity != "" {
		c.Severity = r.Severity
	}
	servers := append([]model.Server(nil), r.Servers...)
	switch v := s.(type) {
	case *model.Ban:
		v.Reason, v.Identifier, v.IP, v.Duration, v.Servers = r.Reason, r.Identifier, r.IP, r.Duration, servers
	case *model.Warning:
		v.Reason, v.Identifier, v.IP, v.Servers = r.Reason, r.Identifier, r.IP, servers
	case *model.AgeCheck:
		v.Identifier, v.ApparentDateOfBirth = r.Identifier, r.BirthDate
	case *model.Wanted:
		v.Reason, v.Servers = r.Reason, servers
	}
	return s
}

// Export reads every stored sanction into a Backup.
func Export(ctx context.Context, ds SanctionReadProvider) (*Backup, error) {
	b := &Backup{Version: BackupVersion, ExportedAt: time.Now().UTC()}
	for _, k := range model.Kinds {
		list, err := ds.ListAll(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("datastore: export: %w", err)
		}
		dst := b.list(k)
		*dst = make([]BackupRecord, 0, len(list))
		for _, s := range list {
			*dst = append(*dst, toRecord(s))
		}
	}
	return b, nil
}

// Restore replaces the whole content of the store with b in one transaction.
// On any error nothing is changed.
func Restore(ctx context.Context, f DataProviderFactory, b *Backup) error {
	if b.Version != BackupVersion {
		return fmt.Errorf("%w: %d", ErrBackupVersion, b.Version)
	}
	tx, err := f.Tx(ctx)
	if err != nil {
		return fmt.Errorf("datastore: restore: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, k := range model.Kinds {
		if err := tx.Truncate(ctx, k); err != nil {
			return fmt.Errorf("datastore: restore: %w", err)
		}
		for _, r := range *b.list(k) {
			if err := tx.Insert(ctx, fromRecord(k, r)); err != nil {
				return fmt.Errorf("datastore: restore: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datastore: restore: commit: %w", err)
	}
	return nil
}

// WriteBackup encodes b as YAML.
func WriteBackup(w io.Writer, b *Backup) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("datastore: encode backup: %w", err)
	}
	return enc.Close()
}

// ReadBackup decodes a YAML backup.
func ReadBackup(r io.Reader) (*Backup, error) {
	var b Backup
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("datastore: decode backup: %w", err)
	}
	return &b, nil
}
