package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/gosanction/pkg/crypto"
	"github.com/NicolasHaas/gosanction/pkg/datastore"
)

// passphrase returns the flag value, falling back to GOSANCTION_BACKUP_PASSPHRASE.
func passphrase(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.BackupPassphrase
}

func exportCommand() *cobra.Command {
	var (
		output string
		secret string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every sanction to a YAML backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := datastore.NewProviderFactory(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			b, err := datastore.Export(cmd.Context(), st.NonTx())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := datastore.WriteBackup(&buf, b); err != nil {
				return err
			}
			data := buf.Bytes()
			if p := passphrase(secret); p != "" {
				if data, err = crypto.SealBackup(data, p); err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d sanctions to %s\n", b.Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&secret, "passphrase", "", "encrypt the backup with this passphrase")
	return cmd
}

func restoreCommand() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Replace every stored sanction with the content of a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0]) //nolint:gosec // path from CLI argument
			}
			if err != nil {
				return err
			}
			if crypto.IsSealed(data) {
				p := passphrase(secret)
				if p == "" {
					return fmt.Errorf("%s is encrypted: pass --passphrase", args[0])
				}
				if data, err = crypto.OpenBackup(data, p); err != nil {
					return err
				}
			}
			b, err := datastore.ReadBackup(bytes.NewReader(data))
			if err != nil {
				return err
			}

			st, err := datastore.NewProviderFactory(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := datastore.Restore(cmd.Context(), st, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "restored %d sanctions\n", b.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "passphrase", "", "passphrase of an encrypted backup")
	return cmd
}
