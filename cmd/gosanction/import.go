package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

// splitBlocks cuts a legacy export into records separated by "---" lines.
func splitBlocks(r io.Reader) ([]string, error) {
	var (
		blocks []string
		cur    strings.Builder
	)
	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			blocks = append(blocks, text)
		}
		cur.Reset()
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return blocks, nil
}

func importCommand() *cobra.Command {
	var (
		kindName string
		accept   bool
		actor    actorFlags
	)
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Review legacy free-text records and optionally accept the valid ones",
		Long: "Each file holds one or more labelled records (\"Name: X\", \"Név: X\", ...)\n" +
			"separated by lines containing only ---. Every record is shown with its\n" +
			"validation result; with --accept the valid ones are stored.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseKind(kindName)
			if err != nil {
				return err
			}
			a, err := actor.actor()
			if err != nil {
				return err
			}
			sess, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			svc := sess.service
			out := cmd.OutOrStdout()
			var valid, stored int
			for _, path := range args {
				f, err := os.Open(path) //nolint:gosec // path from CLI argument
				if err != nil {
					return err
				}
				blocks, err := splitBlocks(f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				for i, text := range blocks {
					source := fmt.Sprintf("%s#%d", path, i+1)
					v, err := svc.Import(source, k, text)
					if err != nil {
						return err
					}
					status := "valid"
					if !v.Valid {
						status = "invalid: " + v.Reason
					} else {
						valid++
					}
					fmt.Fprintf(out, "%s (%s)\n", source, status)
					if err := printSanction(out, svc.Registry(), v.Sanction); err != nil {
						return err
					}
					if !accept || !v.Valid {
						continue
					}
					created, err := svc.Accept(cmd.Context(), a, source)
					if err != nil {
						return fmt.Errorf("accept %s: %w", source, err)
					}
					stored++
					fmt.Fprintf(out, "stored as %s #%d\n\n", created.Kind(), created.Common().ID)
				}
			}
			fmt.Fprintf(out, "%d valid, %d stored\n", valid, stored)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindName, "kind", "k", "Ban", "sanction kind: Ban, Warning, AgeCheck or WantedIndividual")
	cmd.Flags().BoolVar(&accept, "accept", false, "store every valid record")
	actor.register(cmd)
	return cmd
}
