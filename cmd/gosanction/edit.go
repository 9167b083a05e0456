package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/workflow"
)

func editCommand() *cobra.Command {
	var actor actorFlags
	cmd := &cobra.Command{
		Use:   "edit KIND ID FIELD=VALUE...",
		Short: "Change fields of a stored sanction",
		Long: "Fields: playerName, steamID, IP, reason, duration, servers, birthDate.\n" +
			"Values are parsed like imported text, e.g. duration=\"2 weeks\" servers=\"54 62\".",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, id, err := parseKindID(args[0], args[1])
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

			reg := sess.service.Registry()
			updates := make([]instantiator.Update, 0, len(args)-2)
			for _, arg := range args[2:] {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected FIELD=VALUE, got %q", arg)
				}
				f, err := model.ParseField(strings.TrimSpace(key))
				if err != nil {
					return err
				}
				updates = append(updates, reg.Text(f, value))
			}

			edited, err := sess.service.Edit(cmd.Context(), a, k, id, updates...)
			if err != nil {
				var verr *model.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("%s is invalid: %w", verr.Field, err)
				}
				return err
			}
			return printSanction(cmd.OutOrStdout(), reg, edited)
		},
	}
	actor.register(cmd)
	return cmd
}

func deleteCommand() *cobra.Command {
	var actor actorFlags
	cmd := &cobra.Command{
		Use:   "delete KIND ID",
		Short: "Delete a stored sanction after typing back a confirmation code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, id, err := parseKindID(args[0], args[1])
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
			current, err := svc.Get(k, id)
			if err != nil {
				return err
			}
			code, err := svc.RequestDelete(a, k, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printSanction(out, svc.Registry(), current); err != nil {
				return err
			}
			fmt.Fprintf(out, "Type %q to delete this %s: ", code, k)
			typed, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && typed == "" {
				return fmt.Errorf("read confirmation: %w", err)
			}

			if _, err := svc.ConfirmDelete(cmd.Context(), a, k, id, typed); err != nil {
				if errors.Is(err, workflow.ErrConfirmation) {
					fmt.Fprintln(out, "Deletion aborted.")
				}
				return err
			}
			fmt.Fprintf(out, "%s #%d deleted.\n", k, id)
			return nil
		},
	}
	actor.register(cmd)
	return cmd
}
