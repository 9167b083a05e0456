package main

import (
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/spf13/cobra"

	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/store"
)

func historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history QUERY",
		Short: "Show every sanction matching an IP, player ID or nickname",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			h := sess.service.Index().History(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			counts := h.Counts()
			fmt.Fprintf(out, "History of %q (%s): %d bans, %d warnings, %d age checks, %d wanted\n\n",
				h.Query, h.Type,
				counts[model.KindBan], counts[model.KindWarning],
				counts[model.KindAgeCheck], counts[model.KindWanted])
			reg := sess.service.Registry()
			for _, list := range [][]model.Sanction{h.Bans, h.Warnings, h.AgeChecks, h.Wanted} {
				if err := printList(out, reg, list); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func issuedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "issued MODERATOR_ID",
		Short: "List the sanctions issued by a moderator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := snowflake.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid moderator id %q: %w", args[0], err)
			}
			sess, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			list := sess.service.Index().FindAllIssuedBy(id)
			store.SortByCreated(list)
			fmt.Fprintf(cmd.OutOrStdout(), "%d sanctions issued by %s\n\n", len(list), id)
			return printList(cmd.OutOrStdout(), sess.service.Registry(), list)
		},
	}
}

func wantedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wanted [NICKNAME...]",
		Short: "List wanted notices, optionally only those for the given nicknames",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			idx := sess.service.Index()
			list := idx.All(model.KindWanted)
			if len(args) > 0 {
				list = idx.FindByNicknames(args, model.KindWanted)
			}
			store.SortByCreated(list)
			return printList(cmd.OutOrStdout(), sess.service.Registry(), list)
		},
	}
}
