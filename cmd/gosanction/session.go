package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/disgoorg/snowflake/v2"
	"github.com/spf13/cobra"

	"github.com/NicolasHaas/gosanction/pkg/datastore"
	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/model"
	"github.com/NicolasHaas/gosanction/pkg/rbac"
	"github.com/NicolasHaas/gosanction/pkg/store"
	"github.com/NicolasHaas/gosanction/pkg/workflow"
)

// session is a loaded workflow over the configured database.
type session struct {
	factory *datastore.ProviderFactory
	service *workflow.Service
}

func openSession(ctx context.Context) (*session, error) {
	factory, err := datastore.NewProviderFactory(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	opts := cfg.WorkflowOptions()
	opts.Logger = slog.Default()
	svc := workflow.New(factory.NonTx(), store.New(), instantiator.NewRegistry(cfg.Catalog()), opts)
	if err := svc.Load(ctx); err != nil {
		_ = factory.Close()
		return nil, err
	}
	return &session{factory: factory, service: svc}, nil
}

func (s *session) Close() error {
	return s.factory.Close()
}

// actorFlags identify the moderator a command acts for.
type actorFlags struct {
	id     string
	role   string
	grants []string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "actor", "", "Discord ID of the acting moderator")
	cmd.Flags().StringVar(&f.role, "role", "moderator", "role of the acting moderator: user, moderator or admin")
	cmd.Flags().StringSliceVar(&f.grants, "grant", nil, "extra permissions, e.g. delete_any_sanction")
	_ = cmd.MarkFlagRequired("actor")
}

func (f *actorFlags) actor() (model.Actor, error) {
	id, err := snowflake.Parse(f.id)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid --actor %q: %w", f.id, err)
	}
	a := model.Actor{ID: id, Role: model.ParseRole(f.role)}
	for _, name := range f.grants {
		p, ok := rbac.ParsePerm(name)
		if !ok {
			return model.Actor{}, fmt.Errorf("unknown permission %q", name)
		}
		a.Grants = append(a.Grants, p)
	}
	return a, nil
}

// printSanction writes the display fields of s as an aligned block.
func printSanction(w io.Writer, reg *instantiator.Registry, s model.Sanction) error {
	inst, err := reg.For(s.Kind())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s #%d\t\n", inst.Name(), s.Common().ID)
	for _, f := range inst.DisplayFields(s) {
		value := strings.ReplaceAll(f.Value, "\n", ", ")
		fmt.Fprintf(tw, "  %s:\t%s\n", f.Name, value)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func printList(w io.Writer, reg *instantiator.Registry, list []model.Sanction) error {
	for _, s := range list {
		if err := printSanction(w, reg, s); err != nil {
			return err
		}
	}
	return nil
}

func parseKindID(kindArg, idArg string) (model.Kind, int64, error) {
	k, err := model.ParseKind(kindArg)
	if err != nil {
		return 0, 0, err
	}
	var id int64
	if _, err := fmt.Sscan(idArg, &id); err != nil {
		return 0, 0, fmt.Errorf("invalid id %q", idArg)
	}
	return k, id, nil
}
