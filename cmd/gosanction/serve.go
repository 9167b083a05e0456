package main

import (
	"github.com/spf13/cobra"

	"github.com/NicolasHaas/gosanction/pkg/datastore"
	"github.com/NicolasHaas/gosanction/pkg/server"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the registry and serve metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := datastore.NewProviderFactory(cfg.DatabasePath)
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, server.Dependencies{Store: st})
			if err != nil {
				_ = st.Close()
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}
