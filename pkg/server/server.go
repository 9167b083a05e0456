// Package server runs gosanction as a long-lived process: it loads the
// sanctions, serves metrics and health checks, and purges expired
// confirmation state.
package server

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/NicolasHaas/gosanction/pkg/config"
	"github.com/NicolasHaas/gosanction/pkg/datastore"
	"github.com/NicolasHaas/gosanction/pkg/instantiator"
	"github.com/NicolasHaas/gosanction/pkg/metrics"
	"github.com/NicolasHaas/gosanction/pkg/store"
	"github.com/NicolasHaas/gosanction/pkg/workflow"
)

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Store and will Close() it on shutdown.
type Dependencies struct {
	Store   datastore.DataProviderFactory
	Metrics *metrics.Metrics // optional
}

// Server wires the workflow to its gateway and exposes it to operators.
type Server struct {
	cfg     *config.Config
	store   datastore.DataProviderFactory
	metrics *metrics.Metrics
	service *workflow.Service
	ready   atomic.Bool
}

// New creates a server. It does not touch the database until Run.
func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("server: missing store dependency")
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	opts := cfg.WorkflowOptions()
	opts.Metrics = m
	opts.Logger = slog.Default()

	return &Server{
		cfg:     cfg,
		store:   deps.Store,
		metrics: m,
		service: workflow.New(deps.Store.NonTx(), store.New(), instantiator.NewRegistry(cfg.Catalog()), opts),
	}, nil
}

// Service returns the workflow the server drives.
func (s *Server) Service() *workflow.Service {
	return s.service
}

// Ready reports whether the initial load completed.
func (s *Server) Ready() bool {
	return s.ready.Load()
}
