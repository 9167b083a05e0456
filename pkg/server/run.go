package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const metricsLogInterval = 60 * time.Second

// Run loads the sanctions and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()

	if err := s.service.Load(ctx); err != nil {
		return fmt.Errorf("server: load: %w", err)
	}
	s.ready.Store(true)
	defer s.ready.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr, err := s.startHTTP(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.purgeLoop(ctx)
	}()
	s.metrics.StartPeriodicLog(metricsLogInterval, ctx.Done())

	counts := s.service.Index().Counts()
	slog.Info("gosanction running",
		"metrics", s.cfg.MetricsAddr,
		"servers", len(s.cfg.Servers),
		"indexed", counts,
	)

	select {
	case <-ctx.Done():
		err = nil
	case err = <-httpErr:
	}
	slog.Info("shutting down...")
	cancel()
	wg.Wait()
	return err
}

// purgeLoop drops expired pending entries and codes every PurgeInterval.
func (s *Server) purgeLoop(ctx context.Context) {
	if s.cfg.PurgeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.PurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.service.PurgeExpired()
		}
	}
}
