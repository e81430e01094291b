package httpapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"flowlens/internal/config"
	"flowlens/internal/flow"
	"flowlens/internal/tracker"
)

// Server owns the loaded snapshot and a memoized analysis. The memo key
// includes the calendar day, so anything derived from "today" silently
// expires at midnight even if the cron never fires.
type Server struct {
	cfg *config.AppConfig
	loc *time.Location

	mu       sync.RWMutex
	snapshot *tracker.Snapshot

	cacheMu  sync.Mutex
	cacheKey string
	cached   *flow.Analysis
}

// NewServer loads the configured snapshot and prepares the server.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bad timezone %q: %w", cfg.Timezone, err)
	}
	s := &Server{cfg: cfg, loc: loc}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Location returns the timezone all "today" calculations use.
func (s *Server) Location() *time.Location {
	return s.loc
}

// Refresh reloads the snapshot from disk and drops the analysis memo.
func (s *Server) Refresh() error {
	snap, err := tracker.LoadSnapshot(s.cfg.SnapshotPath, s.cfg.Fields)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	s.InvalidateCache()
	log.Info().Str("fingerprint", snap.Fingerprint[:12]).Msg("Snapshot refreshed")
	return nil
}

// Fingerprint returns the loaded snapshot's content hash.
func (s *Server) Fingerprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Fingerprint
}

// InvalidateCache clears the memoized analysis.
func (s *Server) InvalidateCache() {
	s.cacheMu.Lock()
	s.cacheKey = ""
	s.cached = nil
	s.cacheMu.Unlock()
}

// analysis returns the memoized analysis for today, recomputing when the
// config, the snapshot, or the calendar day has changed.
func (s *Server) analysis(ctx context.Context) (*flow.Analysis, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	asOf := time.Now().In(s.loc)
	key := s.cfg.Analysis.Hash() + "|" + snap.Fingerprint + "|" + asOf.Format("2006-01-02")

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheKey == key && s.cached != nil {
		return s.cached, nil
	}

	started := time.Now()
	analysis, err := flow.Analyze(ctx, snap.Items, s.cfg.Analysis, asOf)
	if err != nil {
		return nil, err
	}
	analysis.Warnings = append(snap.Warnings, analysis.Warnings...)

	log.Debug().
		Dur("elapsed", time.Since(started)).
		Int("items", len(analysis.Records)).
		Msg("Analysis recomputed")

	s.cacheKey = key
	s.cached = analysis
	return analysis, nil
}
