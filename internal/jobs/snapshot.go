// Package jobs runs background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ubuhinzi360/server/internal/metrics"
	"ubuhinzi360/server/internal/state"
	"ubuhinzi360/server/internal/storage"

	"github.com/adhocore/gronx"
)

// Snapshotter persists the state whenever it changed since the last save
type Snapshotter struct {
	state  *state.State
	kv     storage.KV
	cron   string
	logger *slog.Logger

	mu    sync.Mutex
	saved uint64
}

// NewSnapshotter validates cronExpr and creates a snapshot job
func NewSnapshotter(st *state.State, kv storage.KV, cronExpr string, logger *slog.Logger) (*Snapshotter, error) {
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid snapshot cron expression: %q", cronExpr)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{
		state:  st,
		kv:     kv,
		cron:   cronExpr,
		logger: logger,
		saved:  st.Version(),
	}, nil
}

// SaveIfChanged writes the state when its version moved since the last
// save. It reports whether anything was written.
func (s *Snapshotter) SaveIfChanged(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state.Snapshot()
	metrics.StateVersion.Set(float64(snap.Version))
	if snap.Version == s.saved {
		return false, nil
	}

	if err := storage.Save(ctx, s.kv, snap); err != nil {
		metrics.Snapshots.WithLabelValues("error").Inc()
		return false, err
	}
	s.saved = snap.Version
	metrics.Snapshots.WithLabelValues("ok").Inc()
	s.logger.Debug("state snapshot saved", "version", snap.Version)
	return true, nil
}

// Run saves on every cron tick until ctx is done, then makes a final save
// with a fresh context.
func (s *Snapshotter) Run(ctx context.Context) {
	s.logger.Info("snapshot scheduler started", "cron", s.cron)
	defer s.final()

	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(s.cron, now, false)
		if err != nil {
			s.logger.Error("snapshot next tick failed", "cron", s.cron, "error", err)
			next = now.Add(time.Minute)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("snapshot scheduler stopping")
			return
		case <-timer.C:
			if _, err := s.SaveIfChanged(ctx); err != nil {
				s.logger.Error("state snapshot failed", "error", err)
			}
		}
	}
}

func (s *Snapshotter) final() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.SaveIfChanged(ctx); err != nil {
		s.logger.Error("final state snapshot failed", "error", err)
	}
}
