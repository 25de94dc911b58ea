package ingest

import (
	"context"
	"fmt"
	"time"

	"resourcehub/internal/model"
)

// Sweep aborts and garbage-collects sessions idle longer than retention.
// It runs off the hot path (cron or a CLI invocation) and bounds the disk
// held by abandoned uploads. Returns the number of sessions swept.
func (s *Service) Sweep(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.clock.Now().Add(-retention)
	sessions, err := s.store.FindIdleSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: listing idle sessions: %v", ErrStorage, err)
	}

	swept := 0
	for _, session := range sessions {
		ok, err := s.store.UpdateSessionStatus(ctx, session.ID, model.StatusAborted, model.StatusInitiated, model.StatusUploading)
		if err != nil {
			s.logger.Error("sweeping session", "session", session.ID, "error", err)
			continue
		}
		if !ok {
			// Completed or aborted since we listed it.
			continue
		}
		if err := s.chunks.RemoveSession(session.ID); err != nil {
			s.logger.Warn("sweep cleanup incomplete", "session", session.ID, "error", err)
		}
		s.logger.Info("idle session swept", "session", session.ID, "idle_since", session.UpdatedAt)
		swept++
	}

	return swept, nil
}
