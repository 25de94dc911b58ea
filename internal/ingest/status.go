package ingest

import (
	"context"
	"fmt"
)

// SessionStatus describes upload progress for a session. UploadedChunks is
// the advisory counter; PresentChunks reflects what is actually on disk
// and is what Complete will act on.
type SessionStatus struct {
	SessionID      string
	Status         string
	TotalChunks    int
	UploadedChunks int
	PresentChunks  []int
}

// Status reports a session's progress. Clients use the present-chunk set
// to decide which indices still need (re)uploading.
func (s *Service) Status(ctx context.Context, sessionID string) (*SessionStatus, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading session: %v", ErrStorage, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	var present []int
	if !session.Terminal() {
		present, err = s.chunks.PresentChunks(sessionID, session.TotalChunks)
		if err != nil {
			return nil, fmt.Errorf("%w: probing chunks: %v", ErrStorage, err)
		}
	}

	return &SessionStatus{
		SessionID:      session.ID,
		Status:         session.Status,
		TotalChunks:    session.TotalChunks,
		UploadedChunks: session.UploadedChunks,
		PresentChunks:  present,
	}, nil
}
