package audit

import (
	"context"

	"github.com/linolazarous/cursorcode-ai/logging"
)

// LogStore writes events to a logger.
type LogStore struct {
	Logger logging.Logger
}

// Save implements Store.
func (s LogStore) Save(_ context.Context, ev Event) error {
	s.Logger.Info("audit",
		"event_id", ev.ID,
		"user_id", ev.UserID,
		"action", ev.Action,
		"metadata", ev.Metadata,
		"timestamp", ev.Timestamp,
	)
	return nil
}
