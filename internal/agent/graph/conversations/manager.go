// Package conversations manages the lifecycle of nutrition chat sessions.
package conversations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jolly-agents/server/internal/agent/model"
	errx "github.com/jolly-agents/server/internal/core/error"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// SessionManager creates, reads and resets chat sessions. Turns themselves
// are committed by the nutrition graph through the same repository.
type SessionManager struct {
	repo  model.SessionRepository
	now   func() time.Time
	newID func() string
}

func NewSessionManager(repo model.SessionRepository) *SessionManager {
	return &SessionManager{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create starts an empty session with zero totals.
func (m *SessionManager) Create(ctx context.Context) (model.ChatSession, error) {
	s := model.NewChatSession(m.newID(), m.now().UTC())
	if err := m.repo.Save(ctx, s); err != nil {
		return model.ChatSession{}, err
	}
	logx.Info().Str("session_id", s.ID).Msg("Chat session created")
	return s, nil
}

func (m *SessionManager) Get(ctx context.Context, sessionID string) (model.ChatSession, error) {
	if err := ValidateID(sessionID); err != nil {
		return model.ChatSession{}, err
	}
	return m.repo.Load(ctx, sessionID)
}

// Reset clears the transcript and zeroes the ledger in one write.
func (m *SessionManager) Reset(ctx context.Context, sessionID string) (model.ChatSession, error) {
	if err := ValidateID(sessionID); err != nil {
		return model.ChatSession{}, err
	}
	s, err := m.repo.Update(ctx, sessionID, func(cur model.ChatSession) (model.ChatSession, error) {
		return cur.Reset(m.now().UTC()), nil
	})
	if err != nil {
		return model.ChatSession{}, err
	}
	logx.Info().Str("session_id", sessionID).Msg("Chat session reset")
	return s, nil
}

// End discards the session.
func (m *SessionManager) End(ctx context.Context, sessionID string) error {
	if err := ValidateID(sessionID); err != nil {
		return err
	}
	return m.repo.Delete(ctx, sessionID)
}

// ValidateID rejects ids that Create could not have issued.
func ValidateID(sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return errx.BadRequest(fmt.Errorf("invalid session id %q", sessionID))
	}
	return nil
}
