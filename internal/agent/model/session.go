package model

import "context"

type SessionRepository interface {
	// Save stores a session, replacing any previous value.
	Save(ctx context.Context, session ChatSession) error

	// Load returns the session or an error wrapping errx.ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (ChatSession, error)

	// Update applies fn to the current session and stores the result as one write.
	Update(ctx context.Context, sessionID string, fn func(ChatSession) (ChatSession, error)) (ChatSession, error)

	// Delete removes the session.
	Delete(ctx context.Context, sessionID string) error
}
