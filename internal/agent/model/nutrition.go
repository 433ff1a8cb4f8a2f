package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Nutrition is the set of values extracted from one assistant reply.
type Nutrition struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Sugar    float64 `json:"sugar"`
}

// Totals is the running sum of every Nutrition committed to a session.
type Totals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Sugar    float64 `json:"sugar"`
}

// Add returns t plus n, field by field.
func (t Totals) Add(n Nutrition) Totals {
	return Totals{
		Calories: t.Calories + n.Calories,
		Protein:  t.Protein + n.Protein,
		Sugar:    t.Sugar + n.Sugar,
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatEntry is one message in a nutrition chat transcript. Images are not
// kept; an entry only remembers the digest, size and type of the one it carried.
type ChatEntry struct {
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	ImageSHA256 string    `json:"image_sha256,omitempty"`
	ImageSize   int       `json:"image_size,omitempty"`
	MIMEType    string    `json:"mime_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUserEntry records turn as a transcript entry. mime is the already
// normalised type of the turn's image, if any.
func NewUserEntry(turn ChatTurn, mime string, at time.Time) ChatEntry {
	e := ChatEntry{Role: RoleUser, Text: turn.Text, CreatedAt: at}
	if turn.HasImage() {
		sum := sha256.Sum256(turn.Image)
		e.ImageSHA256 = hex.EncodeToString(sum[:])
		e.ImageSize = len(turn.Image)
		e.MIMEType = mime
	}
	return e
}

func (e ChatEntry) HasImage() bool {
	return e.ImageSHA256 != ""
}

// ChatSession owns the transcript and the nutrition ledger of one user session.
type ChatSession struct {
	ID        string      `json:"id"`
	History   []ChatEntry `json:"history"`
	Totals    Totals      `json:"totals"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewChatSession(id string, now time.Time) ChatSession {
	return ChatSession{
		ID:        id,
		History:   []ChatEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Commit records a completed turn: both entries are appended and n is added
// to the totals in the same returned value.
func (s ChatSession) Commit(user, assistant ChatEntry, n Nutrition) ChatSession {
	out := s
	out.History = make([]ChatEntry, 0, len(s.History)+2)
	out.History = append(out.History, s.History...)
	out.History = append(out.History, user, assistant)
	out.Totals = s.Totals.Add(n)
	out.UpdatedAt = assistant.CreatedAt
	return out
}

// Reset clears the transcript and zeroes the totals.
func (s ChatSession) Reset(now time.Time) ChatSession {
	out := s
	out.History = []ChatEntry{}
	out.Totals = Totals{}
	out.UpdatedAt = now
	return out
}

// ChatTurn is the input of the nutrition pipeline.
type ChatTurn struct {
	SessionID string
	Text      string
	Image     []byte
	MIMEType  string
}

// HasImage reports whether the turn carries an image.
func (t ChatTurn) HasImage() bool {
	return len(t.Image) > 0
}

// TurnResult is what the nutrition pipeline hands back for a turn.
type TurnResult struct {
	SessionID string    `json:"session_id"`
	Reply     string    `json:"reply"`
	Extracted Nutrition `json:"extracted"`
	Rejected  []string  `json:"rejected,omitempty"`
	Totals    Totals    `json:"totals"`
}
