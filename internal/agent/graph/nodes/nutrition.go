package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/jolly-agents/server/internal/agent/graph/parsers"
	"github.com/jolly-agents/server/internal/agent/graph/prompts"
	"github.com/jolly-agents/server/internal/agent/model"
	errx "github.com/jolly-agents/server/internal/core/error"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// NewMessageBuilderPreHandler validates the turn and loads its session.
func NewMessageBuilderPreHandler(sessions model.SessionRepository) func(context.Context, model.ChatTurn, *model.NutritionGraphState) (model.ChatTurn, error) {
	return func(ctx context.Context, in model.ChatTurn, s *model.NutritionGraphState) (model.ChatTurn, error) {
		if strings.TrimSpace(in.Text) == "" && !in.HasImage() {
			return in, errx.BadRequest(errors.New("message needs text or an image"))
		}
		session, err := sessions.Load(ctx, in.SessionID)
		if err != nil {
			return in, err
		}
		s.Turn = in
		s.Session = session
		s.Reply = ""
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewMessageBuilderNode combines the turn's text and image with the system instruction.
func NewMessageBuilderNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.ChatTurn) ([]*schema.Message, error) {
		msgs, err := prompts.RenderNutrition(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("build nutrition message: %w", err)
		}
		logx.Debug().
			Str("session_id", in.SessionID).
			Bool("has_image", in.HasImage()).
			Int("image_bytes", len(in.Image)).
			Msg("Nutrition message built")
		return msgs, nil
	})
}

// NewVisionChatModelPostHandler records cost and the reply text.
func NewVisionChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.NutritionGraphState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, s *model.NutritionGraphState) (*schema.Message, error) {
		if out == nil {
			return nil, errx.WrapModel(errors.New("vision model returned no message"))
		}
		s.TotalCostUSD += recordUsage(out, modelName, NodeVisionChatModel, "session_id", s.Turn.SessionID, s.TotalCostUSD)
		s.Reply = out.Content
		return out, nil
	}
}

// NewNutritionExtractorNode scans the reply for calories, protein and sugar.
func NewNutritionExtractorNode(extractor *parsers.Extractor) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *schema.Message) (parsers.Extraction, error) {
		ext := extractor.Extract(reply.Content)
		if len(ext.Rejected) > 0 {
			logx.Warn().Strs("fields", ext.Rejected).Msg("Implausible nutrition values discarded")
		}
		return ext, nil
	})
}

// NewLedgerNode commits the turn and its nutrition to the session in one write.
func NewLedgerNode(sessions model.SessionRepository, now func() time.Time) *compose.Lambda {
	if now == nil {
		now = time.Now
	}
	return compose.InvokableLambda(func(ctx context.Context, ext parsers.Extraction) (model.TurnResult, error) {
		var turn model.ChatTurn
		var reply string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.NutritionGraphState) error {
			turn = s.Turn
			reply = s.Reply
			return nil
		})
		if err != nil {
			return model.TurnResult{}, fmt.Errorf("failed to access state: %w", err)
		}

		ts := now().UTC()
		var mime string
		if turn.HasImage() {
			mime = prompts.NormaliseMIME(turn.MIMEType)
		}
		user := model.NewUserEntry(turn, mime, ts)
		assistant := model.ChatEntry{Role: model.RoleAssistant, Text: reply, CreatedAt: ts}

		updated, err := sessions.Update(ctx, turn.SessionID, func(cur model.ChatSession) (model.ChatSession, error) {
			return cur.Commit(user, assistant, ext.Nutrition), nil
		})
		if err != nil {
			return model.TurnResult{}, err
		}

		logx.Info().
			Str("session_id", turn.SessionID).
			Int("calories", ext.Nutrition.Calories).
			Float64("protein", ext.Nutrition.Protein).
			Float64("sugar", ext.Nutrition.Sugar).
			Int("total_calories", updated.Totals.Calories).
			Msg("Nutrition ledger updated")

		return model.TurnResult{
			SessionID: turn.SessionID,
			Reply:     reply,
			Extracted: ext.Nutrition,
			Rejected:  ext.Rejected,
			Totals:    updated.Totals,
		}, nil
	})
}
