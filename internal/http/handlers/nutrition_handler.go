package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jolly-agents/server/internal/agent/graph"
	"github.com/jolly-agents/server/internal/agent/graph/conversations"
	"github.com/jolly-agents/server/internal/agent/model"
)

// bodyHeadroom covers the JSON or multipart framing around the image.
const bodyHeadroom = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

type NutritionHandler struct {
	sessions      *conversations.SessionManager
	runner        graph.NutritionRunner
	timeout       time.Duration
	maxImageBytes int64
}

func NewNutritionHandler(sessions *conversations.SessionManager, runner graph.NutritionRunner, timeout time.Duration, maxImageBytes int64) *NutritionHandler {
	return &NutritionHandler{
		sessions:      sessions,
		runner:        runner,
		timeout:       timeout,
		maxImageBytes: maxImageBytes,
	}
}

type sessionResp struct {
	SessionID string         `json:"session_id"`
	History   []historyEntry `json:"history"`
	Totals    model.Totals   `json:"totals"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// historyEntry tells the client whether an image was sent with a turn.
type historyEntry struct {
	Role      model.Role `json:"role"`
	Text      string     `json:"text"`
	HasImage  bool       `json:"has_image"`
	MIMEType  string     `json:"mime_type,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toSessionResp(s model.ChatSession) sessionResp {
	history := make([]historyEntry, 0, len(s.History))
	for _, e := range s.History {
		history = append(history, historyEntry{
			Role:      e.Role,
			Text:      e.Text,
			HasImage:  e.HasImage(),
			MIMEType:  e.MIMEType,
			CreatedAt: e.CreatedAt,
		})
	}
	return sessionResp{
		SessionID: s.ID,
		History:   history,
		Totals:    s.Totals,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type sendReq struct {
	Text        string `json:"text"`
	ImageBase64 string `json:"image_base64"`
	MIMEType    string `json:"mime_type"`
}

// Create handles POST /api/nutrition/sessions.
func (h *NutritionHandler) Create(c *gin.Context) {
	s, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toSessionResp(s))
}

// Get handles GET /api/nutrition/sessions/:id.
func (h *NutritionHandler) Get(c *gin.Context) {
	s, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toSessionResp(s))
}

// Reset handles POST /api/nutrition/sessions/:id/reset.
func (h *NutritionHandler) Reset(c *gin.Context) {
	s, err := h.sessions.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toSessionResp(s))
}

// End handles DELETE /api/nutrition/sessions/:id.
func (h *NutritionHandler) End(c *gin.Context) {
	if err := h.sessions.End(c.Request.Context(), c.Param("id")); err != nil {
		writeAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Send handles POST /api/nutrition/sessions/:id/messages with either a JSON
// body or a multipart form carrying "text" and an "image" file.
func (h *NutritionHandler) Send(c *gin.Context) {
	sessionID := c.Param("id")
	if err := conversations.ValidateID(sessionID); err != nil {
		writeAppError(c, err)
		return
	}

	turn, err := h.readTurn(c)
	if errors.Is(err, errBodyTooLarge) {
		writeError(c, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	turn.SessionID = sessionID
	if strings.TrimSpace(turn.Text) == "" && !turn.HasImage() {
		writeError(c, http.StatusBadRequest, "missing text or image")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.runner.Send(ctx, turn)
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

// maxBodyBytes bounds a request body: the base64 form of the largest
// accepted image plus framing.
func (h *NutritionHandler) maxBodyBytes() int64 {
	return h.maxImageBytes*4/3 + bodyHeadroom
}

func (h *NutritionHandler) readTurn(c *gin.Context) (model.ChatTurn, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes())
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.readMultipart(c)
	}

	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		if isBodyTooLarge(err) {
			return model.ChatTurn{}, errBodyTooLarge
		}
		return model.ChatTurn{}, errors.New("invalid json")
	}
	turn := model.ChatTurn{Text: req.Text, MIMEType: req.MIMEType}
	if req.ImageBase64 == "" {
		return turn, nil
	}

	data, mime := splitDataURI(req.ImageBase64)
	if mime != "" && turn.MIMEType == "" {
		turn.MIMEType = mime
	}
	if int64(base64.StdEncoding.DecodedLen(len(data))) > h.maxImageBytes+2 {
		return model.ChatTurn{}, fmt.Errorf("image larger than %d bytes", h.maxImageBytes)
	}
	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return model.ChatTurn{}, errors.New("image_base64 is not valid base64")
	}
	if int64(len(img)) > h.maxImageBytes {
		return model.ChatTurn{}, fmt.Errorf("image larger than %d bytes", h.maxImageBytes)
	}
	turn.Image = img
	if turn.MIMEType == "" {
		turn.MIMEType = http.DetectContentType(img)
	}
	return turn, nil
}

func (h *NutritionHandler) readMultipart(c *gin.Context) (model.ChatTurn, error) {
	turn := model.ChatTurn{Text: c.PostForm("text")}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return turn, nil
	}
	if err != nil {
		if isBodyTooLarge(err) {
			return model.ChatTurn{}, errBodyTooLarge
		}
		return model.ChatTurn{}, errors.New("invalid multipart form")
	}
	if fh.Size > h.maxImageBytes {
		return model.ChatTurn{}, fmt.Errorf("image larger than %d bytes", h.maxImageBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return model.ChatTurn{}, errors.New("cannot read image")
	}
	defer f.Close()

	img, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		return model.ChatTurn{}, errors.New("cannot read image")
	}
	if int64(len(img)) > h.maxImageBytes {
		return model.ChatTurn{}, fmt.Errorf("image larger than %d bytes", h.maxImageBytes)
	}

	turn.Image = img
	turn.MIMEType = fh.Header.Get("Content-Type")
	if turn.MIMEType == "" || turn.MIMEType == "application/octet-stream" {
		turn.MIMEType = http.DetectContentType(img)
	}
	return turn, nil
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// splitDataURI strips a "data:<mime>;base64," prefix if present.
func splitDataURI(s string) (data, mime string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return s, ""
	}
	meta, payload, ok := strings.Cut(s, ",")
	if !ok {
		return s, ""
	}
	mime = strings.TrimPrefix(meta, "data:")
	mime, _, _ = strings.Cut(mime, ";")
	return payload, mime
}
