package attempts

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JaimeStill/speakeval/pkg/handlers"
)

const (
	streamReadLimit   = 16 << 10
	streamIdleTimeout = 2 * time.Minute
	streamWriteWait   = 10 * time.Second
)

type streamMessage struct {
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
}

type streamReply struct {
	QuestionID        uuid.UUID `json:"question_id,omitempty"`
	CurrentTranscript string    `json:"current_transcript,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// Stream upgrades to a websocket that appends transcript chunks for the
// attempt named by the attempt_id query parameter. Each inbound
// {question_id, text} message is answered with the updated transcript or
// an error; errors do not close the connection.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	attemptID, err := uuid.Parse(r.URL.Query().Get("attempt_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingFields)
		return
	}

	if _, err := h.sys.Info(r.Context(), userID, attemptID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(streamReadLimit)
	logger := h.logger.With("attempt_id", attemptID)
	logger.Debug("transcript stream opened")

	for {
		conn.SetReadDeadline(time.Now().Add(streamIdleTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				logger.Warn("transcript stream read error", "error", err)
			}
			return
		}

		reply := h.appendChunk(r, userID, attemptID, data)

		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("transcript stream write error", "error", err)
			return
		}
	}
}

func (h *Handler) appendChunk(r *http.Request, userID, attemptID uuid.UUID, data []byte) streamReply {
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return streamReply{Error: "invalid message"}
	}

	update, err := h.sys.AppendTranscript(r.Context(), userID, AppendCommand{
		AnswerRef: AnswerRef{AttemptID: attemptID, QuestionID: msg.QuestionID},
		Text:      msg.Text,
	})
	if err != nil {
		return streamReply{QuestionID: msg.QuestionID, Error: err.Error()}
	}

	return streamReply{QuestionID: msg.QuestionID, CurrentTranscript: update.CurrentTranscript}
}

// OriginChecker allows same-host websocket handshakes, requests without an
// Origin header, and the listed cross-origin hosts ("*" allows any).
func OriginChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(origins, "*") || slices.Contains(origins, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return r.Host != "" && u.Host == r.Host
	}
}
