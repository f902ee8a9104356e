package attempts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JaimeStill/speakeval/internal/auth"
	"github.com/JaimeStill/speakeval/pkg/handlers"
	"github.com/JaimeStill/speakeval/pkg/routes"
)

// multipartMemory is the in-memory part of a parsed upload; larger files
// spill to disk.
const multipartMemory = 8 << 20

type Handler struct {
	sys       System
	logger    *slog.Logger
	maxUpload int64
	upgrader  websocket.Upgrader
}

// NewHandler creates the attempt handler. origins lists cross-origin hosts
// allowed to open the transcript stream in addition to the serving host.
func NewHandler(sys System, logger *slog.Logger, maxUpload int64, origins []string) *Handler {
	return &Handler{
		sys:       sys,
		logger:    logger,
		maxUpload: maxUpload,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     OriginChecker(origins),
		},
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "",
		Tags:        []string{"Attempts"},
		Description: "Exam attempts, answers and live transcripts",
		Children: []routes.Group{
			{
				Prefix: "/attempts/{id}",
				Tags:   []string{"Attempts"},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/info", Handler: h.Info, OpenAPI: Spec.Info},
					{Method: "GET", Pattern: "/current", Handler: h.Current, OpenAPI: Spec.Current},
					{Method: "GET", Pattern: "/results", Handler: h.Results, OpenAPI: Spec.Results},
				},
			},
			{
				Prefix: "",
				Tags:   []string{"Answers"},
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/evaluate-answer", Handler: h.Evaluate, OpenAPI: Spec.Evaluate},
					{Method: "POST", Pattern: "/submit-answer", Handler: h.Submit, OpenAPI: Spec.Submit},
					{Method: "POST", Pattern: "/skip-question", Handler: h.Skip, OpenAPI: Spec.Skip},
					{Method: "POST", Pattern: "/move-next", Handler: h.MoveNext, OpenAPI: Spec.MoveNext},
					{Method: "POST", Pattern: "/voice-command", Handler: h.VoiceCommand, OpenAPI: Spec.VoiceCommand},
					{Method: "POST", Pattern: "/complete-exam", Handler: h.Complete, OpenAPI: Spec.Complete},
					{Method: "POST", Pattern: "/end-exam", Handler: h.End, OpenAPI: Spec.End},
				},
			},
			{
				Prefix: "/transcript",
				Tags:   []string{"Transcript"},
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/append", Handler: h.Append, OpenAPI: Spec.Append},
					{Method: "GET", Pattern: "/stream", Handler: h.Stream, OpenAPI: Spec.Stream},
				},
			},
		},
	}
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	h.byAttempt(w, r, func(userID, attemptID uuid.UUID) (any, error) {
		return h.sys.Info(r.Context(), userID, attemptID)
	})
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	h.byAttempt(w, r, func(userID, attemptID uuid.UUID) (any, error) {
		return h.sys.Current(r.Context(), userID, attemptID)
	})
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	h.byAttempt(w, r, func(userID, attemptID uuid.UUID) (any, error) {
		return h.sys.Results(r.Context(), userID, attemptID)
	})
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd EvaluateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Evaluate(r.Context(), userID, cmd)
	h.respond(w, result, err)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: no audio file provided", ErrAudio))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	ref, err := parseAnswerRef(r.FormValue("attempt_id"), r.FormValue("question_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Submit(r.Context(), userID, SubmitCommand{
		AnswerRef:   ref,
		Audio:       audio,
		ContentType: header.Header.Get("Content-Type"),
	})
	h.respond(w, result, err)
}

func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd AppendCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.AppendTranscript(r.Context(), userID, cmd)
	h.respond(w, result, err)
}

func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var ref AnswerRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Skip(r.Context(), userID, ref)
	h.respond(w, result, err)
}

func (h *Handler) MoveNext(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var cmd MoveNextCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.MoveNext(r.Context(), userID, cmd)
	h.respond(w, result, err)
}

// VoiceCommand dispatches a spoken navigation phrase to Skip, MoveNext or
// End and answers with that operation's response.
func (h *Handler) VoiceCommand(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req VoiceCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil || req.Command == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingFields)
		return
	}

	cmd, err := ParseCommand(req.Command)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.logger.Debug("voice command", "command", cmd, "attempt_id", req.AttemptID)

	switch cmd {
	case CommandSkip:
		result, err := h.sys.Skip(r.Context(), userID, req.AnswerRef)
		h.respond(w, result, err)
	case CommandNext:
		result, err := h.sys.MoveNext(r.Context(), userID, MoveNextCommand{
			AnswerRef:  req.AnswerRef,
			SpokenText: req.SpokenText,
		})
		h.respond(w, result, err)
	case CommandEnd:
		result, err := h.sys.End(r.Context(), userID, req.AttemptID)
		h.respond(w, result, err)
	}
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var ref AttemptRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Complete(r.Context(), userID, ref.AttemptID)
	h.respond(w, result, err)
}

func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var ref AttemptRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.End(r.Context(), userID, ref.AttemptID)
	h.respond(w, result, err)
}

func (h *Handler) byAttempt(w http.ResponseWriter, r *http.Request, fn func(userID, attemptID uuid.UUID) (any, error)) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	attemptID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := fn(userID, attemptID)
	h.respond(w, result, err)
}

func (h *Handler) respond(w http.ResponseWriter, result any, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrInvalidToken)
	}
	return id, ok
}

func parseAnswerRef(attemptID, questionID string) (AnswerRef, error) {
	if attemptID == "" || questionID == "" {
		return AnswerRef{}, ErrMissingFields
	}
	a, err := uuid.Parse(attemptID)
	if err != nil {
		return AnswerRef{}, fmt.Errorf("attempt_id: %w", err)
	}
	q, err := uuid.Parse(questionID)
	if err != nil {
		return AnswerRef{}, fmt.Errorf("question_id: %w", err)
	}
	return AnswerRef{AttemptID: a, QuestionID: q}, nil
}
