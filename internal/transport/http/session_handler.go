package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Seashocker17/quiz-arena/internal/app"
	"github.com/Seashocker17/quiz-arena/internal/domain"
)

// SessionHandler exposes the request/response half of the boundary: session
// creation. The push half lives on the websocket handler.
type SessionHandler struct {
	service *app.GameService
	log     zerolog.Logger
}

func NewSessionHandler(service *app.GameService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{service: service, log: log}
}

type createSessionRequest struct {
	HostID        string               `json:"hostId"`
	Settings      *domain.GameSettings `json:"settings"`
	Questions     []domain.Question    `json:"questions"`
	QuestionSetID string               `json:"questionSetId"`
}

type createSessionResponse struct {
	HostID string             `json:"hostId"`
	Code   string             `json:"code"`
	View   domain.SessionView `json:"view"`
}

// CreateSession handles POST /sessions. Questions come either inline or by
// stored set ID; settings default when omitted.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	hostID := req.HostID
	if hostID == "" {
		hostID = uuid.NewString()
	}
	settings := domain.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	var (
		view domain.SessionView
		err  error
	)
	if len(req.Questions) > 0 {
		view, err = h.service.CreateSession(r.Context(), hostID, settings, req.Questions)
	} else if req.QuestionSetID != "" {
		view, err = h.service.CreateSessionFromSet(r.Context(), hostID, settings, req.QuestionSetID)
	} else {
		http.Error(w, "questions or questionSetId required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Msg("create session rejected")
		http.Error(w, err.Error(), statusFromErr(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createSessionResponse{
		HostID: hostID,
		Code:   view.Code,
		View:   view,
	})
}

func statusFromErr(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSettings),
		errors.Is(err, domain.ErrInvalidQuestionSet),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrEmptyRoster),
		errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrSessionNotJoinable):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrQuestionSetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
