package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/knitec/iq-platform/internal/identity"
	"github.com/knitec/iq-platform/internal/observability/metrics"
	"github.com/knitec/iq-platform/pkg/logging"
)

// SessionStarter opens a questionnaire chat session for a user once their
// contact details are accepted. Implemented by the chat service.
type SessionStarter interface {
	StartSession(ctx context.Context, username string) (string, error)
}

// Handler handles HTTP requests for contact intake
type Handler struct {
	repo     Repository
	sessions SessionStarter
	metrics  *metrics.IntakeMetrics
	logger   *logging.Logger
}

// NewHandler creates a new intake handler
func NewHandler(repo Repository, sessions SessionStarter, m *metrics.IntakeMetrics, logger *logging.Logger) *Handler {
	return &Handler{
		repo:     repo,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}
}

// SubmitResponse is returned when a submission is accepted
type SubmitResponse struct {
	Record        *ContactRecord `json:"record"`
	ChatSessionID string         `json:"chat_session_id,omitempty"`
}

type validationResponse struct {
	Errors []FieldError `json:"errors"`
}

// Submit handles POST /intake requests
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, fieldErrs := ValidateSubmission(req)
	if len(fieldErrs) > 0 {
		h.metrics.ObserveSubmission("rejected")
		h.logger.Info("intake rejected", "username", user.Username, "failing_fields", len(fieldErrs))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(validationResponse{Errors: fieldErrs})
		return
	}

	record.Username = user.Username
	stored, err := h.repo.Create(r.Context(), record)
	if err != nil {
		h.metrics.ObserveSubmission("error")
		h.logger.Error("failed to store submission", "username", user.Username, "error", err)
		http.Error(w, "failed to store submission", http.StatusInternalServerError)
		return
	}

	resp := SubmitResponse{Record: stored}
	if h.sessions != nil {
		sessionID, err := h.sessions.StartSession(r.Context(), user.Username)
		if err != nil {
			// the record is already stored; the client can open a chat later
			h.logger.Error("failed to open chat session", "username", user.Username, "error", err)
		} else {
			resp.ChatSessionID = sessionID
		}
	}

	h.metrics.ObserveSubmission("accepted")
	h.logger.Info("intake accepted",
		"id", stored.ID,
		"username", user.Username,
		"contact_kind", stored.ContactKind)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// Latest handles GET /intake/latest requests
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	record, err := h.repo.LatestByUsername(r.Context(), user.Username)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "no submission on file", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load submission", "username", user.Username, "error", err)
		http.Error(w, "failed to load submission", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}
