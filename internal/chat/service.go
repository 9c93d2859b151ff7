package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/knitec/iq-platform/internal/observability/metrics"
	"github.com/knitec/iq-platform/pkg/logging"
)

var chatTracer = otel.Tracer("kniteciq.internal.chat")

const defaultModelTimeout = 30 * time.Second

// emptyReplyText stands in for assistant turns where the model succeeded
// but came back with no text.
const emptyReplyText = "(No response.)"

// SessionInfo describes one stored chat session.
type SessionInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Reply is the outcome of one successful chat turn.
type Reply struct {
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Service runs the questionnaire conversation. It owns transcript
// persistence around each model call plus the session ownership and
// listing rules.
type Service struct {
	store    TranscriptStore
	llm      LLMClient
	model    string
	system   string
	greeting string
	timeout  time.Duration
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger

	mu    sync.Mutex
	turns map[string]*sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithSystemPrompt replaces the default questionnaire instructions.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) {
		if strings.TrimSpace(prompt) != "" {
			s.system = prompt
		}
	}
}

// WithGreeting replaces the opener shown when a session starts.
func WithGreeting(greeting string) Option {
	return func(s *Service) {
		if strings.TrimSpace(greeting) != "" {
			s.greeting = greeting
		}
	}
}

// WithModel sets the model id passed to the LLM client.
func WithModel(model string) Option {
	return func(s *Service) {
		if strings.TrimSpace(model) != "" {
			s.model = model
		}
	}
}

// WithModelTimeout bounds each model call.
func WithModelTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics attaches chat metrics.
func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates the chat service.
func NewService(store TranscriptStore, llm LLMClient, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("chat: transcript store cannot be nil")
	}
	if llm == nil {
		panic("chat: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Service{
		store:    store,
		llm:      llm,
		system:   DefaultSystemPrompt,
		greeting: DefaultGreeting,
		timeout:  defaultModelTimeout,
		logger:   logger,
		turns:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Greeting is the opener shown when a session starts. It never enters the
// transcript, which keeps stored turns strictly alternating from the
// user's first message.
func (s *Service) Greeting() string {
	return s.greeting
}

// StartSession mints a new session id for username. Nothing is written to
// disk until the first message arrives.
func (s *Service) StartSession(ctx context.Context, username string) (string, error) {
	if err := checkUsername(username); err != nil {
		return "", err
	}

	id := NewSessionID(username)
	s.logger.Info("chat session opened", "session_id", id, "username", username)
	return id, nil
}

// ProcessMessage runs one chat turn. The user message is persisted first,
// the model is called with the full transcript, and the assistant reply is
// persisted only when the call succeeds. A failed call leaves the user
// message in place and nothing else.
func (s *Service) ProcessMessage(ctx context.Context, username, sessionID, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.checkAccess(username, sessionID); err != nil {
		return nil, err
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	ctx, span := chatTracer.Start(ctx, "chat.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("kniteciq.session_id", sessionID),
		attribute.String("kniteciq.username", username),
	)

	userMsg := Message{Role: RoleUser, Content: text, Timestamp: time.Now().UTC()}
	if err := s.store.Append(ctx, sessionID, userMsg); err != nil {
		span.RecordError(err)
		s.metrics.ObserveTurn("storage_error")
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	history, err := s.store.Load(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTurn("storage_error")
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	reply, err := s.generateReply(ctx, history)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTurn("model_error")
		s.logger.Error("model call failed, user message kept",
			"session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrModelRequest, err)
	}

	assistantMsg := Message{Role: RoleAssistant, Content: reply, Timestamp: time.Now().UTC()}
	if err := s.store.Append(ctx, sessionID, assistantMsg); err != nil {
		span.RecordError(err)
		s.metrics.ObserveTurn("storage_error")
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	s.metrics.ObserveTurn("ok")
	s.logger.Info("chat turn complete", "session_id", sessionID, "messages", len(history)+1)

	return &Reply{SessionID: sessionID, Message: reply, Timestamp: assistantMsg.Timestamp}, nil
}

// History returns the stored transcript for one of username's sessions. A
// session with no file yet reads as empty.
func (s *Service) History(ctx context.Context, username, sessionID string) ([]Message, error) {
	if err := s.checkAccess(username, sessionID); err != nil {
		return nil, err
	}
	return s.store.Load(ctx, sessionID)
}

// ListSessions reports username's stored sessions, newest activity first.
// The scan is fresh on every call, so transcripts deleted or corrupted on
// disk drop out of the list without error.
func (s *Service) ListSessions(ctx context.Context, username string) ([]SessionInfo, error) {
	if err := checkUsername(username); err != nil {
		return nil, err
	}

	ids, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(ids))
	for _, id := range ids {
		if !OwnedBy(id, username) {
			continue
		}
		messages, err := s.store.Load(ctx, id)
		if err != nil {
			continue
		}

		info := SessionInfo{
			ID:           id,
			Title:        TitleFor(id, messages),
			MessageCount: len(messages),
		}
		if n := len(messages); n > 0 {
			info.UpdatedAt = messages[n-1].Timestamp
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

func (s *Service) generateReply(ctx context.Context, history []Message) (string, error) {
	ctx, span := chatTracer.Start(ctx, "chat.model")
	defer span.End()

	req := LLMRequest{
		Model:    s.model,
		System:   []string{s.system},
		Messages: history,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.Complete(callCtx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveModelLatency("error", elapsed)
		return "", err
	}
	s.metrics.ObserveModelLatency("ok", elapsed)

	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		reply = emptyReplyText
	}
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Int("kniteciq.model.total_tokens", int(resp.Usage.TotalTokens)),
			attribute.String("kniteciq.model.stop_reason", resp.StopReason),
		)
	}
	return reply, nil
}

func (s *Service) checkAccess(username, sessionID string) error {
	if err := checkUsername(username); err != nil {
		return err
	}
	if !ValidSessionID(sessionID) {
		return ErrInvalidSessionID
	}
	if !OwnedBy(sessionID, username) {
		return ErrSessionForbidden
	}
	return nil
}

func checkUsername(username string) error {
	if username == "" || strings.ContainsRune(username, '_') || !ValidSessionID(username) {
		return ErrInvalidUsername
	}
	return nil
}

// lockSession serializes turns per session id so two concurrent turns
// cannot interleave their transcript writes.
func (s *Service) lockSession(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.turns[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.turns[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
