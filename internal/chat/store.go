package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptExt = ".jsonl"

// Session ids become file names, so they are limited to a filesystem-safe
// alphabet with no path separators.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// TranscriptStore persists per-session conversation transcripts.
type TranscriptStore interface {
	Append(ctx context.Context, sessionID string, msg Message) error
	Load(ctx context.Context, sessionID string) ([]Message, error)
	ListSessions(ctx context.Context) ([]string, error)
}

// FileStore keeps one append-only JSON Lines file per session under dir.
// A session's file materializes on its first Append; Load on a session with
// no file returns an empty transcript.
type FileStore struct {
	dir    string
	tracer trace.Tracer
}

// NewFileStore creates the transcript directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("transcript directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		tracer: otel.Tracer("kniteciq.internal.chat.filestore"),
	}, nil
}

// ValidSessionID reports whether id is safe to use as a transcript file name.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+transcriptExt)
}

// Append writes one message to the session's transcript file and syncs it
// to disk before returning.
func (s *FileStore) Append(ctx context.Context, sessionID string, msg Message) error {
	if !ValidSessionID(sessionID) {
		return ErrInvalidSessionID
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal transcript message: %w", err)
	}

	_, span := s.tracer.Start(ctx, "chat.transcript.append")
	defer span.End()

	f, err := os.OpenFile(s.path(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("open transcript file: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		span.RecordError(err)
		f.Close()
		return fmt.Errorf("append transcript message: %w", err)
	}
	if err := f.Sync(); err != nil {
		span.RecordError(err)
		f.Close()
		return fmt.Errorf("sync transcript file: %w", err)
	}
	if err := f.Close(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("close transcript file: %w", err)
	}
	return nil
}

// Load reads the session transcript from disk. A missing file is an empty,
// valid session. Lines that fail to parse are skipped so one bad line does
// not hide the rest of a transcript.
func (s *FileStore) Load(ctx context.Context, sessionID string) ([]Message, error) {
	if !ValidSessionID(sessionID) {
		return nil, ErrInvalidSessionID
	}

	_, span := s.tracer.Start(ctx, "chat.transcript.load")
	defer span.End()

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Message{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("read transcript file: %w", err)
	}

	messages, _ := decodeTranscript(data, false)
	return messages, nil
}

// ListSessions scans the directory fresh on every call and returns the ids
// of well-formed transcripts in sorted order. Files that vanished, hold no
// complete message, or fail to parse are left out.
func (s *FileStore) ListSessions(ctx context.Context) ([]string, error) {
	_, span := s.tracer.Start(ctx, "chat.transcript.list_sessions")
	defer span.End()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scan transcript directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), transcriptExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), transcriptExt)
		if !ValidSessionID(id) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		messages, err := decodeTranscript(data, true)
		if err != nil {
			span.RecordError(err)
			continue
		}
		if len(messages) == 0 {
			continue
		}

		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids, nil
}

// decodeTranscript parses JSON Lines transcript data. In strict mode any
// malformed line fails the whole transcript; otherwise bad lines are
// dropped and the parseable prefix survives.
func decodeTranscript(data []byte, strict bool) ([]Message, error) {
	lines := bytes.Split(data, []byte("\n"))
	messages := make([]Message, 0, len(lines))
	for i, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			if strict {
				return nil, fmt.Errorf("transcript line %d: %w", i+1, err)
			}
			continue
		}
		if msg.Role == "" {
			if strict {
				return nil, fmt.Errorf("transcript line %d: missing role", i+1)
			}
			continue
		}

		messages = append(messages, msg)
	}
	return messages, nil
}
