package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/moyam/chatbot/internal/domain"
)

// TranscriptConfig controls NDJSON transcript delivery.
type TranscriptConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

type transcriptJob struct {
	sessionID string
	messages  []domain.Message
}

// TranscriptWriter writes one NDJSON file per session under Dir. Writes
// happen on a single background goroutine fed by a bounded queue; when
// the queue is full the transcript is dropped with a warning rather than
// blocking the caller.
type TranscriptWriter struct {
	cfg    TranscriptConfig
	queue  chan transcriptJob
	done   chan struct{}
	closed sync.Once
}

// NewTranscriptWriter creates the writer and starts its worker.
func NewTranscriptWriter(cfg TranscriptConfig) (*TranscriptWriter, error) {
	if !cfg.Enabled {
		return &TranscriptWriter{cfg: cfg}, nil
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	w := &TranscriptWriter{
		cfg:   cfg,
		queue: make(chan transcriptJob, cfg.QueueSize),
		done:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Deliver enqueues a transcript for writing. Never blocks.
func (w *TranscriptWriter) Deliver(_ context.Context, sessionID string, transcript []domain.Message) error {
	if !w.cfg.Enabled || len(transcript) == 0 {
		return nil
	}

	select {
	case w.queue <- transcriptJob{sessionID: sessionID, messages: transcript}:
		return nil
	default:
		slog.Warn("Transcript queue full, dropping transcript", "session_id", sessionID)
		return nil
	}
}

// Close stops accepting transcripts and flushes the queue.
func (w *TranscriptWriter) Close() error {
	if !w.cfg.Enabled {
		return nil
	}
	w.closed.Do(func() {
		close(w.queue)
		<-w.done
	})
	return nil
}

func (w *TranscriptWriter) run() {
	defer close(w.done)
	for job := range w.queue {
		if err := w.write(job); err != nil {
			slog.Warn("Failed to write transcript", "session_id", job.sessionID, "error", err)
		}
	}
}

func (w *TranscriptWriter) write(job transcriptJob) error {
	path := filepath.Join(w.cfg.Dir, job.sessionID+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, m := range job.messages {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode transcript line: %w", err)
		}
	}
	return nil
}
