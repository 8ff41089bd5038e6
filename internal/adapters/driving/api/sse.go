package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
)

var _ driving.AnswerSink = (*sseSink)(nil)

// sseSink writes an answer as server-sent events: one "citations"
// event carrying the retrieval result, then a "token" event per
// generated fragment, closed by "done" or "error".
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSESink(w http.ResponseWriter) (*sseSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseSink{w: w, flusher: flusher}, nil
}

// Citations sends the retrieval result before any tokens.
func (s *sseSink) Citations(result *domain.RetrievalResult) error {
	payload, err := json.Marshal(toResponse(result))
	if err != nil {
		return fmt.Errorf("encoding citations: %w", err)
	}
	return s.event("citations", string(payload))
}

// Token sends one generated fragment.
func (s *sseSink) Token(token string) error {
	payload, err := json.Marshal(map[string]string{"text": token})
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return s.event("token", string(payload))
}

// Done closes the stream cleanly.
func (s *sseSink) Done() {
	s.event("done", "{}")
}

// Error reports an in-stream failure after headers have been sent.
func (s *sseSink) Error(err error) {
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return
	}
	s.event("error", string(payload))
}

func (s *sseSink) event(name, data string) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
