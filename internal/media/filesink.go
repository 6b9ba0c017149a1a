package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSink is the default collaborator: it writes each handoff request to
// disk for an external renderer to pick up later. Replacing a FileSink
// with a live integration is a Register call, nothing upstream changes.
type FileSink struct {
	dir  string
	kind Kind
}

// NewFileSink creates a FileSink writing under dir.
func NewFileSink(dir string, kind Kind) *FileSink {
	return &FileSink{dir: dir, kind: kind}
}

type handoffFile struct {
	SessionID string            `json:"session_id"`
	Phase     int               `json:"phase"`
	PhaseName string            `json:"phase_name"`
	Kind      Kind              `json:"kind"`
	Payload   string            `json:"payload"`
	Params    map[string]string `json:"params,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Submit writes the request as a JSON file named after its phase and kind.
func (s *FileSink) Submit(ctx context.Context, req Request) (*Result, error) {
	sessionDir := filepath.Join(s.dir, req.SessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("create handoff dir: %w", err)
	}

	data, err := json.MarshalIndent(handoffFile{
		SessionID: req.SessionID,
		Phase:     req.Phase,
		PhaseName: req.PhaseName,
		Kind:      s.kind,
		Payload:   req.Payload,
		Params:    req.Params,
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode handoff: %w", err)
	}

	path := filepath.Join(sessionDir, fmt.Sprintf("%02d-%s.json", req.Phase, s.kind))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write handoff: %w", err)
	}

	return &Result{URI: "file://" + path, Detail: "queued for external rendering"}, nil
}
