package pipeline

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/teigest/internal/report"
)

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	StatusPending      RunStatus = "pending"
	StatusParsing      RunStatus = "parsing"
	StatusBuilding     RunStatus = "building"
	StatusTagging      RunStatus = "tagging"
	StatusTransforming RunStatus = "transforming"
	StatusReporting    RunStatus = "reporting"
	StatusCompleted    RunStatus = "completed"
	StatusFailed       RunStatus = "failed"
)

// Run tracks one invocation of one or more stages over a single input.
type Run struct {
	ID          string        `json:"run_id"`
	Input       string        `json:"input"`
	Status      RunStatus     `json:"status"`
	Phase       string        `json:"phase"`
	ContentHash string        `json:"content_hash,omitempty"`
	Outputs     []string      `json:"outputs"`
	Errors      []string      `json:"errors"`
	Report      *report.Stats `json:"report,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewRun starts tracking a run over input.
func NewRun(input string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.NewString(),
		Input:     input,
		Status:    StatusPending,
		Phase:     "pending",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus moves the run to status.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// Fail records err and marks the run failed in the current phase.
func (r *Run) Fail(err error) {
	r.Errors = append(r.Errors, err.Error())
	r.SetStatus(StatusFailed, r.Phase)
}

// AddOutput records a written artifact.
func (r *Run) AddOutput(path string) {
	r.Outputs = append(r.Outputs, path)
	r.UpdatedAt = time.Now()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
