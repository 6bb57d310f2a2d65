package storage

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded proportion optimization.
type Run struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Kind        string    `json:"kind"`
	Sharpe      bool      `json:"sharpe"`
	TotalBudget float64   `json:"total_budget"`
	Proportion  float64   `json:"proportion"`
	Fiction     float64   `json:"fiction"`
	Help        float64   `json:"help"`
	Reading     float64   `json:"reading"`
	Success     bool      `json:"success"`
	Iterations  int       `json:"iterations"`
	Evaluations int       `json:"evaluations"`
	Message     string    `json:"message"`
}

// NewRun returns a run with a fresh id and creation time.
func NewRun() *Run {
	return &Run{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
}

// MarshalJSON encodes a non-finite reading as null.
func (r Run) MarshalJSON() ([]byte, error) {
	type alias Run
	var reading *float64
	if !math.IsNaN(r.Reading) && !math.IsInf(r.Reading, 0) {
		reading = &r.Reading
	}
	return json.Marshal(struct {
		alias
		Reading *float64 `json:"reading"`
	}{alias: alias(r), Reading: reading})
}

// UnmarshalJSON decodes a null reading as NaN.
func (r *Run) UnmarshalJSON(data []byte) error {
	type alias Run
	aux := struct {
		*alias
		Reading *float64 `json:"reading"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Reading = math.NaN()
	if aux.Reading != nil {
		r.Reading = *aux.Reading
	}
	return nil
}

// RunStore records optimization runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	// ListRuns returns up to limit runs, newest first. A non-positive limit
	// returns every run.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
