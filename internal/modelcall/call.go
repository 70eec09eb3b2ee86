// Package modelcall records scorer invocations for traceability. Every
// Encode+Run round trip is recorded with its batch shape, parameters, and
// outcome, and kept in a bounded in-memory store.
package modelcall

import (
	"time"

	"github.com/google/uuid"
)

// Call is one recorded scorer invocation.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Batch shape and parameters
	Runner    string  `json:"runner"`
	BatchSize int     `json:"batch_size"`
	MaxLength int     `json:"max_length"`
	Threshold float64 `json:"threshold"`

	// Outcome
	Spans   int    `json:"spans"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Begin creates a Call for an invocation that is about to run.
func Begin(runnerName string, batchSize, maxLength int, threshold float64) *Call {
	return &Call{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Runner:    runnerName,
		BatchSize: batchSize,
		MaxLength: maxLength,
		Threshold: threshold,
	}
}

// Finish stamps the outcome onto the call. spans is the total span count
// across the batch; err may be nil.
func (c *Call) Finish(spans int, err error) *Call {
	c.LatencyMs = int(time.Since(c.Timestamp).Milliseconds())
	c.Spans = spans
	c.Success = err == nil
	if err != nil {
		c.Error = err.Error()
	}
	return c
}
