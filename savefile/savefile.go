// Package savefile implements the append-only JSONL operation journal:
// every operation applied through the core is recorded as one SaveEntry
// per line, and the journal can be replayed against a fresh store to
// reconstruct state.
package savefile

import (
	"fmt"
	"time"

	"github.com/stigctl/engine/apply"
)

// OperationStatus is the terminal status of the operation a SaveEntry
// records.
type OperationStatus string

const (
	StatusSuccess   OperationStatus = "success"
	StatusFailed    OperationStatus = "failed"
	StatusPartial   OperationStatus = "partial"
	StatusCancelled OperationStatus = "cancelled"
)

// Metadata carries the operation's context: where it came from, who asked
// for it, and how it went.
type Metadata struct {
	Source     string          `json:"source"`
	Initiator  string          `json:"initiator,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Context    any             `json:"context,omitempty"`
	DurationMS *int64          `json:"duration_ms,omitempty"`
	Status     OperationStatus `json:"status"`
}

// RestAPI builds metadata for an operation that arrived over HTTP.
func RestAPI(requestID string) Metadata {
	return Metadata{Source: "REST API", RequestID: requestID, Status: StatusSuccess}
}

// Internal builds metadata for an operation triggered by internal logic
// rather than a client request.
func Internal(initiator string) Metadata {
	return Metadata{Source: "Internal", Initiator: initiator, Status: StatusSuccess}
}

// System builds metadata for an operation performed by the system itself,
// such as savefile replay.
func System() Metadata {
	return Metadata{Source: "System", Status: StatusSuccess}
}

// WithStatus returns a copy of m with Status set.
func (m Metadata) WithStatus(status OperationStatus) Metadata {
	m.Status = status
	return m
}

// SaveEntry is one line of the journal: an operation plus the context it
// ran in.
type SaveEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Operation apply.Operation `json:"operation"`
	Metadata  Metadata        `json:"metadata"`
}

var nowFunc = time.Now

var idCounter uint64

// nextID mints a monotonically distinguishable entry ID. It is not
// required to be globally unique, only distinguishable within one
// process's journal for debugging.
func nextID() string {
	idCounter++
	return fmt.Sprintf("save_%d_%d", nowFunc().UnixNano(), idCounter)
}

// NewEntry builds a SaveEntry with a generated ID and the current time.
func NewEntry(operation apply.Operation, metadata Metadata) SaveEntry {
	return SaveEntry{ID: nextID(), Timestamp: nowFunc(), Operation: operation, Metadata: metadata}
}

// IsSuccess reports whether the entry's recorded status is Success.
func (e SaveEntry) IsSuccess() bool { return e.Metadata.Status == StatusSuccess }
