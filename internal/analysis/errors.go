package analysis

import "fmt"

// EngineError is a sentinel error type for aggregation failures.
type EngineError string

func (e EngineError) Error() string { return string(e) }

const (
	// ErrInvalidInput indicates malformed top-level input (bad window or
	// limit). Per-record problems are dropped, never raised.
	ErrInvalidInput EngineError = "invalid input"
)

// ConsistencyError reports a transaction whose buyer/seller direction matches
// neither side of its own pair key. Two-party transactions make this
// impossible by construction, so hitting it means the normalizer let a
// corrupt record through.
type ConsistencyError struct {
	PairKey       string
	TransactionID string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("transaction %s does not match either direction of pair %s", e.TransactionID, e.PairKey)
}
