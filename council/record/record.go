// Package record keeps the outcome of an election for later inspection.
//
// The protocol itself never reads anything back from here: every member boots
// with blank acceptor and learner state, and correctness does not depend on
// what a previous run recorded. The store is a write-side ledger so that an
// operator (or a test) can ask a node what it decided, even after the fact
// when sqlite or redis is configured.
package record

import (
	"fmt"
	"time"

	"go-council/council/config"
)

// Decision is one recorded election outcome.
type Decision struct {
	Value     string    // the elected member id
	Ballot    string    // textual ballot number the decision was reached on
	DecidedAt time.Time // local time of the announcement
}

// Store records decisions. Implementations must be safe for concurrent use;
// the learner writes from whichever worker crossed the quorum.
type Store interface {
	// SaveDecision records d, replacing any earlier record.
	SaveDecision(d Decision) error

	// LastDecision returns the most recent record, if any.
	LastDecision() (Decision, bool, error)

	// Close releases the backend connection. Idempotent.
	Close() error
}

// Open builds the store selected by the settings' RECORD_BACKEND.
func Open(s config.Settings) (Store, error) {
	switch s.RECORD_BACKEND {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(s.DB_PATH)
	case "redis":
		return OpenRedis(s.REDIS_ADDR, s.REDIS_PASSWORD, s.REDIS_DB)
	default:
		return nil, fmt.Errorf("record: unknown backend %q", s.RECORD_BACKEND)
	}
}
