// audit holds the write-side audit trail models. The guard itself does not
// append audit entries; its callers do, after a successful mutation.
package audit

import (
	"context"
	"time"

	"github.com/ghxstship/recordguard/internal/domain/org"
	"github.com/ghxstship/recordguard/internal/domain/record"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Entry describes one accepted mutation of a record
type Entry struct {
	Op       Op
	Org      org.Id
	RecordID record.Id
	Kind     record.Kind
	// Version the record carried after the mutation was accepted. Empty
	// for deletes, which leave no version behind.
	Version string
	At      time.Time
}

// Recorder persists audit Entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Janitor removes audit Entries that have aged out of retention.
type Janitor interface {
	SweepExpired(ctx context.Context, now time.Time) error
}
