package record

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ghxstship/recordguard/internal/domain/metadata"
	"github.com/ghxstship/recordguard/internal/domain/org"
)

type JsonObj map[string]interface{}

// Id for a record that has been persisted
type Id string

// Generates a random id
func GenerateId() Id {
	return Id(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// Kind names the business entity family a record belongs to (project,
// invoice, person, ...). The guard does not interpret it.
type Kind string

// Fields is the free-form business payload of a record
type Fields JsonObj

// Patch is a partial field map merged into a record's Fields on update
type Patch JsonObj

// A Record that has yet to be created
type NewRecord struct {
	Org    org.Id
	Kind   Kind
	Fields *Fields
}

// A Record that has already been persisted.
//
// A Record is identified uniquely by its ID and Org, and versioned
// according to its Metadata Version. Writes are only accepted when the
// caller proves it observed the current Version (or explicitly forces
// the write by not supplying one).
type Record struct {
	ID       Id
	Org      org.Id
	Kind     Kind
	Fields   *Fields
	Metadata metadata.Metadata
}

// ApplyPatch merges the given partial field map into the Record's Fields.
// Existing keys are overwritten, other keys are left alone.
func (r *Record) ApplyPatch(patch Patch) {
	if len(patch) == 0 {
		return
	}
	var fields Fields
	if r.Fields != nil {
		fields = *r.Fields
	} else {
		fields = make(Fields, len(patch))
	}
	for k, v := range patch {
		fields[k] = v
	}
	r.Fields = &fields
}
