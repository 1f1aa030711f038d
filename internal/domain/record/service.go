package record

import (
	"context"
	"fmt"

	"github.com/ghxstship/recordguard/internal/domain/metadata"
	"github.com/ghxstship/recordguard/internal/domain/org"
)

// A Service that takes care of the persistence of Records.
//
// All operations are scoped to a single org; a record that exists under a
// different org is indistinguishable from one that does not exist at all.
type Service interface {
	// Persists the given NewRecord, initialising its version.
	Create(ctx context.Context, record *NewRecord) (*Record, error)

	// Retrieves a Record by Id within the given org. Returns NotFound if
	// there is no such record in that scope.
	Get(ctx context.Context, org org.Id, recordId Id) (*Record, error)

	// Update merges the given patch into the record identified by
	// (org, recordId) and advances its version.
	//
	// If clientVersion is non-nil, the write is conditional: it only goes
	// through when the stored version still equals clientVersion, enforced
	// by the store in the same atomic operation as the write itself. A
	// mismatch returns InvalidVersion carrying the authoritative server
	// version and the current record, and nothing is written.
	//
	// If clientVersion is nil, the write is unconditional (used for
	// system-initiated corrections, never user edits): it re-reads and
	// retries through transient conflicts, and still advances the version.
	Update(ctx context.Context, org org.Id, recordId Id, patch Patch, clientVersion *metadata.Version) (*Record, error)

	// Delete removes the record identified by (org, recordId), with the
	// same conditional semantics as Update. Returns the record as it was
	// just before deletion; subsequent operations on the same id return
	// NotFound.
	Delete(ctx context.Context, org org.Id, recordId Id, clientVersion *metadata.Version) (*Record, error)

	// All returns every non-deleted Record in the given org, sorted by id.
	All(ctx context.Context, org org.Id) ([]Record, error)
}

// <-- Domain Errors

// ServiceErr is an error interface for Service
type ServiceErr interface {
	error
	Id() Id
}

type WrappingErr interface {
	error
	Unwrap() error
}

// NotFound is returned when there is no record with the given Id inside
// the given org scope
type NotFound struct {
	ID  Id
	Org org.Id
}

func (e NotFound) Error() string {
	return fmt.Sprintf("Could not find [%v] in org [%v]", e.ID, e.Org)
}

func (e NotFound) Id() Id {
	return e.ID
}

// InvalidVersion is returned when the caller's version token no longer
// matches the persisted version. It carries the authoritative server
// version and the current record so the caller can merge or re-render
// before retrying.
type InvalidVersion struct {
	ID            Id
	Org           org.Id
	ServerVersion metadata.Version
	Current       *Record
}

func (e InvalidVersion) Error() string {
	return fmt.Sprintf("Version provided did not match persisted version for [%v]", e.ID)
}

func (e InvalidVersion) Id() Id {
	return e.ID
}

// AlreadyExists is returned when the service tries to create
// a Record, but there already exists one with the same ID
type AlreadyExists struct {
	ID Id
}

func (e AlreadyExists) Error() string {
	return fmt.Sprintf("Record with Id [%v] already exists ", e.ID)
}

func (e AlreadyExists) Id() Id {
	return e.ID
}

// Invalid data
type InvalidPersistedData struct {
	PersistedData interface{}
}

func (e InvalidPersistedData) Error() string {
	return fmt.Sprintf("Invalid persisted data [%v]", e.PersistedData)
}

//     Errors -->
