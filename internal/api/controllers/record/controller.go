package record

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ghxstship/recordguard/internal/api/models/common"
	"github.com/ghxstship/recordguard/internal/api/models/record"
	"github.com/ghxstship/recordguard/internal/domain/audit"
	"github.com/ghxstship/recordguard/internal/domain/flag"
	"github.com/ghxstship/recordguard/internal/domain/metadata"
	"github.com/ghxstship/recordguard/internal/domain/org"
	domainRecord "github.com/ghxstship/recordguard/internal/domain/record"
	"github.com/ghxstship/recordguard/internal/domain/realtime"
)

// Error type discriminators surfaced in response bodies
const (
	ErrTypeNotFound     = "not_found"
	ErrTypeConflict     = "conflict"
	ErrTypeStorageError = "storage_error"
)

type Controller interface {

	// Create returns a Record based on the passed in NewRecord
	Create(ctx context.Context, newRecord *record.NewRecord) (*record.Record, *common.ApiError)

	// Get returns a Record by org and id
	Get(ctx context.Context, orgId org.Id, recordId domainRecord.Id) (*record.Record, *common.ApiError)

	// List returns all Records in an org
	List(ctx context.Context, orgId org.Id) ([]record.Record, *common.ApiError)

	// Update patches a Record, conditionally on clientVersion when one is
	// given, and returns the updated Record
	Update(ctx context.Context, orgId org.Id, recordId domainRecord.Id, update *record.RecordUpdate, clientVersion *metadata.Version) (*record.Record, *common.ApiError)

	// Delete deletes a Record, conditionally on clientVersion when one is
	// given, and returns the Record as it was just before deletion
	Delete(ctx context.Context, orgId org.Id, recordId domainRecord.Id, clientVersion *metadata.Version) (*record.Record, *common.ApiError)
}

func New(recordsService domainRecord.Service, auditRecorder audit.Recorder, changesHub *realtime.Hub, flags flag.Registry) Controller {
	return &impl{
		recordsService: recordsService,
		auditRecorder:  auditRecorder,
		changesHub:     changesHub,
		flags:          flags,
		getNowUtc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type impl struct {
	recordsService domainRecord.Service

	auditRecorder audit.Recorder

	changesHub *realtime.Hub

	flags flag.Registry

	getNowUtc func() time.Time
}

func (c *impl) Create(ctx context.Context, newRecord *record.NewRecord) (*record.Record, *common.ApiError) {
	domainNewRecord := newRecord.ToDomainNewRecord()
	result, err := c.recordsService.Create(ctx, &domainNewRecord)
	if err != nil {
		return nil, handleErr(err)
	} else {
		c.recordMutation(ctx, audit.OpCreated, result)
		r := record.FromDomainRecord(result)
		return &r, nil
	}
}

func (c *impl) Get(ctx context.Context, orgId org.Id, recordId domainRecord.Id) (*record.Record, *common.ApiError) {
	result, err := c.recordsService.Get(ctx, orgId, recordId)
	if err != nil {
		return nil, handleErr(err)
	} else {
		r := record.FromDomainRecord(result)
		return &r, nil
	}
}

func (c *impl) List(ctx context.Context, orgId org.Id) ([]record.Record, *common.ApiError) {
	results, err := c.recordsService.All(ctx, orgId)
	if err != nil {
		return nil, handleErr(err)
	} else {
		apiRecords := make([]record.Record, 0, len(results))
		for i := range results {
			apiRecords = append(apiRecords, record.FromDomainRecord(&results[i]))
		}
		return apiRecords, nil
	}
}

func (c *impl) Update(ctx context.Context, orgId org.Id, recordId domainRecord.Id, update *record.RecordUpdate, clientVersion *metadata.Version) (*record.Record, *common.ApiError) {
	result, err := c.recordsService.Update(ctx, orgId, recordId, update.Fields, clientVersion)
	if err != nil {
		return nil, handleErr(err)
	} else {
		c.recordMutation(ctx, audit.OpUpdated, result)
		r := record.FromDomainRecord(result)
		return &r, nil
	}
}

func (c *impl) Delete(ctx context.Context, orgId org.Id, recordId domainRecord.Id, clientVersion *metadata.Version) (*record.Record, *common.ApiError) {
	result, err := c.recordsService.Delete(ctx, orgId, recordId, clientVersion)
	if err != nil {
		return nil, handleErr(err)
	} else {
		c.recordDeletion(ctx, result)
		r := record.FromDomainRecord(result)
		return &r, nil
	}
}

// recordMutation appends the audit entry and publishes a change event for an
// accepted create or update. Failures here are logged, never surfaced; the
// mutation itself has already been accepted by the store.
func (c *impl) recordMutation(ctx context.Context, op audit.Op, mutated *domainRecord.Record) {
	now := c.getNowUtc()
	entry := audit.Entry{
		Op:       op,
		Org:      mutated.Org,
		RecordID: mutated.ID,
		Kind:     mutated.Kind,
		Version:  mutated.Metadata.Version.Token(),
		At:       now,
	}
	if err := c.auditRecorder.Record(ctx, entry); err != nil {
		log.Error().
			Err(err).
			Str("op", string(op)).
			Str("org", string(mutated.Org)).
			Str("recordId", string(mutated.ID)).
			Msg("Failed to append audit entry")
	}
	if c.flags.IsEnabledFor(flag.RealtimeChanges, string(mutated.Org)) {
		c.changesHub.Publish(realtime.Event{
			Org:      mutated.Org,
			RecordID: mutated.ID,
			Kind:     mutated.Kind,
			Op:       string(op),
			Version:  mutated.Metadata.Version.Token(),
			At:       now,
		})
	}
}

func (c *impl) recordDeletion(ctx context.Context, deleted *domainRecord.Record) {
	now := c.getNowUtc()
	entry := audit.Entry{
		Op:       audit.OpDeleted,
		Org:      deleted.Org,
		RecordID: deleted.ID,
		Kind:     deleted.Kind,
		At:       now,
	}
	if err := c.auditRecorder.Record(ctx, entry); err != nil {
		log.Error().
			Err(err).
			Str("op", string(audit.OpDeleted)).
			Str("org", string(deleted.Org)).
			Str("recordId", string(deleted.ID)).
			Msg("Failed to append audit entry")
	}
	if c.flags.IsEnabledFor(flag.RealtimeChanges, string(deleted.Org)) {
		c.changesHub.Publish(realtime.Event{
			Org:      deleted.Org,
			RecordID: deleted.ID,
			Kind:     deleted.Kind,
			Op:       string(audit.OpDeleted),
			At:       now,
		})
	}
}

func handleErr(err error) *common.ApiError {
	switch v := err.(type) {
	case domainRecord.NotFound:
		return notFound(v)
	case domainRecord.InvalidVersion:
		return versionConflict(v)
	case domainRecord.AlreadyExists:
		return alreadyExists(v)
	case domainRecord.InvalidPersistedData:
		return invalidPersistedData(v)
	default:
		return unhandledErr(v)
	}
}

func notFound(notFound domainRecord.NotFound) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusNotFound,
		Body: common.Body{
			Message: notFound.Error(),
			Type:    ErrTypeNotFound,
		},
	}
}

func versionConflict(versionConflict domainRecord.InvalidVersion) *common.ApiError {
	var current interface{}
	if versionConflict.Current != nil {
		current = record.FromDomainRecord(versionConflict.Current)
	}
	return &common.ApiError{
		StatusCode: http.StatusConflict,
		Body: common.Body{
			Message:       versionConflict.Error(),
			Type:          ErrTypeConflict,
			ServerVersion: versionConflict.ServerVersion.Token(),
			Current:       current,
		},
	}
}

func alreadyExists(alreadyExists domainRecord.AlreadyExists) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusConflict,
		Body: common.Body{
			Message: alreadyExists.Error(),
			Type:    ErrTypeConflict,
		},
	}
}

func invalidPersistedData(err domainRecord.InvalidPersistedData) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusInternalServerError,
		Body: common.Body{
			Message: err.Error(),
			Type:    ErrTypeStorageError,
		},
	}
}

func unhandledErr(e error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusInternalServerError,
		Body: common.Body{
			Message: e.Error(),
			Type:    ErrTypeStorageError,
		},
	}
}
