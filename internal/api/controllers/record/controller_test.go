package record

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apiRecord "github.com/ghxstship/recordguard/internal/api/models/record"
	"github.com/ghxstship/recordguard/internal/domain/audit"
	"github.com/ghxstship/recordguard/internal/domain/flag"
	"github.com/ghxstship/recordguard/internal/domain/metadata"
	domainRecord "github.com/ghxstship/recordguard/internal/domain/record"
	"github.com/ghxstship/recordguard/internal/domain/realtime"
)

var frozenNow = time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

func buildImpl(recordsService *domainRecord.MockRecordsService, auditRecorder *audit.MockRecorder, hub *realtime.Hub, flags []flag.Flag) *impl {
	return &impl{
		recordsService: recordsService,
		auditRecorder:  auditRecorder,
		changesHub:     hub,
		flags:          flag.NewRegistry(flags),
		getNowUtc: func() time.Time {
			return frozenNow
		},
	}
}

func allOnFlags() []flag.Flag {
	return []flag.Flag{
		{Name: flag.RealtimeChanges, Enabled: true, RolloutPercentage: 100},
	}
}

func Test_impl_Create(t *testing.T) {
	mockService := domainRecord.MockRecordsService{}
	mockRecorder := audit.MockRecorder{}
	controller := buildImpl(&mockService, &mockRecorder, realtime.NewHub(1), allOnFlags())
	created, apiErr := controller.Create(context.Background(), &apiRecord.NewRecord{
		Org:  "acme",
		Kind: "project",
	})
	assert.Nil(t, apiErr)
	assert.EqualValues(t, domainRecord.MockDomainRecord.ID, created.ID)
	assert.EqualValues(t, 1, mockService.CreateCalled)
	assert.EqualValues(t, 1, mockRecorder.RecordCalled)
	assert.EqualValues(t, audit.OpCreated, mockRecorder.LastEntry.Op)
	assert.EqualValues(t, frozenNow, mockRecorder.LastEntry.At)
}

func Test_impl_Create_serviceError(t *testing.T) {
	mockService := domainRecord.MockRecordsService{
		CreateOverride: func() (*domainRecord.Record, error) {
			return nil, errors.New("es fell over")
		},
	}
	mockRecorder := audit.MockRecorder{}
	controller := buildImpl(&mockService, &mockRecorder, realtime.NewHub(1), allOnFlags())
	created, apiErr := controller.Create(context.Background(), &apiRecord.NewRecord{
		Org:  "acme",
		Kind: "project",
	})
	assert.Nil(t, created)
	assert.EqualValues(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.EqualValues(t, ErrTypeStorageError, apiErr.Body.Type)
	assert.EqualValues(t, 0, mockRecorder.RecordCalled)
}

func Test_impl_Get(t *testing.T) {
	mockService := domainRecord.MockRecordsService{}
	controller := buildImpl(&mockService, &audit.MockRecorder{}, realtime.NewHub(1), nil)
	got, apiErr := controller.Get(context.Background(), "acme", "mock")
	assert.Nil(t, apiErr)
	assert.EqualValues(t, domainRecord.MockDomainRecord.ID, got.ID)
	assert.EqualValues(t, 1, mockService.GetCalled)
}

func Test_impl_Get_notFound(t *testing.T) {
	mockService := domainRecord.MockRecordsService{
		GetOverride: func() (*domainRecord.Record, error) {
			return nil, domainRecord.NotFound{ID: "nope", Org: "acme"}
		},
	}
	controller := buildImpl(&mockService, &audit.MockRecorder{}, realtime.NewHub(1), nil)
	got, apiErr := controller.Get(context.Background(), "acme", "nope")
	assert.Nil(t, got)
	assert.EqualValues(t, http.StatusNotFound, apiErr.StatusCode)
	assert.EqualValues(t, ErrTypeNotFound, apiErr.Body.Type)
}

func Test_impl_List(t *testing.T) {
	mockService := domainRecord.MockRecordsService{}
	controller := buildImpl(&mockService, &audit.MockRecorder{}, realtime.NewHub(1), nil)
	listed, apiErr := controller.List(context.Background(), "acme")
	assert.Nil(t, apiErr)
	assert.Len(t, listed, 1)
	assert.EqualValues(t, 1, mockService.AllCalled)
}

func Test_impl_Update(t *testing.T) {
	mockService := domainRecord.MockRecordsService{}
	mockRecorder := audit.MockRecorder{}
	controller := buildImpl(&mockService, &mockRecorder, realtime.NewHub(1), allOnFlags())
	clientVersion := metadata.Version{SeqNum: 3, PrimaryTerm: 1}
	updated, apiErr := controller.Update(context.Background(), "acme", "mock", &apiRecord.RecordUpdate{
		Fields: domainRecord.Patch{"name": "renamed"},
	}, &clientVersion)
	assert.Nil(t, apiErr)
	assert.NotNil(t, updated)
	assert.EqualValues(t, 1, mockService.UpdateCalled)
	assert.EqualValues(t, &clientVersion, mockService.LastClientVersion)
	assert.EqualValues(t, domainRecord.Patch{"name": "renamed"}, mockService.LastPatch)
	assert.EqualValues(t, audit.OpUpdated, mockRecorder.LastEntry.Op)
}

func Test_impl_Update_conflict(t *testing.T) {
	serverVersion := metadata.Version{SeqNum: 9, PrimaryTerm: 2}
	current := domainRecord.MockDomainRecord
	current.Metadata.Version = serverVersion
	mockService := domainRecord.MockRecordsService{
		UpdateOverride: func() (*domainRecord.Record, error) {
			return nil, domainRecord.InvalidVersion{
				ID:            current.ID,
				Org:           current.Org,
				ServerVersion: serverVersion,
				Current:       &current,
			}
		},
	}
	mockRecorder := audit.MockRecorder{}
	controller := buildImpl(&mockService, &mockRecorder, realtime.NewHub(1), allOnFlags())
	staleVersion := metadata.Version{SeqNum: 3, PrimaryTerm: 1}
	updated, apiErr := controller.Update(context.Background(), "acme", "mock", &apiRecord.RecordUpdate{
		Fields: domainRecord.Patch{"name": "renamed"},
	}, &staleVersion)
	assert.Nil(t, updated)
	assert.EqualValues(t, http.StatusConflict, apiErr.StatusCode)
	assert.EqualValues(t, ErrTypeConflict, apiErr.Body.Type)
	assert.EqualValues(t, "2-9", apiErr.Body.ServerVersion)
	if assert.NotNil(t, apiErr.Body.Current) {
		snapshot, isApiRecord := apiErr.Body.Current.(apiRecord.Record)
		assert.True(t, isApiRecord)
		assert.EqualValues(t, "2-9", snapshot.Metadata.Version.Token)
	}
	assert.EqualValues(t, 0, mockRecorder.RecordCalled)
}

func Test_impl_Delete(t *testing.T) {
	mockService := domainRecord.MockRecordsService{}
	mockRecorder := audit.MockRecorder{}
	hub := realtime.NewHub(1)
	sub := hub.Subscribe("acme")
	defer sub.Close()
	controller := buildImpl(&mockService, &mockRecorder, hub, allOnFlags())
	deleted, apiErr := controller.Delete(context.Background(), "acme", "mock", nil)
	assert.Nil(t, apiErr)
	assert.NotNil(t, deleted)
	assert.EqualValues(t, 1, mockService.DeleteCalled)
	assert.Nil(t, mockService.LastClientVersion)
	assert.EqualValues(t, audit.OpDeleted, mockRecorder.LastEntry.Op)
	// deletions leave no version behind
	assert.Empty(t, mockRecorder.LastEntry.Version)
	select {
	case event := <-sub.C:
		assert.EqualValues(t, string(audit.OpDeleted), event.Op)
		assert.Empty(t, event.Version)
	default:
		assert.Fail(t, "expected a change event")
	}
}

func Test_impl_changeFeed_gatedByFlag(t *testing.T) {
	mockService := domainRecord.MockRecordsService{}
	hub := realtime.NewHub(1)
	sub := hub.Subscribe("acme")
	defer sub.Close()
	controller := buildImpl(&mockService, &audit.MockRecorder{}, hub, []flag.Flag{
		{Name: flag.RealtimeChanges, Enabled: false},
	})
	_, apiErr := controller.Create(context.Background(), &apiRecord.NewRecord{
		Org:  "acme",
		Kind: "project",
	})
	assert.Nil(t, apiErr)
	select {
	case <-sub.C:
		assert.Fail(t, "expected no change event while the flag is off")
	default:
	}
}

func Test_impl_auditFailureDoesNotFailRequest(t *testing.T) {
	mockService := domainRecord.MockRecordsService{}
	mockRecorder := audit.MockRecorder{
		RecordOverride: func() error {
			return errors.New("audit index unavailable")
		},
	}
	controller := buildImpl(&mockService, &mockRecorder, realtime.NewHub(1), allOnFlags())
	created, apiErr := controller.Create(context.Background(), &apiRecord.NewRecord{
		Org:  "acme",
		Kind: "project",
	})
	assert.Nil(t, apiErr)
	assert.NotNil(t, created)
	assert.EqualValues(t, 1, mockRecorder.RecordCalled)
}
