package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"

	"github.com/ghxstship/recordguard/internal/config"
	"github.com/ghxstship/recordguard/internal/domain/metadata"
	"github.com/ghxstship/recordguard/internal/domain/org"
	"github.com/ghxstship/recordguard/internal/domain/record"
	"github.com/ghxstship/recordguard/internal/infra/elasticsearch/common"
)

var RecordsOrgPrefix = ".recordguard_records-"

type EsService struct {
	client   *elasticsearch.Client
	settings config.RecordsDefaults
	getUTC   func() time.Time // for mocking
}

// For testing
func (e *EsService) SetUTCGetter(getter func() time.Time) {
	e.getUTC = getter
}

func NewService(client *elasticsearch.Client, settings config.RecordsDefaults) record.Service {
	return &EsService{client: client, settings: settings, getUTC: func() time.Time {
		return time.Now().UTC()
	}}
}

func (e *EsService) Create(ctx context.Context, newRecord *record.NewRecord) (*record.Record, error) {
	indexName := BuildIndexName(newRecord.Org)
	now := e.getUTC()
	toPersist := persistedRecordData{
		Kind:   string(newRecord.Kind),
		Fields: (*jsonObjMap)(newRecord.Fields),
		Metadata: common.PersistedMetadata{
			CreatedAt:  now,
			ModifiedAt: now,
		},
	}

	toPersistBytes, err := json.Marshal(toPersist)
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}

	recordId := record.GenerateId()
	createReq := esapi.CreateRequest{
		DocumentID: string(recordId),
		Index:      string(indexName),
		Body:       bytes.NewReader(toPersistBytes),
	}

	rawResp, err := createReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	statusCode := rawResp.StatusCode
	switch {
	case 200 <= statusCode && statusCode <= 299:
		var response common.EsCreateResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		domainRecord := toPersist.toDomainRecord(recordId, newRecord.Org, response.Version())
		return &domainRecord, nil
	case statusCode == 409:
		return nil, record.AlreadyExists{ID: recordId}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) Get(ctx context.Context, orgId org.Id, recordId record.Id) (*record.Record, error) {
	getReq := esapi.GetRequest{
		Index:      string(BuildIndexName(orgId)),
		DocumentID: string(recordId),
	}
	rawResp, err := getReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()

	switch rawResp.StatusCode {
	case 200:
		var response esHitPersistedRecord
		if err := json.NewDecoder(rawResp.Body).Decode(&response); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		retrieved := response.toDomainRecord()
		return &retrieved, nil
	case 404:
		return nil, record.NotFound{ID: recordId, Org: orgId}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

// Update applies the given patch.
//
// With a client version, the version-equality check rides along on the write
// itself (if_seq_no / if_primary_term), so two racing writers presenting the
// same observed version cannot both win: the store accepts exactly one and
// 409s the other. The preliminary Get only exists to fetch the rest of the
// document; it never decides the outcome.
func (e *EsService) Update(ctx context.Context, orgId org.Id, recordId record.Id, patch record.Patch, clientVersion *metadata.Version) (*record.Record, error) {
	runUpdate := func() (*record.Record, error) {
		current, err := e.Get(ctx, orgId, recordId)
		if err != nil {
			return nil, err
		}
		if clientVersion != nil && *clientVersion != current.Metadata.Version {
			return nil, record.InvalidVersion{
				ID:            recordId,
				Org:           orgId,
				ServerVersion: current.Metadata.Version,
				Current:       current,
			}
		}
		current.ApplyPatch(patch)
		return e.conditionalIndex(ctx, orgId, current, current.Metadata.Version)
	}
	result, err := runUpdate()
	if clientVersion == nil {
		result, err = e.retryForcedWrite(recordId, runUpdate, result, err)
	}
	return result, err
}

func (e *EsService) Delete(ctx context.Context, orgId org.Id, recordId record.Id, clientVersion *metadata.Version) (*record.Record, error) {
	runDelete := func() (*record.Record, error) {
		current, err := e.Get(ctx, orgId, recordId)
		if err != nil {
			return nil, err
		}
		if clientVersion != nil && *clientVersion != current.Metadata.Version {
			return nil, record.InvalidVersion{
				ID:            recordId,
				Org:           orgId,
				ServerVersion: current.Metadata.Version,
				Current:       current,
			}
		}
		return e.conditionalDelete(ctx, orgId, current, current.Metadata.Version)
	}
	result, err := runDelete()
	if clientVersion == nil {
		result, err = e.retryForcedWrite(recordId, runDelete, result, err)
	}
	return result, err
}

// retryForcedWrite re-runs a write that carried no client version for as
// long as it keeps losing races with other writers, up to the configured
// retry bound. Callers that never presented a version must never see a
// version conflict, so an exhausted bound surfaces as a storage error.
func (e *EsService) retryForcedWrite(recordId record.Id, runWrite func() (*record.Record, error), result *record.Record, err error) (*record.Record, error) {
	timesRetried := uint(0)
	for {
		if _, isVersionConflict := err.(record.InvalidVersion); !isVersionConflict {
			return result, err
		}
		if timesRetried >= e.settings.ForcedWriteRetryTimes {
			return nil, common.ElasticsearchErr{
				Underlying: fmt.Errorf("unconditional write for [%s] kept losing races with other writers after [%d] retries", recordId, timesRetried),
			}
		}
		timesRetried++
		result, err = runWrite()
	}
}

func (e *EsService) All(ctx context.Context, orgId org.Id) ([]record.Record, error) {
	searchBody := buildListSearchBody(e.settings.ScrollSize)
	var found []record.Record
	err := e.scanRecords(ctx, orgId, searchBody, e.settings.ScrollTtl, func(records []record.Record) error {
		found = append(found, records...)
		return nil
	})
	if err != nil {
		return nil, err
	} else {
		return found, nil
	}
}

// conditionalIndex writes the whole document, requiring that the stored
// version still equals expected.
//
// Purposely using the Index API (rather than the update API) so as to
// not get bit by old stale data due to partial updates. We send optimistic
// locking data to ensure we are _updating_
func (e *EsService) conditionalIndex(ctx context.Context, orgId org.Id, toWrite *record.Record, expected metadata.Version) (*record.Record, error) {
	toWrite.Metadata.ModifiedAt = metadata.ModifiedAt(e.getUTC())
	updatePayload := toPersistedRecord(toWrite)
	updatePayloadBytes, err := json.Marshal(updatePayload)
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	updateReq := esapi.IndexRequest{
		Index:         string(BuildIndexName(orgId)),
		DocumentID:    string(toWrite.ID),
		Body:          bytes.NewReader(updatePayloadBytes),
		IfPrimaryTerm: esapi.IntPtr(int(expected.PrimaryTerm)),
		IfSeqNo:       esapi.IntPtr(int(expected.SeqNum)),
	}
	rawResp, err := updateReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	respStatus := rawResp.StatusCode
	switch {
	case 200 <= respStatus && respStatus <= 299:
		// Updated, grab new metadata
		var resp common.EsUpdateResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&resp); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		toWrite.Metadata.Version = resp.Version()
		return toWrite, nil
	case respStatus == 409:
		return nil, e.buildConflict(ctx, orgId, toWrite.ID)
	case respStatus == 404:
		return nil, record.NotFound{ID: toWrite.ID, Org: orgId}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) conditionalDelete(ctx context.Context, orgId org.Id, toDelete *record.Record, expected metadata.Version) (*record.Record, error) {
	deleteReq := esapi.DeleteRequest{
		Index:         string(BuildIndexName(orgId)),
		DocumentID:    string(toDelete.ID),
		IfPrimaryTerm: esapi.IntPtr(int(expected.PrimaryTerm)),
		IfSeqNo:       esapi.IntPtr(int(expected.SeqNum)),
	}
	rawResp, err := deleteReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	respStatus := rawResp.StatusCode
	switch {
	case 200 <= respStatus && respStatus <= 299:
		return toDelete, nil
	case respStatus == 409:
		return nil, e.buildConflict(ctx, orgId, toDelete.ID)
	case respStatus == 404:
		return nil, record.NotFound{ID: toDelete.ID, Org: orgId}
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

// buildConflict re-reads the record after a store-level 409 so that the
// returned InvalidVersion carries the authoritative version and snapshot at
// the time of the conflict. A 409 for a record that has since vanished
// collapses into NotFound.
func (e *EsService) buildConflict(ctx context.Context, orgId org.Id, recordId record.Id) error {
	fresh, err := e.Get(ctx, orgId, recordId)
	if err != nil {
		return err
	}
	return record.InvalidVersion{
		ID:            recordId,
		Org:           orgId,
		ServerVersion: fresh.Metadata.Version,
		Current:       fresh,
	}
}

// Scrolls through all records in an org, taking care to close all response bodies and close scrolls
func (e *EsService) scanRecords(ctx context.Context, orgId org.Id, searchBody jsonObjMap, scrollTtl time.Duration, doWithBatch func(records []record.Record) error) error {
	log.Debug().Interface("searchBody", searchBody).Str("org", string(orgId)).Msg("Scanning records")
	recordsWithScrollId, err := e.initSearch(ctx, orgId, searchBody, scrollTtl)
	if err != nil {
		return err
	}
	if recordsWithScrollId == nil {
		// no index for the org yet; nothing to scan
		return nil
	}
	scannedRecords := recordsWithScrollId.Records
	var scrollIds []string
	scrollId := recordsWithScrollId.ScrollId
	scrollIds = append(scrollIds, scrollId)
	defer func() {
		if scrollErr := e.clearScroll(ctx, scrollIds); scrollErr != nil && err == nil {
			err = scrollErr
		}
	}()

	for len(scannedRecords) > 0 {
		if err := doWithBatch(scannedRecords); err != nil {
			return err
		}
		nextRecordsWithScrollId, err := e.scroll(ctx, scrollId, scrollTtl)
		if err != nil {
			return err
		}
		scannedRecords = nextRecordsWithScrollId.Records
		scrollId = nextRecordsWithScrollId.ScrollId
		scrollIds = append(scrollIds, nextRecordsWithScrollId.ScrollId)
	}
	return nil
}

func (e *EsService) initSearch(ctx context.Context, orgId org.Id, searchBody jsonObjMap, scrollTtl time.Duration) (*recordsWithScrollId, error) {
	searchBodyBytes, err := json.Marshal(searchBody)
	if err != nil {
		return nil, common.JsonSerdesErr{Underlying: []error{err}}
	}
	searchReq := esapi.SearchRequest{
		Scroll:         scrollTtl,
		Index:          []string{string(BuildIndexName(orgId))},
		AllowNoIndices: esapi.BoolPtr(true),
		Body:           bytes.NewReader(searchBodyBytes),
	}

	rawResp, err := searchReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	return processScrollResp(rawResp)
}

func (e *EsService) scroll(ctx context.Context, scrollId string, scrollTtl time.Duration) (*recordsWithScrollId, error) {
	scrollReq := esapi.ScrollRequest{
		Scroll:   scrollTtl,
		ScrollID: scrollId,
	}

	rawResp, err := scrollReq.Do(ctx, e.client)
	if err != nil {
		return nil, common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	return processScrollResp(rawResp)
}

func processScrollResp(rawResp *esapi.Response) (*recordsWithScrollId, error) {
	switch rawResp.StatusCode {
	case 200:
		var scrollResp esSearchScrollingResponse
		if err := json.NewDecoder(rawResp.Body).Decode(&scrollResp); err != nil {
			return nil, common.JsonSerdesErr{Underlying: []error{err}}
		}
		records := make([]record.Record, 0, len(scrollResp.Hits.Hits))
		for _, pRecord := range scrollResp.Hits.Hits {
			records = append(records, pRecord.toDomainRecord())
		}
		return &recordsWithScrollId{
			ScrollId: scrollResp.ScrollId,
			Records:  records,
		}, nil
	case 404:
		return nil, nil
	default:
		return nil, common.UnexpectedEsStatusError(rawResp)
	}
}

func (e *EsService) clearScroll(ctx context.Context, scrollIds []string) error {
	if len(scrollIds) > 0 {
		clearScrollReq := esapi.ClearScrollRequest{ScrollID: scrollIds}
		rawResp, err := clearScrollReq.Do(ctx, e.client)
		if err != nil {
			return err
		} else {
			defer rawResp.Body.Close()
			switch rawResp.StatusCode {
			case 200:
				return nil
			default:
				return common.UnexpectedEsStatusError(rawResp)
			}
		}
	} else {
		return nil
	}
}

type jsonObjMap map[string]interface{}

type recordsWithScrollId struct {
	ScrollId string
	Records  []record.Record
}

func BuildIndexName(orgId org.Id) common.IndexName {
	return common.IndexName(fmt.Sprintf("%s%s", RecordsOrgPrefix, string(orgId)))
}

func orgIdFromIndexName(indexName common.IndexName) org.Id {
	return org.Id(strings.TrimPrefix(string(indexName), RecordsOrgPrefix))
}

func buildListSearchBody(pageSize uint) jsonObjMap {
	return jsonObjMap{
		"size":                pageSize,
		"seq_no_primary_term": true,
		"sort": []jsonObjMap{
			{
				"_id": jsonObjMap{
					"order": "asc",
				},
			},
		},
		"query": jsonObjMap{
			"match_all": jsonObjMap{},
		},
	}
}

// Private persistence doc structures based entirely on basic types for ease of guaranteeing serdes.

type persistedRecordData struct {
	Kind     string                   `json:"kind"`
	Fields   *jsonObjMap              `json:"fields,omitempty"`
	Metadata common.PersistedMetadata `json:"metadata"`
}

func (pRecord *persistedRecordData) toDomainRecord(recordId record.Id, orgId org.Id, version metadata.Version) record.Record {
	return record.Record{
		ID:     recordId,
		Org:    orgId,
		Kind:   record.Kind(pRecord.Kind),
		Fields: (*record.Fields)(pRecord.Fields),
		Metadata: metadata.Metadata{
			CreatedAt:  metadata.CreatedAt(pRecord.Metadata.CreatedAt),
			ModifiedAt: metadata.ModifiedAt(pRecord.Metadata.ModifiedAt),
			Version:    version,
		},
	}
}

func toPersistedRecord(record *record.Record) persistedRecordData {
	return persistedRecordData{
		Kind:   string(record.Kind),
		Fields: (*jsonObjMap)(record.Fields),
		Metadata: common.PersistedMetadata{
			CreatedAt:  time.Time(record.Metadata.CreatedAt),
			ModifiedAt: time.Time(record.Metadata.ModifiedAt),
		},
	}
}

type esHitPersistedRecord struct {
	ID          string              `json:"_id"`
	Index       string              `json:"_index"`
	SeqNum      uint64              `json:"_seq_no"`
	PrimaryTerm uint64              `json:"_primary_term"`
	Source      persistedRecordData `json:"_source"`
}

func (resp *esHitPersistedRecord) toDomainRecord() record.Record {
	pRecord := resp.Source

	return pRecord.toDomainRecord(record.Id(resp.ID), orgIdFromIndexName(common.IndexName(resp.Index)), metadata.Version{
		SeqNum:      metadata.SeqNum(resp.SeqNum),
		PrimaryTerm: metadata.PrimaryTerm(resp.PrimaryTerm),
	})
}

type esSearchScrollingResponse struct {
	Hits struct {
		Hits []esHitPersistedRecord `json:"hits"`
	} `json:"hits"`
	ScrollId string `json:"_scroll_id"`
}
