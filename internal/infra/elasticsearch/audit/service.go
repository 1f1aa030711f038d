package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ghxstship/recordguard/internal/config"
	"github.com/ghxstship/recordguard/internal/domain/audit"
	"github.com/ghxstship/recordguard/internal/infra/elasticsearch/common"
)

var AuditIndexPrefix = ".recordguard_audit-"

// Audit entries are bucketed into monthly indices so that retention can
// drop whole indices instead of running delete-by-query.
const monthlyIndexSuffixFormat = "2006.01"

// How many monthly indices past the retention cutoff a sweep will name for
// deletion. Anything older must have been swept by an earlier run.
const sweepScanBackMonths = uint(12)

type EsRecorder struct {
	client    *elasticsearch.Client
	retention config.AuditRetention
	getUTC    func() time.Time // for mocking
}

// For testing
func (e *EsRecorder) SetUTCGetter(getter func() time.Time) {
	e.getUTC = getter
}

func NewRecorder(client *elasticsearch.Client, retention config.AuditRetention) *EsRecorder {
	return &EsRecorder{client: client, retention: retention, getUTC: func() time.Time {
		return time.Now().UTC()
	}}
}

func (e *EsRecorder) Record(ctx context.Context, entry audit.Entry) error {
	toPersist := persistedAuditEntry{
		Op:       string(entry.Op),
		Org:      string(entry.Org),
		RecordID: string(entry.RecordID),
		Kind:     string(entry.Kind),
		Version:  entry.Version,
		At:       entry.At,
	}
	toPersistBytes, err := json.Marshal(toPersist)
	if err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}
	indexReq := esapi.IndexRequest{
		Index: string(BuildIndexName(entry.At)),
		Body:  bytes.NewReader(toPersistBytes),
	}
	rawResp, err := indexReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	statusCode := rawResp.StatusCode
	if 200 <= statusCode && statusCode <= 299 {
		return nil
	}
	return common.UnexpectedEsStatusError(rawResp)
}

func BuildIndexName(at time.Time) common.IndexName {
	return common.IndexName(fmt.Sprintf("%s%s", AuditIndexPrefix, at.UTC().Format(monthlyIndexSuffixFormat)))
}

// IndexNamesOlderThan returns the monthly audit index names that fall outside
// the retention window ending at now, going back a bounded number of extra
// months past the cutoff.
func IndexNamesOlderThan(now time.Time, keepMonths uint, scanBackMonths uint) []common.IndexName {
	names := make([]common.IndexName, 0, scanBackMonths)
	for i := uint(0); i < scanBackMonths; i++ {
		monthsAgo := keepMonths + 1 + i
		target := now.UTC().AddDate(0, -int(monthsAgo), 0)
		names = append(names, BuildIndexName(target))
	}
	return names
}

func (e *EsRecorder) SweepExpired(ctx context.Context, now time.Time) error {
	return e.deleteIndices(ctx, IndexNamesOlderThan(now, e.retention.KeepMonths, sweepScanBackMonths))
}

// deleteIndices removes the given indices, ignoring ones that do not exist.
func (e *EsRecorder) deleteIndices(ctx context.Context, indexNames []common.IndexName) error {
	if len(indexNames) == 0 {
		return nil
	}
	names := make([]string, 0, len(indexNames))
	for _, indexName := range indexNames {
		names = append(names, string(indexName))
	}
	deleteReq := esapi.IndicesDeleteRequest{
		Index:             names,
		IgnoreUnavailable: esapi.BoolPtr(true),
	}
	rawResp, err := deleteReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	switch rawResp.StatusCode {
	case 200:
		return nil
	default:
		return common.UnexpectedEsStatusError(rawResp)
	}
}

type persistedAuditEntry struct {
	Op       string    `json:"op"`
	Org      string    `json:"org"`
	RecordID string    `json:"record_id"`
	Kind     string    `json:"kind"`
	Version  string    `json:"version"`
	At       time.Time `json:"at"`
}
