package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ghxstship/recordguard/internal/infra/elasticsearch/common"
)

func TestBuildIndexName(t *testing.T) {
	at := time.Date(2020, 3, 15, 12, 30, 0, 0, time.UTC)
	assert.EqualValues(t, ".recordguard_audit-2020.03", BuildIndexName(at))
}

func TestBuildIndexName_normalisesToUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 08:30 on the 1st in Tokyo is still the previous month in UTC
	at := time.Date(2020, 4, 1, 8, 30, 0, 0, tokyo)
	assert.EqualValues(t, ".recordguard_audit-2020.03", BuildIndexName(at))
}

func TestIndexNamesOlderThan(t *testing.T) {
	now := time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC)
	names := IndexNamesOlderThan(now, 2, 3)
	assert.EqualValues(t, []common.IndexName{
		".recordguard_audit-2020.03",
		".recordguard_audit-2020.02",
		".recordguard_audit-2020.01",
	}, names)
}

func TestIndexNamesOlderThan_excludesRetainedMonths(t *testing.T) {
	now := time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC)
	names := IndexNamesOlderThan(now, 2, 12)
	retained := []common.IndexName{
		BuildIndexName(now),
		".recordguard_audit-2020.05",
		".recordguard_audit-2020.04",
	}
	for _, kept := range retained {
		assert.NotContains(t, names, kept)
	}
}
