package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ghxstship/recordguard/internal/api/models/common"
	"github.com/ghxstship/recordguard/internal/domain/metadata"
	"github.com/ghxstship/recordguard/internal/domain/record"
)

func TestNewRecord_ToDomainNewRecord(t *testing.T) {
	fields := record.Fields{
		"name": "skunkworks",
	}
	apiNewRecord := NewRecord{
		Org:    "acme",
		Kind:   "project",
		Fields: &fields,
	}
	expected := record.NewRecord{
		Org:    "acme",
		Kind:   "project",
		Fields: &fields,
	}
	assert.EqualValues(t, expected, apiNewRecord.ToDomainNewRecord())
}

func TestFromDomainRecord(t *testing.T) {
	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	modified := created.Add(time.Minute)
	fields := record.Fields{
		"name": "skunkworks",
	}
	domainRecord := record.Record{
		ID:     "abc123",
		Org:    "acme",
		Kind:   "project",
		Fields: &fields,
		Metadata: metadata.Metadata{
			CreatedAt:  metadata.CreatedAt(created),
			ModifiedAt: metadata.ModifiedAt(modified),
			Version: metadata.Version{
				SeqNum:      metadata.SeqNum(7),
				PrimaryTerm: metadata.PrimaryTerm(1),
			},
		},
	}
	expected := Record{
		ID:     "abc123",
		Org:    "acme",
		Kind:   "project",
		Fields: &fields,
		Metadata: common.Metadata{
			CreatedAt:  created,
			ModifiedAt: modified,
			Version: common.Version{
				SeqNum:      7,
				PrimaryTerm: 1,
				Token:       "1-7",
			},
		},
	}
	assert.EqualValues(t, expected, FromDomainRecord(&domainRecord))
}
