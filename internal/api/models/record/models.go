package record

import (
	"github.com/ghxstship/recordguard/internal/api/models/common"
	"github.com/ghxstship/recordguard/internal/domain/org"
	"github.com/ghxstship/recordguard/internal/domain/record"
)

// A Record that is yet to be persisted
type NewRecord struct {
	Org    org.Id         `json:"org" binding:"required,orgName" example:"acme"`
	Kind   record.Kind    `json:"kind" binding:"required" example:"project"`
	Fields *record.Fields `json:"fields,omitempty" swaggertype:"object"`
}

// Update for an existing Record. Keys present in Fields are merged into the
// stored fields; keys absent are left untouched.
type RecordUpdate struct {
	Fields record.Patch `json:"fields" binding:"required" swaggertype:"object"`
}

type Record struct {
	ID       record.Id       `json:"id" binding:"required"`
	Org      org.Id          `json:"org" binding:"required"`
	Kind     record.Kind     `json:"kind" binding:"required" example:"project"`
	Fields   *record.Fields  `json:"fields,omitempty" swaggertype:"object"`
	Metadata common.Metadata `json:"metadata" binding:"required"`
}

// Converts an API model to the domain model
func (r *NewRecord) ToDomainNewRecord() record.NewRecord {
	return record.NewRecord{
		Org:    r.Org,
		Kind:   r.Kind,
		Fields: r.Fields,
	}
}

func FromDomainRecord(domainRecord *record.Record) Record {
	return Record{
		ID:       domainRecord.ID,
		Org:      domainRecord.Org,
		Kind:     domainRecord.Kind,
		Fields:   domainRecord.Fields,
		Metadata: common.FromDomainMetadata(&domainRecord.Metadata),
	}
}
