package record

import (
	"context"

	"github.com/ghxstship/recordguard/internal/domain/metadata"
	"github.com/ghxstship/recordguard/internal/domain/org"
)

var MockDomainRecord = Record{
	ID:   "mock",
	Org:  "acme",
	Kind: "project",
}

type MockRecordsService struct {
	CreateCalled   uint
	CreateOverride func() (*Record, error)
	GetCalled      uint
	GetOverride    func() (*Record, error)
	UpdateCalled   uint
	UpdateOverride func() (*Record, error)
	DeleteCalled   uint
	DeleteOverride func() (*Record, error)
	AllCalled      uint
	AllOverride    func() ([]Record, error)

	// captured on Update/Delete so tests can assert on what was passed
	LastClientVersion *metadata.Version
	LastPatch         Patch
}

func (m *MockRecordsService) Create(ctx context.Context, record *NewRecord) (*Record, error) {
	m.CreateCalled++
	if m.CreateOverride != nil {
		return m.CreateOverride()
	} else {
		return &MockDomainRecord, nil
	}
}

func (m *MockRecordsService) Get(ctx context.Context, org org.Id, recordId Id) (*Record, error) {
	m.GetCalled++
	if m.GetOverride != nil {
		return m.GetOverride()
	} else {
		return &MockDomainRecord, nil
	}
}

func (m *MockRecordsService) Update(ctx context.Context, org org.Id, recordId Id, patch Patch, clientVersion *metadata.Version) (*Record, error) {
	m.UpdateCalled++
	m.LastClientVersion = clientVersion
	m.LastPatch = patch
	if m.UpdateOverride != nil {
		return m.UpdateOverride()
	} else {
		return &MockDomainRecord, nil
	}
}

func (m *MockRecordsService) Delete(ctx context.Context, org org.Id, recordId Id, clientVersion *metadata.Version) (*Record, error) {
	m.DeleteCalled++
	m.LastClientVersion = clientVersion
	if m.DeleteOverride != nil {
		return m.DeleteOverride()
	} else {
		return &MockDomainRecord, nil
	}
}

func (m *MockRecordsService) All(ctx context.Context, org org.Id) ([]Record, error) {
	m.AllCalled++
	if m.AllOverride != nil {
		return m.AllOverride()
	} else {
		return []Record{MockDomainRecord}, nil
	}
}
