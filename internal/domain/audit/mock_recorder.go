package audit

import (
	"context"
	"time"
)

// Mock implementations of the audit interfaces with overridable behaviour,
// useful for testing

type MockRecorder struct {
	RecordCalled   uint
	RecordOverride func() error
	LastEntry      Entry
}

func (m *MockRecorder) Record(ctx context.Context, entry Entry) error {
	m.RecordCalled++
	m.LastEntry = entry
	if m.RecordOverride != nil {
		return m.RecordOverride()
	}
	return nil
}

type MockJanitor struct {
	SweepExpiredCalled   uint
	SweepExpiredOverride func() error
	LastSweepNow         time.Time
}

func (m *MockJanitor) SweepExpired(ctx context.Context, now time.Time) error {
	m.SweepExpiredCalled++
	m.LastSweepNow = now
	if m.SweepExpiredOverride != nil {
		return m.SweepExpiredOverride()
	}
	return nil
}
