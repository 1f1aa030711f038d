package flag

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucket_deterministic(t *testing.T) {
	b1 := Bucket("user-123", "new-dashboard")
	b2 := Bucket("user-123", "new-dashboard")
	assert.EqualValues(t, b1, b2)
}

func TestBucket_range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		b := Bucket(fmt.Sprintf("subject-%d", i), "some-flag")
		assert.True(t, b < 100)
	}
}

func TestBucket_variesAcrossFlags(t *testing.T) {
	// the same subject should not get the same bucket for every flag
	subject := "user-123"
	buckets := make(map[uint32]bool)
	for i := 0; i < 50; i++ {
		buckets[Bucket(subject, Name(fmt.Sprintf("flag-%d", i)))] = true
	}
	assert.True(t, len(buckets) > 1)
}

func TestRegistry_IsEnabledFor(t *testing.T) {
	registry := NewRegistry([]Flag{
		{
			Name:              "fully-on",
			Enabled:           true,
			RolloutPercentage: 100,
		},
		{
			Name:              "fully-off",
			Enabled:           true,
			RolloutPercentage: 0,
		},
		{
			Name:              "disabled",
			Enabled:           false,
			RolloutPercentage: 100,
		},
	})
	tests := []struct {
		name    string
		flag    Name
		subject string
		want    bool
	}{
		{
			"100 percent rollout is on for everyone",
			"fully-on",
			"anyone",
			true,
		},
		{
			"0 percent rollout is off for everyone",
			"fully-off",
			"anyone",
			false,
		},
		{
			"disabled flag is off regardless of rollout",
			"disabled",
			"anyone",
			false,
		},
		{
			"unknown flag is off",
			"nope",
			"anyone",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualValues(t, tt.want, registry.IsEnabledFor(tt.flag, tt.subject))
		})
	}
}

func TestRegistry_IsEnabledFor_partialRollout(t *testing.T) {
	registry := NewRegistry([]Flag{
		{
			Name:              "half",
			Enabled:           true,
			RolloutPercentage: 50,
		},
	})
	enabled := 0
	total := 1000
	for i := 0; i < total; i++ {
		if registry.IsEnabledFor("half", fmt.Sprintf("subject-%d", i)) {
			enabled++
		}
	}
	// roughly half, with generous tolerance since it's a hash, not a sampler
	assert.True(t, enabled > total/4)
	assert.True(t, enabled < 3*total/4)
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry([]Flag{
		{
			Name:              "here",
			Enabled:           true,
			RolloutPercentage: 10,
		},
	})
	f, ok := registry.Get("here")
	assert.True(t, ok)
	assert.EqualValues(t, Name("here"), f.Name)
	_, ok = registry.Get("gone")
	assert.False(t, ok)
}
