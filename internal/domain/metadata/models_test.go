package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_Token_roundtrip(t *testing.T) {
	v := Version{
		SeqNum:      42,
		PrimaryTerm: 3,
	}
	parsed, err := VersionFromToken(v.Token())
	assert.NoError(t, err)
	assert.EqualValues(t, &v, parsed)
}

func TestVersionFromToken(t *testing.T) {
	type args struct {
		s string
	}
	tests := []struct {
		name    string
		args    args
		want    *Version
		wantErr bool
	}{
		{
			name:    "empty string",
			args:    args{""},
			wantErr: true,
		},
		{
			name:    "no separator",
			args:    args{"123"},
			wantErr: true,
		},
		{
			name:    "non-numeric primary term",
			args:    args{"abc-1"},
			wantErr: true,
		},
		{
			name:    "non-numeric seq num",
			args:    args{"1-abc"},
			wantErr: true,
		},
		{
			name:    "negative numbers",
			args:    args{"-1-2"},
			wantErr: true,
		},
		{
			name: "should work",
			args: args{"2-99"},
			want: &Version{
				SeqNum:      99,
				PrimaryTerm: 2,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VersionFromToken(tt.args.s)
			if (err != nil) != tt.wantErr {
				t.Errorf("VersionFromToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.EqualValues(t, tt.want, got)
		})
	}
}
