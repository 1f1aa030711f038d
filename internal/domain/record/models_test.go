package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateId(t *testing.T) {
	id1 := GenerateId()
	id2 := GenerateId()
	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
	assert.NotContains(t, string(id1), "-")
}

func TestRecord_ApplyPatch(t *testing.T) {
	type args struct {
		patch Patch
	}
	tests := []struct {
		name   string
		fields *Fields
		args   args
		want   *Fields
	}{
		{
			name:   "empty patch leaves fields alone",
			fields: &Fields{"status": "draft"},
			args:   args{Patch{}},
			want:   &Fields{"status": "draft"},
		},
		{
			name:   "patch overwrites existing keys",
			fields: &Fields{"status": "draft", "owner": "a"},
			args:   args{Patch{"status": "approved"}},
			want:   &Fields{"status": "approved", "owner": "a"},
		},
		{
			name:   "patch adds new keys",
			fields: &Fields{"status": "draft"},
			args:   args{Patch{"budget": 100}},
			want:   &Fields{"status": "draft", "budget": 100},
		},
		{
			name:   "patch on nil fields",
			fields: nil,
			args:   args{Patch{"status": "approved"}},
			want:   &Fields{"status": "approved"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{
				ID:     "r1",
				Org:    "acme",
				Kind:   "project",
				Fields: tt.fields,
			}
			r.ApplyPatch(tt.args.patch)
			assert.EqualValues(t, tt.want, r.Fields)
		})
	}
}
