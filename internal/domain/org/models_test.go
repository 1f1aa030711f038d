package org

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func idPtr(id Id) *Id {
	return &id
}

func TestIdFromString(t *testing.T) {
	type args struct {
		s string
	}
	tests := []struct {
		name    string
		args    args
		want    *Id
		wantErr bool
	}{
		{
			name: "must not have illegal chars",
			args: args{
				"acme?corp",
			},
			wantErr: true,
		},
		{
			name: "must not have '#'",
			args: args{
				"acme#corp",
			},
			wantErr: true,
		},
		{
			name: "must not have ':'",
			args: args{
				"acme:corp",
			},
			wantErr: true,
		},
		{
			name: "must not start with _",
			args: args{
				"_acmecorp",
			},
			wantErr: true,
		},
		{
			name: "must not start with -",
			args: args{
				"-acmecorp",
			},
			wantErr: true,
		},
		{
			name: "must not start with +",
			args: args{
				"+acmecorp",
			},
			wantErr: true,
		},
		{
			name: "must be lower case",
			args: args{
				"ACMECORP",
			},
			wantErr: true,
		},
		{
			name: "must not be '..'",
			args: args{
				"..",
			},
			wantErr: true,
		},
		{
			name: "must not be '.'",
			args: args{
				".",
			},
			wantErr: true,
		},
		{
			name: "should work",
			args: args{
				"acme-corp",
			},
			wantErr: false,
			want:    idPtr(Id("acme-corp")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IdFromString(tt.args.s)
			if (err != nil) != tt.wantErr {
				t.Errorf("IdFromString() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.EqualValues(t, tt.want, got)
		})
	}
}
