package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{name: "empty is accepted", version: ""},
		{name: "lower bound", version: "0.1.0"},
		{name: "with v prefix", version: "v1.4.2"},
		{name: "too old", version: "0.0.9", wantErr: true},
		{name: "too new", version: "2.0.0", wantErr: true},
		{name: "not semver", version: "latest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatibility(tt.version)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrIncompatibleService)
				return
			}
			assert.NoError(t, err)
		})
	}
}
