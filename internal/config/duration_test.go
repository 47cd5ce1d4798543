package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "90s", want: 90 * time.Second},
		{in: "48h", want: 48 * time.Hour},
		{in: "30d", want: 30 * 24 * time.Hour},
		{in: "2w", want: 14 * 24 * time.Hour},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Std())
		})
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var out struct {
		Retention Duration `yaml:"retention"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("retention: 14d\n"), &out))
	assert.Equal(t, 14*24*time.Hour, out.Retention.Std())

	err := yaml.Unmarshal([]byte("retention: [1, 2]\n"), &out)
	assert.Error(t, err)
}
