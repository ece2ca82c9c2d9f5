package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("shell.history", "/tmp/strongarm_history")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultAutorun, c.Shell.Autorun)
	assert.Equal(t, 256, c.Disass.CacheSize)
	assert.Equal(t, 100, c.Disass.MaxInstructions)
	assert.False(t, c.Shell.ParallelInfo)
	assert.Equal(t, []string{DefaultAutorun}, c.AutorunLines())
}

func TestLoadConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
color: true
arch: arm64e
demangle: true
shell:
  autorun: "info metadata; info classes"
  history: /tmp/h
  parallel-info: true
disass:
  cache-size: 16
  max-instructions: 40
`), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, c.Color)
	assert.Equal(t, "arm64e", c.Arch)
	assert.True(t, c.Demangle)
	assert.Equal(t, "/tmp/h", c.Shell.History)
	assert.True(t, c.Shell.ParallelInfo)
	assert.Equal(t, 16, c.Disass.CacheSize)
	assert.Equal(t, 40, c.Disass.MaxInstructions)
	assert.Equal(t, []string{"info metadata", "info classes"}, c.AutorunLines())
}

func TestAutorunDisabled(t *testing.T) {
	c := &Config{NoAutorun: true}
	c.Shell.Autorun = DefaultAutorun
	assert.Empty(t, c.AutorunLines())
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		conf    Config
		wantErr bool
	}{
		{"zero", Config{Shell: shell{History: "/tmp/h"}}, false},
		{"negative cache", Config{Disass: disass{CacheSize: -1}}, true},
		{"negative max", Config{Disass: disass{MaxInstructions: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.verify()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
