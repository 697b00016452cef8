package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("CARTWHEEL_TEST_DIR", "/tmp/cartwheel-test")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "absolute unchanged", in: "/var/lib/app.db", want: "/var/lib/app.db"},
		{name: "bare tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/data/app.db", want: filepath.Join(home, "data", "app.db")},
		{name: "env var", in: "$CARTWHEEL_TEST_DIR/app.db", want: "/tmp/cartwheel-test/app.db"},
		{name: "tilde and env var", in: "~/$CARTWHEEL_TEST_DIR", want: filepath.Join(home, "/tmp/cartwheel-test")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDefaultDatabasePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, "/custom/data/cartwheel/cartwheel.db", DefaultDatabasePath())

	t.Setenv("XDG_DATA_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "cartwheel", "cartwheel.db"), DefaultDatabasePath())
}

func TestCertsDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/cartwheel/certs", CertsDir())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "cartwheel", "certs"), CertsDir())
}
