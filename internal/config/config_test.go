package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "api:\n  jwt_signing_key: \"0123456789abcdef\"\n")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", conf.API.Port)
	assert.Equal(t, StoreDriverFile, conf.Store.Driver)
	assert.Equal(t, "sb_squares_fundraiser_plain_v1", conf.Store.File.Key)
	assert.Equal(t, AuthModePasscode, conf.Auth.Mode)
	assert.Equal(t, "main", conf.Fundraiser.Name)
	assert.Equal(t, "fundraiser_changed", conf.Postgres.NotifyChannel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "api:\n  jwt_signing_key: \"0123456789abcdef\"\n")
	t.Setenv("API_PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/squares")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, StoreDriverPostgres, conf.Store.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/squares", conf.Postgres.DSN())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing signing key", "api:\n  port: \"8080\"\n"},
		{"short signing key", "api:\n  jwt_signing_key: \"short\"\n"},
		{"unknown driver", "api:\n  jwt_signing_key: \"0123456789abcdef\"\nstore:\n  driver: redis\n"},
		{"accounts on file store", "api:\n  jwt_signing_key: \"0123456789abcdef\"\nauth:\n  mode: accounts\n"},
		{"firestore without project", "api:\n  jwt_signing_key: \"0123456789abcdef\"\nstore:\n  driver: firestore\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestAuthConfig_Admins(t *testing.T) {
	c := &AuthConfig{AdminEmails: []string{"a@example.com"}}

	got := c.Admins()
	got[0] = "changed"
	assert.Equal(t, []string{"a@example.com"}, c.Admins())

	c.setAdmins([]string{"b@example.com"})
	assert.Equal(t, []string{"b@example.com"}, c.Admins())
}
