package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTOMLAppliesDefaults(t *testing.T) {
	path := writeFile(t, "config.toml", `
[backend]
url = "http://localhost:5000"
`)

	conf, err := LoadFromFileAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, conf.ListenPort)
	assert.Equal(t, StorageFile, conf.Session.Storage)
	assert.NotEmpty(t, conf.Session.File.Path)
	assert.Equal(t, 2*time.Second, conf.MessageTimeout())
	assert.Equal(t, time.Second, conf.UnauthorizedRedirectDelay())
	assert.Equal(t, 10*time.Second, conf.BackendTimeout())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
port: 9090
backend:
  url: https://books.example.com
session:
  storage: redis
  redis:
    addr: localhost:6379
ui:
  message_timeout_ms: 500
`)

	conf, err := LoadFromFileAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, conf.ListenPort)
	assert.Equal(t, "https://books.example.com", conf.Backend.URL)
	assert.Equal(t, StorageRedis, conf.Session.Storage)
	assert.Equal(t, "bookshelf:token", conf.Session.Redis.Key)
	assert.Equal(t, 500*time.Millisecond, conf.MessageTimeout())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOOKSHELF_BACKEND_URL", "http://api.internal:8000")
	t.Setenv("BOOKSHELF_LISTEN_PORT", "7070")

	path := writeFile(t, "config.toml", "")

	conf, err := LoadFromFileAndValidate(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:8000", conf.Backend.URL)
	assert.Equal(t, 7070, conf.ListenPort)
}

func TestValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing backend": ``,
		"relative backend": `
[backend]
url = "/api"
`,
		"unknown storage": `
[backend]
url = "http://localhost:5000"
[session]
storage = "cookie"
`,
		"redis without addr": `
[backend]
url = "http://localhost:5000"
[session]
storage = "redis"
`,
		"short secret": `
[backend]
url = "http://localhost:5000"
[session]
secret = "tooshort"
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "config.toml", body)
			_, err := LoadFromFileAndValidate(path)
			assert.Error(t, err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := LoadFromFileAndValidate(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
