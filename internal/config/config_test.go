package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
telegram:
  token: "123:abc"
  admin_ids: [1, 2]
storage:
  backend: file
  dir: /tmp/state
notify:
  send_timeout: 2s
  workers: 8
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, "123:abc", c.Telegram.Token)
	assert.Equal(t, []int64{1, 2}, c.Telegram.AdminIDs)
	assert.Equal(t, 30, c.Telegram.PollTimeout) // default
	assert.Equal(t, "file", c.Storage.Backend)
	assert.Equal(t, 2*time.Second, c.Notify.SendTimeout)
	assert.Equal(t, 8, c.Notify.Workers)
}

func TestLoadRequiresToken(t *testing.T) {
	path := writeConfig(t, `
telegram:
  admin_ids: [1]
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRequiresAdmins(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_ids: [1]
storage:
  backend: redis
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadPostgresNeedsDSN(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_ids: [1]
storage:
  backend: postgres
`)
	_, err := Load(path)
	assert.Error(t, err)
}
