package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/engine
terraform:
  module_dir: /opt/modules/cluster
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "terraform", cfg.Terraform.Binary)
	assert.Equal(t, "/tmp/engine/terraform", cfg.Terraform.StateDir)
	assert.Equal(t, 60*time.Minute, cfg.TerraformTimeout())
	assert.Equal(t, 2*time.Minute, cfg.KubectlTimeout())
	assert.Equal(t, "CloudMasa-Tech", cfg.GitOps.AllowedOrg)
	assert.Contains(t, cfg.GitOps.ReservedNamespaces, "kube-system")
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
data_dir: /srv/engine
terraform:
  module_dir: /opt/modules/cluster
  state_dir: /srv/tf
  timeout_minutes: 30
kubectl:
  timeout_seconds: 45
gitops:
  allowed_org: Example-Org
  reserved_namespaces: [default, argocd]
log:
  level: debug
  json: false
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/srv/tf", cfg.Terraform.StateDir)
	assert.Equal(t, 30*time.Minute, cfg.TerraformTimeout())
	assert.Equal(t, 45*time.Second, cfg.KubectlTimeout())
	assert.Equal(t, "Example-Org", cfg.GitOps.AllowedOrg)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing module dir", "data_dir: /tmp/engine\n", "terraform.module_dir"},
		{"missing data dir", "terraform:\n  module_dir: /opt/m\n  timeout_minutes: 60\ndata_dir: \"\"\n", "data_dir"},
		{"bad timeout", "data_dir: /tmp\nterraform:\n  module_dir: /opt/m\n  timeout_minutes: -1\n", "timeout_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestEncryptionKey(t *testing.T) {
	cfg := Default()
	cfg.EncryptionKeyEnv = "TEST_ENGINE_KEY"

	_, err := cfg.EncryptionKey()
	assert.Error(t, err)

	t.Setenv("TEST_ENGINE_KEY", "abc123")
	key, err := cfg.EncryptionKey()
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)
}
