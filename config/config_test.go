package config

import (
	"os"
	"path/filepath"
	"testing"

	"cs2mem/session"
	"cs2mem/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cs2mem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv(EnvBackend, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cs2.exe", cfg.ProcessName)
	backend, err := cfg.BackendKind()
	require.NoError(t, err)
	assert.Equal(t, session.BackendIntrospection, backend)

	assert.Len(t, cfg.SchemaClasses, 14)
	assert.Contains(t, cfg.SchemaClasses, "C_SmokeGrenadeProjectile")

	require.NotEmpty(t, cfg.Signatures)
	for _, d := range cfg.Signatures {
		assert.NoError(t, d.Validate(), d.Name)
	}

	assert.Equal(t, uint64(0x188), cfg.Schema.ScopeVector)
	assert.Equal(t, session.ModuleSchemaSystem, cfg.Schema.System.Module)
	assert.Equal(t, signature.ResolveRIP, cfg.Schema.System.Resolve)
	assert.Equal(t, uint64(0x10), cfg.Convars.EntryStride)
	assert.Equal(t, session.ModuleTier0, cfg.Convars.List.Module)
	assert.Contains(t, cfg.Convars.Required, "sv_gravity")
}

func TestOverlayFile(t *testing.T) {
	t.Setenv(EnvBackend, "")

	path := writeConfig(t, `
backend: direct
memprocfs:
  mount_point: /media/vmm
schema_classes: [C_BaseEntity]
schema:
  field_offset: 0x18
convars:
  required: []
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	backend, err := cfg.BackendKind()
	require.NoError(t, err)
	assert.Equal(t, session.BackendDirectScan, backend)
	assert.Equal(t, "/media/vmm", cfg.MemProcFS.MountPoint)
	assert.Equal(t, []string{"C_BaseEntity"}, cfg.SchemaClasses)
	assert.Equal(t, uint64(0x18), cfg.Schema.FieldOffset)
	// untouched keys keep their defaults
	assert.Equal(t, uint64(0x560), cfg.Schema.ScopeClasses)
	assert.Equal(t, "cs2.exe", cfg.ProcessName)
	assert.Empty(t, cfg.Convars.Required)
	assert.Equal(t, uint64(0x30), cfg.Convars.Flags)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvBackend, "vmm")

	cfg, err := Load(writeConfig(t, "backend: direct\n"))
	require.NoError(t, err)
	assert.Equal(t, "vmm", cfg.Backend)
}

func TestValidation(t *testing.T) {
	t.Setenv(EnvBackend, "")

	tests := map[string]string{
		"bad backend":      "backend: pcileech\n",
		"empty process":    "process_name: \"\"\n",
		"bad pattern":      "signatures:\n  - {name: a, module: client.dll, pattern: \"XX\"}\n",
		"duplicate":        "signatures:\n  - {name: a, module: client.dll, pattern: \"90\"}\n  - {name: a, module: client.dll, pattern: \"91\"}\n",
		"bad resolve mode": "signatures:\n  - {name: a, module: client.dll, pattern: \"90\", resolve: deref}\n",
		"zero stride":      "convars:\n  entry_stride: 0\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "backend: [\n"))
	assert.Error(t, err)
}
