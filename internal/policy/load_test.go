package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduceon/acteledger/internal/policy"
	"github.com/caduceon/acteledger/internal/record"
)

func compile(t *testing.T, src string) (*policy.Policy, error) {
	t.Helper()

	v := cuecontext.New().CompileString(src)
	return policy.Compile(v)
}

func TestCompile(t *testing.T) {
	p, err := compile(t, `
grants: {
	alice: ["admin", "validator"]
	carol: ["audit"]
}
versions: {
	v2026: {
		name:           "CCAM v2026"
		checksum:       "sha256:abc123"
		effective_from: 1767225600
	}
}
`)
	require.NoError(t, err)

	require.Len(t, p.Grants, 2)
	assert.Equal(t, record.Principal("alice"), p.Grants[0].Principal)
	assert.Equal(t, []record.Capability{record.CapabilityAdmin, record.CapabilityValidator}, p.Grants[0].Capabilities)
	assert.Equal(t, record.Principal("carol"), p.Grants[1].Principal)

	require.Len(t, p.Versions, 1)
	v := p.Versions[0]
	assert.Equal(t, "v2026", v.VersionCode)
	assert.Equal(t, "CCAM v2026", v.Name)
	assert.Equal(t, "sha256:abc123", v.Checksum)
	assert.Equal(t, int64(1767225600), v.EffectiveFrom)
	assert.Zero(t, v.EffectiveUntil)
}

func TestCompile_GrantsOnly(t *testing.T) {
	p, err := compile(t, `grants: bob: ["validator"]`)
	require.NoError(t, err)
	assert.Len(t, p.Grants, 1)
	assert.Empty(t, p.Versions)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			name:    "unknown capability",
			src:     `grants: alice: ["superuser"]`,
			wantMsg: "superuser",
		},
		{
			name:    "empty capability list",
			src:     `grants: alice: []`,
			wantMsg: "at least one capability",
		},
		{
			name:    "capability not a string",
			src:     `grants: alice: [42]`,
			wantMsg: "capability must be a string",
		},
		{
			name:    "grants not a struct of lists",
			src:     `grants: alice: "admin"`,
			wantMsg: "expected a list of capabilities",
		},
		{
			name:    "version missing name",
			src:     `versions: v2026: checksum: "sha256:abc"`,
			wantMsg: "name is required",
		},
		{
			name:    "effective_from not an integer",
			src:     `versions: v2026: {name: "x", effective_from: "soon"}`,
			wantMsg: "effective_from",
		},
		{
			name:    "empty policy",
			src:     `other: 1`,
			wantMsg: "no grants and no versions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			require.Error(t, err)

			var cerr *policy.CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Error(), tt.wantMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "grants.cue", `
package ledgerpolicy

grants: alice: ["admin"]
`)
	writePolicyFile(t, dir, "versions.cue", `
package ledgerpolicy

versions: v2026: name: "CCAM v2026"
`)

	p, err := policy.Load(dir)
	require.NoError(t, err)
	assert.Len(t, p.Grants, 1)
	assert.Len(t, p.Versions, 1)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := policy.Load(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoad_NoCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "notes.txt", "not a policy")

	_, err := policy.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

func writePolicyFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
