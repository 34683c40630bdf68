package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	p, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxBytes, p.MaxBytes)
	assert.True(t, p.Allows(".PDF"))
	assert.True(t, p.Allows(".jpeg"))
	assert.False(t, p.Allows(".exe"))
	assert.False(t, p.Allows(""))
}

func TestLoad_OverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allowed_extensions: [PNG, \".pdf\", png]\nmax_bytes: 2048\n"), 0o644))

	p, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{".png", ".pdf"}, p.AllowedExtensions)
	assert.EqualValues(t, 2048, p.MaxBytes)
	assert.False(t, p.Allows(".jpg"))
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_bytes: 100\n"), 0o644))

	p, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, DefaultExtensions, p.AllowedExtensions)
	assert.EqualValues(t, 100, p.MaxBytes)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	neg := filepath.Join(dir, "neg.yaml")
	require.NoError(t, os.WriteFile(neg, []byte("max_bytes: -1\n"), 0o644))
	_, err := Load(context.Background(), neg)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("allowed_extensions: {\n"), 0o644))
	_, err = Load(context.Background(), bad)
	assert.Error(t, err)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
