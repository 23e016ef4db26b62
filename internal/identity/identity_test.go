package identity

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVoterIDFormat(t *testing.T) {
	id := NewVoterID()

	assert.True(t, strings.HasPrefix(id, "user_"))
	parts := strings.Split(id, "_")
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 9)
}

func TestNewVoterIDsAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewVoterID()
		assert.False(t, seen[id], "voter ids must not collide")
		seen[id] = true
	}
}

func TestGetOrCreatePersistsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voter_id")
	provider := NewProvider(path)

	first := provider.GetOrCreateVoterID()
	require.NotEmpty(t, first)

	second := provider.GetOrCreateVoterID()
	assert.Equal(t, first, second)

	// a fresh provider over the same file sees the same identity
	again := NewProvider(path).GetOrCreateVoterID()
	assert.Equal(t, first, again)
}

func TestGetOrCreateCreatesStateDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "voter_id")
	provider := NewProvider(path)

	first := provider.GetOrCreateVoterID()
	second := provider.GetOrCreateVoterID()
	assert.Equal(t, first, second)
}

func TestUnusableStatePathDegradesToFreshIDs(t *testing.T) {
	// a directory at the id path makes both read and write fail
	dir := t.TempDir()
	provider := NewProvider(dir)

	first := provider.GetOrCreateVoterID()
	second := provider.GetOrCreateVoterID()

	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second, "without persistence every call mints a fresh id")
}
