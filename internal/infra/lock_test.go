package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerLockIsExclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := NewConsumerLock(dir, "pingqueue")
	require.NoError(t, err)
	second, err := NewConsumerLock(dir, "pingqueue")
	require.NoError(t, err)

	require.NoError(t, first.TryLock())
	err = second.TryLock()
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.Contains(t, err.Error(), second.Path())

	require.NoError(t, first.Unlock())
	require.NoError(t, second.TryLock())
	require.NoError(t, second.Unlock())
}

func TestConsumerLockDirectoryError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := NewConsumerLock(filepath.Join(file, "locks"), "pingqueue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create lock directory")
}

func TestConsumerLockSanitizesQueueName(t *testing.T) {
	dir := t.TempDir()

	lock, err := NewConsumerLock(dir, "../bus/ping queue")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(lock.Path()))
	assert.Equal(t, "bus-ping-queue.lock", filepath.Base(lock.Path()))
}
