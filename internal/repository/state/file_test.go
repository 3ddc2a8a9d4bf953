package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))
	s, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, s)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns equal state.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.yaml")
	repo := NewFileRepository(file)

	want := &Snapshot{
		SavedAt: time.Now().UTC().Truncate(time.Second),
		Alarms: []domain.State{
			{Index: 21, Code: "HIGH_DISCHARGE_PRESSURE", Active: true, Acknowledged: true, ConditionTrue: true},
			{Index: 0, Code: "LOW_SUCTION_PRESSURE", FirstTrueAt: 1200, Pending: true},
		},
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.True(t, want.SavedAt.Equal(got.SavedAt))
	require.Equal(t, want.Alarms, got.Alarms)

	_, err = os.Stat(file)
	require.NoError(t, err)

	_, err = os.Stat(file + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFileRepository_Corrupt reports decode errors.
func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(file, []byte("alarms: [oops"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
