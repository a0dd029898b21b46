package backup

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrune(t *testing.T) {
	t.Parallel()

	writeBackupFile := func(t *testing.T, dir, name string, modTime time.Time) {
		t.Helper()
		p := path.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("backup"), 0o644))
		require.NoError(t, os.Chtimes(p, modTime, modTime))
	}

	t.Run("keeps the most recent files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		base := time.Now().Add(-time.Hour)
		for i := 0; i < 5; i++ {
			name := BackupFilenamePrefix + "_" + base.Add(time.Duration(i)*time.Minute).Format(time.RFC3339) + ".db"
			writeBackupFile(t, dir, name, base.Add(time.Duration(i)*time.Minute))
		}

		require.NoError(t, Prune(dir, 2))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		writeBackupFile(t, dir, "unrelated.db", time.Now())
		writeBackupFile(t, dir, BackupFilenamePrefix+"_x.txt", time.Now())
		writeBackupFile(t, dir, BackupFilenamePrefix+"_a.db", time.Now())
		writeBackupFile(t, dir, BackupFilenamePrefix+"_b.db."+extension, time.Now())

		require.NoError(t, Prune(dir, 1))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 3)
	})

	t.Run("keep must be positive", func(t *testing.T) {
		t.Parallel()
		require.Error(t, Prune(t.TempDir(), 0))
	})
}
