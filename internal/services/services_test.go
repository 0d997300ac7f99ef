package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/isdelr/devserver/internal/database"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

type recordingBroadcaster struct {
	messages [][]byte
}

func (b *recordingBroadcaster) Publish(message []byte) {
	b.messages = append(b.messages, message)
}
