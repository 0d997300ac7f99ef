package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)

func newTestBackupService(t *testing.T, uniqueNames bool) (*BackupService, *EventService, string) {
	t.Helper()
	db := newTestDB(t)
	events := NewEventService(db, nil)
	dir := filepath.Join(t.TempDir(), "project", "backup")
	svc := NewBackupService(db, events, dir, uniqueNames)
	svc.now = func() time.Time { return fixedTime }
	return svc, events, dir
}

func eventTypes(t *testing.T, events *EventService) []string {
	t.Helper()
	recent, err := events.GetRecentEvents(100)
	require.NoError(t, err)
	var types []string
	for _, e := range recent {
		types = append(types, e.Type)
	}
	return types
}

func TestCreateBackupWritesPrettyFile(t *testing.T) {
	svc, events, dir := newTestBackupService(t, false)

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err), "backup dir must be created lazily")

	backup, err := svc.CreateBackup([]byte(`{"a":1,"é":"café"}`))
	require.NoError(t, err)

	assert.Equal(t, "backup_20240101_120000.json", backup.Name)
	assert.Equal(t, filepath.Join(dir, "backup_20240101_120000.json"), backup.Path)
	assert.NotEmpty(t, backup.ID)

	content, err := os.ReadFile(backup.Path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"é\": \"café\"\n}", string(content))
	assert.Equal(t, int64(len(content)), backup.Size)

	assert.Contains(t, eventTypes(t, events), "backup.create")
}

func TestCreateBackupEventMessages(t *testing.T) {
	svc, events, dir := newTestBackupService(t, false)

	_, err := svc.CreateBackup([]byte(`{"a":1}`))
	require.NoError(t, err)
	_, err = svc.CreateBackup([]byte(`{"a":`))
	require.Error(t, err)

	recent, err := events.GetRecentEvents(10)
	require.NoError(t, err)
	messages := map[string]string{}
	for _, e := range recent {
		messages[e.Type] = e.Message
	}
	assert.Equal(t, "Backup backup_20240101_120000.json created.", messages["backup.create"])
	assert.Equal(t, "Backup rejected: invalid JSON.", messages["backup.invalid"])
	assert.NotContains(t, messages["backup.create"], dir, "the full path is only logged by the handler")
}

func TestCreateBackupAcceptsAnyJSONValue(t *testing.T) {
	payloads := []string{`[1,"two",{"three":3}]`, `"just a string"`, `12.75`, `null`, `false`}
	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			svc, _, _ := newTestBackupService(t, false)

			backup, err := svc.CreateBackup([]byte(payload))
			require.NoError(t, err)

			content, err := os.ReadFile(backup.Path)
			require.NoError(t, err)

			var want, got interface{}
			require.NoError(t, json.Unmarshal([]byte(payload), &want))
			require.NoError(t, json.Unmarshal(content, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestCreateBackupRejectsInvalidJSON(t *testing.T) {
	svc, events, dir := newTestBackupService(t, false)

	for _, payload := range [][]byte{[]byte(`{"a":`), []byte(``), {0xff, 0xfe}} {
		_, err := svc.CreateBackup(payload)
		assert.ErrorIs(t, err, ErrInvalidJSON)
	}

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "no directory or file may be written for invalid input")
	assert.Contains(t, eventTypes(t, events), "backup.invalid")
}

func TestCreateBackupSameSecondOverwrites(t *testing.T) {
	svc, _, dir := newTestBackupService(t, false)

	first, err := svc.CreateBackup([]byte(`{"n":1}`))
	require.NoError(t, err)
	second, err := svc.CreateBackup([]byte(`{"n":2}`))
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.ID, second.ID, "overwritten file keeps its index entry")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	content, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(content))

	backups, err := svc.GetBackups()
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestCreateBackupUniqueNames(t *testing.T) {
	svc, _, dir := newTestBackupService(t, true)

	first, err := svc.CreateBackup([]byte(`{"n":1}`))
	require.NoError(t, err)
	second, err := svc.CreateBackup([]byte(`{"n":2}`))
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^backup_20240101_120000_[0-9a-f]{8}\.json$`)
	assert.Regexp(t, pattern, first.Name)
	assert.Regexp(t, pattern, second.Name)
	assert.NotEqual(t, first.Name, second.Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCreateBackupDirectoryFailure(t *testing.T) {
	svc, events, dir := newTestBackupService(t, false)

	// A regular file where the directory should be.
	require.NoError(t, os.MkdirAll(filepath.Dir(dir), 0755))
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0644))

	_, err := svc.CreateBackup([]byte(`{"a":1}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidJSON)
	assert.Contains(t, err.Error(), "could not create backup directory")
	assert.Contains(t, eventTypes(t, events), "backup.error")
}

func TestCreateBackupWriteFailure(t *testing.T) {
	svc, _, dir := newTestBackupService(t, false)

	// A directory occupying the target file name.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "backup_20240101_120000.json"), 0755))

	_, err := svc.CreateBackup([]byte(`{"a":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not write backup file")
}

func TestCreateBackupSurvivesIndexFailure(t *testing.T) {
	svc, _, _ := newTestBackupService(t, false)
	require.NoError(t, svc.db.Close())

	backup, err := svc.CreateBackup([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.FileExists(t, backup.Path)
}

func TestGetBackups(t *testing.T) {
	svc, _, _ := newTestBackupService(t, false)

	empty, err := svc.GetBackups()
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	older, err := svc.CreateBackup([]byte(`{"n":1}`))
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedTime.Add(time.Minute) }
	newer, err := svc.CreateBackup([]byte(`{"n":2}`))
	require.NoError(t, err)

	backups, err := svc.GetBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, newer.ID, backups[0].ID)
	assert.Equal(t, older.ID, backups[1].ID)
	assert.Equal(t, "backup_20240101_120100.json", backups[0].Name)
	assert.True(t, fixedTime.Add(time.Minute).Equal(backups[0].CreatedAt))
}

func TestGetBackupByID(t *testing.T) {
	svc, _, _ := newTestBackupService(t, false)

	created, err := svc.CreateBackup([]byte(`{"n":1}`))
	require.NoError(t, err)

	found, err := svc.GetBackupByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Path, found.Path)
	assert.Equal(t, created.Size, found.Size)

	_, err = svc.GetBackupByID("does-not-exist")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}
