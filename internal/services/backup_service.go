package services

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/devserver/internal/jsonfmt"
	"github.com/isdelr/devserver/internal/models"
	"github.com/rs/zerolog/log"
)

// timestampLayout renders local wall-clock time as YYYYMMDD_HHMMSS.
const timestampLayout = "20060102_150405"

var (
	// ErrInvalidJSON is returned when a payload is not UTF-8 encoded JSON.
	ErrInvalidJSON = jsonfmt.ErrInvalid
	// ErrBackupNotFound is returned when no index entry matches an ID.
	ErrBackupNotFound = errors.New("backup not found")
)

// BackupServiceProvider defines the interface for backup services.
type BackupServiceProvider interface {
	CreateBackup(payload []byte) (models.Backup, error)
	GetBackups() ([]models.Backup, error)
	GetBackupByID(backupID string) (models.Backup, error)
}

// BackupService writes JSON payloads to timestamped files and indexes them.
type BackupService struct {
	db           *sql.DB
	eventService EventServiceProvider
	backupDir    string
	uniqueNames  bool
	now          func() time.Time
}

// NewBackupService creates a new BackupService. The backup directory is not
// created until the first backup is written.
func NewBackupService(db *sql.DB, eventService EventServiceProvider, backupDir string, uniqueNames bool) *BackupService {
	return &BackupService{
		db:           db,
		eventService: eventService,
		backupDir:    backupDir,
		uniqueNames:  uniqueNames,
		now:          time.Now,
	}
}

// CreateBackup validates payload and writes it, pretty-printed, to
// <backupDir>/backup_<YYYYMMDD_HHMMSS>.json. Without unique names, two
// backups in the same second share a file name and the later one wins.
func (s *BackupService) CreateBackup(payload []byte) (models.Backup, error) {
	formatted, err := jsonfmt.Indent(payload)
	if err != nil {
		s.recordEvent("backup.invalid", models.LevelWarn, "Backup rejected: invalid JSON.")
		return models.Backup{}, err
	}

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return models.Backup{}, s.storageFailure(fmt.Errorf("could not create backup directory: %w", err))
	}

	now := s.now()
	backup := models.Backup{
		Name:      s.fileName(now),
		Size:      int64(len(formatted)),
		CreatedAt: now.UTC(),
	}
	backup.Path = filepath.Join(s.backupDir, backup.Name)

	if err := os.WriteFile(backup.Path, formatted, 0644); err != nil {
		return models.Backup{}, s.storageFailure(fmt.Errorf("could not write backup file: %w", err))
	}

	// The file is the backup; the index is best effort.
	if err := s.index(&backup); err != nil {
		log.Warn().Err(err).Str("path", backup.Path).Msg("Failed to index backup")
	}
	s.recordEvent("backup.create", models.LevelInfo, fmt.Sprintf("Backup %s created.", backup.Name))

	return backup, nil
}

// GetBackups lists indexed backups, newest first.
func (s *BackupService) GetBackups() ([]models.Backup, error) {
	rows, err := s.db.Query("SELECT id, name, path, size, created_at FROM backups ORDER BY created_at DESC, name DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backups := []models.Backup{}
	for rows.Next() {
		var backup models.Backup
		if err := rows.Scan(&backup.ID, &backup.Name, &backup.Path, &backup.Size, &backup.CreatedAt); err != nil {
			return nil, err
		}
		backups = append(backups, backup)
	}
	return backups, rows.Err()
}

// GetBackupByID retrieves a single backup by its ID.
func (s *BackupService) GetBackupByID(backupID string) (models.Backup, error) {
	var backup models.Backup
	row := s.db.QueryRow("SELECT id, name, path, size, created_at FROM backups WHERE id = ?", backupID)
	err := row.Scan(&backup.ID, &backup.Name, &backup.Path, &backup.Size, &backup.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Backup{}, fmt.Errorf("%w: %s", ErrBackupNotFound, backupID)
		}
		return models.Backup{}, err
	}
	return backup, nil
}

func (s *BackupService) fileName(t time.Time) string {
	stamp := t.Format(timestampLayout)
	if s.uniqueNames {
		return fmt.Sprintf("backup_%s_%s.json", stamp, uuid.New().String()[:8])
	}
	return fmt.Sprintf("backup_%s.json", stamp)
}

// index upserts the entry by path so an overwritten file keeps its ID.
func (s *BackupService) index(backup *models.Backup) error {
	row := s.db.QueryRow(`
		INSERT INTO backups (id, name, path, size, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET size = excluded.size, created_at = excluded.created_at
		RETURNING id`,
		uuid.New().String(), backup.Name, backup.Path, backup.Size, backup.CreatedAt)
	return row.Scan(&backup.ID)
}

func (s *BackupService) storageFailure(err error) error {
	s.recordEvent("backup.error", models.LevelError, fmt.Sprintf("Backup failed: %v", err))
	return err
}

// recordEvent feeds the event log. Operator console lines are the handler's job.
func (s *BackupService) recordEvent(eventType, level, message string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(eventType, level, message); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
