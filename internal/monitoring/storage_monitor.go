package monitoring

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/isdelr/devserver/internal/models"
	"github.com/isdelr/devserver/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
)

const alertCooldown = 15 * time.Minute

// UsageFunc reports filesystem usage for the volume containing path.
type UsageFunc func(path string) (*disk.UsageStat, error)

// StorageReport is the result of one storage check.
type StorageReport struct {
	UsedPercent float64
	FreeBytes   uint64
	BackupBytes int64
	BackupFiles int
}

// StorageMonitor watches the volume that holds the backup directory and raises
// an event when it fills past a threshold. It never deletes anything.
type StorageMonitor struct {
	backupDir string
	threshold float64
	eventSvc  services.EventServiceProvider
	usage     UsageFunc
	now       func() time.Time

	mu        sync.Mutex
	lastAlert time.Time
}

// NewStorageMonitor creates a new StorageMonitor backed by gopsutil.
func NewStorageMonitor(backupDir string, threshold float64, eventSvc services.EventServiceProvider) *StorageMonitor {
	return &StorageMonitor{
		backupDir: backupDir,
		threshold: threshold,
		eventSvc:  eventSvc,
		usage:     disk.Usage,
		now:       time.Now,
	}
}

// Check samples disk usage and the size of the backup directory.
func (m *StorageMonitor) Check() (StorageReport, error) {
	stat, err := m.usage(existingAncestor(m.backupDir))
	if err != nil {
		return StorageReport{}, fmt.Errorf("could not read disk usage: %w", err)
	}

	size, files, err := directorySize(m.backupDir)
	if err != nil {
		return StorageReport{}, fmt.Errorf("could not measure backup directory: %w", err)
	}

	report := StorageReport{
		UsedPercent: stat.UsedPercent,
		FreeBytes:   stat.Free,
		BackupBytes: size,
		BackupFiles: files,
	}
	log.Debug().
		Float64("used_percent", report.UsedPercent).
		Str("free", humanize.Bytes(report.FreeBytes)).
		Int("backup_files", report.BackupFiles).
		Msg("Storage check")

	m.alertIfFull(report)
	return report, nil
}

func (m *StorageMonitor) alertIfFull(report StorageReport) {
	if report.UsedPercent < m.threshold {
		return
	}

	m.mu.Lock()
	now := m.now()
	if !m.lastAlert.IsZero() && now.Sub(m.lastAlert) < alertCooldown {
		m.mu.Unlock()
		return
	}
	m.lastAlert = now
	m.mu.Unlock()

	msg := fmt.Sprintf("Disk usage at %.1f%% (%s free) on the volume holding %s; %d backups use %s.",
		report.UsedPercent, humanize.Bytes(report.FreeBytes), m.backupDir,
		report.BackupFiles, humanize.Bytes(uint64(report.BackupBytes)))
	log.Warn().Float64("used_percent", report.UsedPercent).Msg("Backup volume is nearly full")
	if err := m.eventSvc.CreateEvent("system.alert.disk", models.LevelWarn, msg); err != nil {
		log.Error().Err(err).Msg("Failed to record disk alert")
	}
}

// existingAncestor returns path or its nearest parent that exists, since the
// backup directory is only created on the first backup.
func existingAncestor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	for {
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return abs
		}
		abs = parent
	}
}

// directorySize sums regular files under dir. A missing dir counts as empty.
func directorySize(dir string) (int64, int, error) {
	var size int64
	var files int
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
			files++
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, 0, nil
	}
	return size, files, err
}
