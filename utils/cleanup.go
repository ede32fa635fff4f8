package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"student-roster-backend/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	ExportDir      = "./public/files"
	ExportFileTTL  = 24 * time.Hour
	cleanupSpec    = "0 1 * * *"
	maxRetries     = 3
	defaultBackoff = 2 * time.Minute
)

// CleanupExpiredFile removes filePath when it is older than ttl. It reports
// whether the file was deleted.
func CleanupExpiredFile(filePath string, ttl time.Duration, now time.Time) (bool, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return false, fmt.Errorf("error checking file: %w", err)
	}

	if now.Sub(info.ModTime()) <= ttl {
		return false, nil
	}
	if err := os.Remove(filePath); err != nil {
		return false, fmt.Errorf("error deleting expired file: %w", err)
	}
	return true, nil
}

// CleanupAllExpired walks dir (non-recursively) and deletes every file older
// than ttl. It returns the number of deleted files.
func CleanupAllExpired(dir string, ttl time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("error reading files directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filePath := filepath.Join(dir, entry.Name())
		removed, err := CleanupExpiredFile(filePath, ttl, now)
		if err != nil {
			config.Logger.Warn("Error cleaning up file", zap.String("file", filePath), zap.Error(err))
			continue
		}
		if removed {
			deleted++
			config.Logger.Debug("Expired file deleted", zap.String("file", filePath))
		}
	}
	return deleted, nil
}

// RunScheduledCleanup schedules a daily 1 AM cleanup of dir. The caller owns
// the returned scheduler and should Stop it on shutdown.
func RunScheduledCleanup(dir string, ttl time.Duration, notifyEmail string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(cleanupSpec, func() {
		config.Logger.Info("Running scheduled cleanup task", zap.String("dir", dir))

		var lastErr error
		for attempt := 1; attempt <= maxRetries; attempt++ {
			deleted, err := CleanupAllExpired(dir, ttl, time.Now())
			if err == nil {
				config.Logger.Info("Scheduled cleanup finished", zap.Int("deleted", deleted))
				return
			}
			lastErr = err
			config.Logger.Warn("Cleanup attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(defaultBackoff)
		}

		config.Logger.Error("Cleanup task failed after retries", zap.Int("retries", maxRetries), zap.Error(lastErr))
		if notifyEmail != "" {
			_ = SendEmail(
				notifyEmail,
				fmt.Sprintf("The scheduled cleanup of %s failed after %d attempts: %v", dir, maxRetries, lastErr),
				"Cleanup Task Failed",
				"",
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	c.Start()
	return c, nil
}
