package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of write/rename events editors emit
// per save into a single reload.
const settleDelay = 250 * time.Millisecond

// Watch monitors path and calls onChange with the freshly loaded Config
// whenever the file's contents actually change. Saves that leave the
// contents identical are skipped, and a reload that fails to parse or
// validate is rejected with the previous config staying active. Runs
// until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	lastSum, _ := checksum(path)

	slog.Info("config: watching for changes", "path", path)

	settle := time.NewTimer(settleDelay)
	if !settle.Stop() {
		<-settle.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending && !settle.Stop() {
				<-settle.C
			}
			settle.Reset(settleDelay)
			pending = true

		case <-settle.C:
			pending = false
			// Atomic saves replace the inode; re-arm the watch before
			// reading so the next save is not missed.
			_ = watcher.Add(path)

			sum, err := checksum(path)
			if err != nil {
				slog.Error("config: reread failed — keeping previous config",
					"path", path, "err", err)
				continue
			}
			if bytes.Equal(sum, lastSum) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload rejected — keeping previous config",
					"path", path, "err", err)
				continue
			}
			lastSum = sum

			slog.Info("config: reloaded",
				"path", path,
				"sources", len(cfg.Engine.Sources),
				"alert_rules", len(cfg.Engine.Alerts.Rules),
			)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

func checksum(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(b)
	return sum[:], nil
}
