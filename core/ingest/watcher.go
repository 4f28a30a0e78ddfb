package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"
	"github.com/toriisent/yeezyplayer-store/repository"
	"github.com/toriisent/yeezyplayer-store/storage"

	"github.com/fsnotify/fsnotify"
)

// audioExts are the file types the watcher will pick up.
var audioExts = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".wav":  true,
}

// Watcher watches a local drop directory and ingests new audio files:
// upload to object storage, then register a track on the target
// release. Files are ingested once writes have settled.
type Watcher struct {
	dir       string
	releaseID string
	trackRepo repository.TrackRepository
	fsWatcher *fsnotify.Watcher
}

// NewWatcher creates a watcher over cfg.ImportDir, creating the
// directory if needed.
func NewWatcher(cfg *config.Config, trackRepo repository.TrackRepository, releaseID string) (*Watcher, error) {
	if err := os.MkdirAll(cfg.ImportDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create import dir %s: %w", cfg.ImportDir, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(cfg.ImportDir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.ImportDir, err)
	}

	return &Watcher{
		dir:       cfg.ImportDir,
		releaseID: releaseID,
		trackRepo: trackRepo,
		fsWatcher: fsWatcher,
	}, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !audioExts[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			if !waitForSettle(event.Name) {
				continue
			}
			if err := w.ingest(ctx, event.Name); err != nil {
				logger.Error("import failed", logger.String("file", event.Name), logger.ErrorField(err))
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", logger.ErrorField(err))
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// waitForSettle waits until the file size stops changing, so partially
// copied files are not uploaded. Returns false if the file vanished or
// is still growing when the polls run out; a later Write event retries
// the file.
func waitForSettle(name string) bool {
	return settle(name, 500*time.Millisecond)
}

func settle(name string, interval time.Duration) bool {
	var lastSize int64 = -1
	for i := 0; i < 10; i++ {
		info, err := os.Stat(name)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()
		time.Sleep(interval)
	}
	return false
}

// ingest uploads one file and creates its track. The file is removed
// from the drop directory on success.
func (w *Watcher) ingest(ctx context.Context, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}

	base := filepath.Base(name)
	audioURL, err := storage.UploadAudio(ctx, base, f, info.Size())
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(base, filepath.Ext(base))
	track := &model.Track{
		ReleaseID: w.releaseID,
		Title:     title,
		AudioURL:  audioURL,
	}
	if err := w.trackRepo.Create(ctx, track); err != nil {
		return fmt.Errorf("failed to register track for %s: %w", base, err)
	}

	if err := os.Remove(name); err != nil {
		logger.Warn("could not remove imported file", logger.String("file", name), logger.ErrorField(err))
	}

	logger.Info("track imported",
		logger.String("trackId", track.ID),
		logger.String("title", title),
		logger.String("audioUrl", audioURL))
	return nil
}
