package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must stay quiet before it is imported, so
// a payload still being written is not read half-way.
const settleDelay = 200 * time.Millisecond

// Watch runs an initial Scan of the inbox and then imports .json files as
// they appear, until ctx is cancelled. The inbox directory is created if
// it does not exist.
func Watch(ctx context.Context, in *Inbox, logger *slog.Logger) error {
	dir, err := in.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index: create inbox: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("index: watch inbox: %w", err)
	}
	if err := in.Scan(); err != nil {
		logger.Warn("watcher: initial scan failed", slog.String("error", err.Error()))
	}

	logger.Info("watcher: started", slog.String("inbox", dir))

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			for rel := range pending {
				in.Process(rel)
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
				continue
			}
			pending[filepath.Join(in.dir, name)] = struct{}{}
			scheduleSettle()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
