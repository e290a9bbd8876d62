package jsreload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch loads the script at path and reloads it every time the file is
// written, after the debounce interval has passed without further events.
// It blocks until ctx is done and returns nil then. Reload failures after
// the first load go to the error handler and do not stop watching.
func (m *Module) Watch(ctx context.Context, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("jsreload: watch %s: %w", path, err)
	}
	if err := m.reloadFile(ctx, path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("jsreload: watch %s: %w", path, err)
	}
	defer watcher.Close()

	// Editors often replace files instead of writing them, so watch the
	// directory and filter by name.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("jsreload: watch %s: %w", path, err)
	}

	timer := time.NewTimer(m.cfg.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(m.cfg.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.fail(fmt.Errorf("jsreload: watch %s: %w", path, err))
		case <-timer.C:
			if err := m.reloadFile(ctx, path); err != nil {
				m.fail(err)
			}
		}
	}
}

func (m *Module) reloadFile(ctx context.Context, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("jsreload: read %s: %w", path, err)
	}
	return m.Reload(ctx, string(source))
}

func (m *Module) fail(err error) {
	m.cfg.logger.Warn("jsreload watch error", zap.Error(err))
	if m.cfg.onError != nil {
		m.cfg.onError(err)
	}
}
