package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher calls OnChange with the new contents whenever the watched file is
// written, created or renamed into place. Bursts of events are coalesced.
type Watcher struct {
	Path     string
	OnChange func(contents string)
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Run blocks until ctx is done. The parent directory is watched so editors
// that replace the file atomically are handled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	abs, err := filepath.Abs(w.Path)
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.Logger.Info().Str("path", abs).Msg("watching engine config")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("config watcher error")
		case <-fire:
			fire = nil
			b, err := os.ReadFile(abs)
			if err != nil {
				w.Logger.Warn().Err(err).Str("path", abs).Msg("read changed config")
				continue
			}
			w.Logger.Info().Str("path", abs).Int("bytes", len(b)).Msg("engine config changed")
			if w.OnChange != nil {
				w.OnChange(string(b))
			}
		}
	}
}
