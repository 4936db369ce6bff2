package schedule

import (
	"fmt"
	"path/filepath"

	"github.com/4ms/u-boot-stm32mp25/pkg/panel"
	"github.com/fsnotify/fsnotify"
)

// WatchProfiles loads panel profiles from path and reloads them whenever the
// file changes, so later runs pick up edited timings. Each reload replaces the
// whole set: a profile removed from the file no longer resolves from it. A
// file that fails to load on change is logged and the previous profiles stay
// in use.
func (r *Runner) WatchProfiles(path string) error {
	path = filepath.Clean(path)
	if err := r.loadProfiles(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// editors replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer watcher.Close()

		for {
			select {
			case <-r.ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := r.loadProfiles(path); err != nil {
					r.logger.Printf("Failed to reload panel profiles: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Printf("Profile watcher error: %v", err)
			}
		}
	}()

	r.logger.Printf("Watching panel profiles in %s", path)
	return nil
}

func (r *Runner) loadProfiles(path string) error {
	profiles, err := panel.LoadFile(path)
	if err != nil {
		return err
	}
	if err := r.profiles.Reset(profiles); err != nil {
		return err
	}
	r.logger.Printf("Loaded %d panel profiles from %s", len(profiles), path)
	return nil
}

// Profiles returns the profiles loaded from the watched file.
func (r *Runner) Profiles() []panel.Profile {
	return r.profiles.All()
}
