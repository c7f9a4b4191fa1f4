package recommend

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch 监听已加载的目录与评分文件，变化后（防抖）重新加载对应索引。
// 监听的是文件所在目录，以覆盖“写临时文件再 rename”的替换方式。
// 阻塞直到 ctx 结束。
func (e *Engine) Watch(ctx context.Context) error {
	e.loadMu.Lock()
	targets := map[string]func(context.Context, string) error{}
	if e.catalogPath != "" {
		targets[filepath.Clean(e.catalogPath)] = e.LoadCatalog
	}
	if e.ratingsPath != "" {
		targets[filepath.Clean(e.ratingsPath)] = e.LoadRatings
	}
	e.loadMu.Unlock()
	if len(targets) == 0 {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := map[string]struct{}{}
	for path := range targets {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	pending := map[string]*time.Timer{}
	fire := make(chan string, len(targets))
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(ev.Name)
			if _, watched := targets[path]; !watched {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if t, ok := pending[path]; ok {
				t.Reset(e.cfg.WatchDebounce)
				continue
			}
			pending[path] = time.AfterFunc(e.cfg.WatchDebounce, func() {
				select {
				case fire <- path:
				case <-ctx.Done():
				}
			})
		case path := <-fire:
			delete(pending, path)
			start := time.Now()
			if err := targets[path](ctx, path); err != nil {
				e.logger.Error().Err(err).Str("path", path).Msg("reload failed, keeping previous index")
				continue
			}
			e.logger.Info().Str("path", path).Dur("elapsed", time.Since(start)).Msg("index reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}
