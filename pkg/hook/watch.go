// Copyright 2026 Warpcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// frontMatter is the YAML header of a .warp/commands/*.md hook definition
// file, delimited by a leading and trailing "---" line. The markdown body
// after the second delimiter is documentation for humans; it is not parsed.
type frontMatter struct {
	Name    string   `yaml:"name"`
	Event   string   `yaml:"event"`
	Matcher string   `yaml:"matcher"`
	Command []string `yaml:"command"`
	Timeout string   `yaml:"timeout"`
}

// parseCommandFile loads one .warp/commands/*.md file into a HookDefinition.
func parseCommandFile(path string) (HookDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HookDefinition{}, err
	}
	text := string(data)
	if !strings.HasPrefix(strings.TrimSpace(text), "---") {
		return HookDefinition{}, fmt.Errorf("hook: %s: missing front matter", path)
	}
	parts := strings.SplitN(text, "---", 3)
	if len(parts) < 3 {
		return HookDefinition{}, fmt.Errorf("hook: %s: malformed front matter", path)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return HookDefinition{}, fmt.Errorf("hook: %s: parse front matter: %w", path, err)
	}
	if fm.Name == "" {
		fm.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	def := HookDefinition{
		Name:    fm.Name,
		Event:   Event(fm.Event),
		Matcher: fm.Matcher,
		Command: fm.Command,
	}
	if fm.Timeout != "" {
		d, err := time.ParseDuration(fm.Timeout)
		if err != nil {
			return HookDefinition{}, fmt.Errorf("hook: %s: invalid timeout %q: %w", path, fm.Timeout, err)
		}
		def.Timeout = d
	}
	if def.Event != PreToolExecution && def.Event != PostToolExecution {
		return HookDefinition{}, fmt.Errorf("hook: %s: event must be %q or %q, got %q", path, PreToolExecution, PostToolExecution, fm.Event)
	}
	return def, nil
}

// Watcher keeps Registry in sync with a directory of command/hook
// definition files, reloading a file on write and dropping its definition
// on removal, without ever restarting the process (SPEC_FULL.md §4.9).
type Watcher struct {
	dir      string
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// NewWatcher creates (if needed) dir and starts watching it for *.md files.
// Call Run in a goroutine to begin processing events; Close stops it.
func NewWatcher(dir string, registry *Registry, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("hook: mkdir %s: %w", dir, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hook: new fsnotify watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("hook: watch %s: %w", dir, err)
	}
	w := &Watcher{dir: dir, registry: registry, watcher: fw, logger: logger}
	w.loadAll()
	return w, nil
}

func (w *Watcher) loadAll() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		w.reload(filepath.Join(w.dir, e.Name()))
	}
}

func (w *Watcher) reload(path string) {
	def, err := parseCommandFile(path)
	if err != nil {
		w.logger.Warn("hook_command_load_failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.registry.Set(path, def)
	w.logger.Info("hook_command_loaded", zap.String("path", path), zap.String("name", def.Name))
}

// Run blocks, applying fsnotify events to the registry until ctx-like
// cancellation via Close. It is meant to run in its own goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ".md" {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.registry.Remove(ev.Name)
				w.logger.Info("hook_command_removed", zap.String("path", ev.Name))
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.reload(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("hook_watch_error", zap.Error(err))
		}
	}
}

// Close stops the underlying fsnotify watcher, which also unblocks Run.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
