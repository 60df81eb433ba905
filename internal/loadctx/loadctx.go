// Package loadctx carries the on-disk context a loaded program runs with:
// the program's own directory (for relative write paths) and an optional
// inserts directory whose files contribute reachable interpolation keys.
package loadctx

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Context is the pluggable directory-backed key source the interpolation
// engine and analyzer consult. Safe for concurrent reads; rescan is
// called by the fsnotify watcher goroutine, so writes are serialized
// through a mutex.
type Context struct {
	ProgramDir string
	InsertsDir string // empty if not configured

	mu      sync.RWMutex
	keys    map[string]string // insert key -> backing file name ("" for directory-less context)
	watcher *fsnotify.Watcher
}

// New scans InsertsDir (if set) once and starts a watcher that keeps the
// key set current as files are added or removed.
func New(programDir, insertsDir string) (*Context, error) {
	c := &Context{ProgramDir: programDir, InsertsDir: insertsDir, keys: map[string]string{}}
	if insertsDir == "" {
		return c, nil
	}
	if err := c.rescan(); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		// A missing watcher degrades to scan-on-lookup rather than failing
		// the whole run; inserts directories are usually small and local.
		return c, nil
	}
	if err := w.Add(insertsDir); err == nil {
		c.watcher = w
		go c.watch()
	} else {
		w.Close()
	}
	return c, nil
}

func (c *Context) watch() {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				_ = c.rescan()
			}
		case _, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (c *Context) Close() {
	if c.watcher != nil {
		c.watcher.Close()
	}
}

func (c *Context) rescan() error {
	entries, err := os.ReadDir(c.InsertsDir)
	if err != nil {
		return err
	}
	keys := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		key := name
		if strings.HasSuffix(name, ".json5") {
			key = strings.TrimSuffix(name, ".json5")
		}
		keys[key] = name
	}
	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return nil
}

// HasKey reports whether key names a reachable file in the inserts
// directory ("<k>" or "<k>.json5"), per spec.md §3's invariant.
func (c *Context) HasKey(key string) bool {
	if c.InsertsDir == "" {
		return false
	}
	c.mu.RLock()
	_, ok := c.keys[key]
	c.mu.RUnlock()
	if ok {
		return true
	}
	// fall back to a direct stat: the watcher may not have caught up, or
	// may be disabled entirely.
	for _, candidate := range []string{key, key + ".json5"} {
		if candidate == key && strings.HasSuffix(key, ".json5") {
			continue // a .json5 file contributes its stem, not its full name
		}
		if st, err := os.Stat(filepath.Join(c.InsertsDir, candidate)); err == nil && !st.IsDir() {
			return true
		}
	}
	return false
}

// FilePath returns the path of the json5 variant and the plain variant for
// key, in the resolution order get_interpdata uses.
func (c *Context) FilePath(key string) (json5Path, plainPath string) {
	if c.InsertsDir == "" {
		return "", ""
	}
	return filepath.Join(c.InsertsDir, key+".json5"), filepath.Join(c.InsertsDir, key)
}

// Keys returns a snapshot of every currently reachable inserts-directory
// key, used by the analyzer's static reachability pass.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.keys))
	for k := range c.keys {
		out = append(out, k)
	}
	return out
}
