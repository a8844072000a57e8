// Package loader ties the preprocessor, transform, and engine packages
// together: read a script file, preprocess it, hoist it into a
// PipelineMap, and optionally watch it for changes. Grounded on teacher
// runner/loader.go (LoadPipeline/LoadPipelineFromReader).
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/phlowdotdev/phlow/engine"
	"github.com/phlowdotdev/phlow/preprocessor"
	"github.com/phlowdotdev/phlow/value"
)

// Document is a loaded, transformed script: its pipeline map plus the raw
// "main" configuration block (the script's own top-level "main" field, used
// to seed a Context's Main value) and its declared modules (spec.md §6's
// modules: array of ModuleDecl, unparsed here — see module.ParseDecls).
type Document struct {
	Pipelines engine.PipelineMap
	Main      value.Value
	Modules   value.Value
}

// Load reads and compiles the script at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %q: %w", path, err)
	}
	defer f.Close()
	return loadFromReader(f, filepath.Dir(path))
}

// LoadFromReader compiles a script read from r (e.g. stdin), resolving any
// !include tags relative to baseDir.
func LoadFromReader(r io.Reader, baseDir string) (*Document, error) {
	return loadFromReader(r, baseDir)
}

func loadFromReader(r io.Reader, baseDir string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: read: %w", err)
	}

	var raw value.Value
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("loader: parse yaml: %w", err)
	}

	processed, err := preprocessor.Process(raw, baseDir)
	if err != nil {
		return nil, err
	}

	main := value.Null()
	modules := value.Array(nil)
	steps := value.Array(nil)
	if processed.Kind() == value.KindObject {
		if m, ok := processed.Obj().Get("main"); ok {
			main = m
		}
		if m, ok := processed.Obj().Get("modules"); ok {
			modules = m
		}
		if s, ok := processed.Obj().Get("steps"); ok {
			steps = s
		}
	} else {
		steps = processed
	}

	// Transform must only ever see the script's own steps list, never the
	// surrounding main/modules/name/version envelope — matching
	// original_source/phlow-runtime/src/loader/mod.rs's get_steps(), which
	// extracts script["steps"] before handing anything to the transform.
	// Folding the whole document in would make Transform's object branch
	// treat every non-"steps" key (main, modules, name, version) as a
	// synthetic leading step, shifting every real step's index by one.
	stepsDoc := value.NewObject()
	stepsDoc.Set("steps", steps)

	pm, err := engine.Transform(value.FromObject(stepsDoc))
	if err != nil {
		return nil, fmt.Errorf("loader: transform: %w", err)
	}

	return &Document{Pipelines: pm, Main: main, Modules: modules}, nil
}

// Watcher recompiles a script's Document whenever the script file at path is
// written or created, for the --watch dev convenience described in
// SPEC_FULL.md §6. Files pulled in through !include are not watched: a change
// to one of them does not trigger a recompile.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	Changes chan *Document
	Errors  chan error
}

// NewWatcher starts watching path and delivers a freshly-compiled Document
// on Changes every time the file is written.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("loader: watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("loader: watch %q: %w", path, err)
	}

	w := &Watcher{path: path, watcher: fw, Changes: make(chan *Document, 1), Errors: make(chan error, 1)}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			doc, err := Load(w.path)
			if err != nil {
				w.Errors <- err
				continue
			}
			w.Changes <- doc
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.Errors <- err
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
