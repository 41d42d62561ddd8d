// Package registry implements the file-backed service registry core.
// One file per definition under a root directory; an in-memory index
// caches the directory and is reconciled from disk on every load.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/svcreg/internal/log"
	"github.com/zjrosen/svcreg/internal/naming"
	"github.com/zjrosen/svcreg/internal/pubsub"
	"github.com/zjrosen/svcreg/internal/replication"
	"github.com/zjrosen/svcreg/internal/serializer"
	"github.com/zjrosen/svcreg/internal/service"
	"github.com/zjrosen/svcreg/internal/watcher"
)

// Registry errors
var (
	ErrRootMissing  = errors.New("registry root does not exist")
	ErrNotDirectory = errors.New("registry root is not a directory")
	ErrNoSerializer = errors.New("no serializer could persist the definition")
)

// Registry owns the authoritative in-memory index of service
// definitions and keeps it reconciled against the directory on disk.
type Registry struct {
	root        string
	scheme      *naming.Scheme
	serializers []serializer.Serializer
	strategy    replication.Strategy
	events      *pubsub.Broker[service.Definition]
	ownEvents   bool
	tracer      trace.Tracer

	// opMu serializes whole-index Load and file-coupled Delete.
	// Save, Update and lookups run against the index snapshot
	// without taking it.
	opMu  sync.Mutex
	index *index

	lastAssignedID atomic.Int64

	watch     bool
	watcher   *watcher.Watcher
	watchWG   sync.WaitGroup
	closeOnce sync.Once
}

var _ replication.Updater = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithReplication sets the replication strategy. Defaults to a no-op.
func WithReplication(strategy replication.Strategy) Option {
	return func(r *Registry) { r.strategy = strategy }
}

// WithEventBroker shares an externally owned broker for registry
// events. The registry will not close it.
func WithEventBroker(broker *pubsub.Broker[service.Definition]) Option {
	return func(r *Registry) {
		r.events = broker
		r.ownEvents = false
	}
}

// WithWatch enables the directory watcher: external file changes are
// reconciled into the index without a full rescan.
func WithWatch() Option {
	return func(r *Registry) { r.watch = true }
}

// WithTracer instruments load/save/delete with spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) { r.tracer = tracer }
}

// New creates a registry over the given root directory and extension.
// The root must exist and be a directory; anything else is fatal here
// rather than surfacing later as mysterious empty loads.
func New(root, extension string, serializers []serializer.Serializer, opts ...Option) (*Registry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootMissing, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	r := &Registry{
		root:        root,
		scheme:      naming.New(extension),
		serializers: serializers,
		strategy:    replication.NoOp{},
		events:      pubsub.NewBroker[service.Definition](),
		ownEvents:   true,
		tracer:      noop.NewTracerProvider().Tracer("svcreg"),
		index:       newIndex(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.watch {
		w, err := watcher.New(root)
		if err != nil {
			return nil, fmt.Errorf("enabling registry watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			return nil, fmt.Errorf("starting registry watcher: %w", err)
		}
		r.watcher = w
		r.watchWG.Add(1)
		go r.consumeWatchEvents()
		log.Info(log.CatRegistry, "watching registry directory", "root", root)
	}

	return r, nil
}

// Events returns the broker delivering loaded/predelete/deleted
// notifications. Sinks subscribe; publication never blocks the registry.
func (r *Registry) Events() *pubsub.Broker[service.Definition] {
	return r.events
}

// Load rebuilds the index from every matching file under the root,
// recursively. Duplicate ids resolve to the definition sorting first;
// later duplicates are logged and dropped. Soft file errors skip the
// file and never abort the scan, so Load itself cannot fail.
func (r *Registry) Load() []service.Definition {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	_, span := r.tracer.Start(context.Background(), "registry.load",
		trace.WithAttributes(attribute.String("registry.root", r.root)))
	defer span.End()

	var all []service.Definition
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn(log.CatRegistry, "skipping unreadable path during scan", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !r.scheme.Matches(d.Name()) {
			return nil
		}
		all = append(all, r.LoadFile(path)...)
		return nil
	})
	if err != nil {
		log.ErrorErr(log.CatRegistry, "registry scan aborted", err, "root", r.root)
	}

	service.Sort(all)
	r.index.replace(r.dedupe(all))

	results := r.strategy.ReconcileBatch(r.index.values(), r)
	for _, def := range results {
		r.events.Publish(pubsub.LoadedEvent, def)
	}

	span.SetAttributes(attribute.Int("registry.size", r.index.size()))
	log.Info(log.CatRegistry, "registry loaded", "definitions", len(results))
	return results
}

// dedupe folds a sorted batch into a unique-by-id list: the first
// occurrence wins, later duplicates are logged and dropped.
func (r *Registry) dedupe(defs []service.Definition) []service.Definition {
	seen := make(map[int64]struct{}, len(defs))
	out := make([]service.Definition, 0, len(defs))
	for _, def := range defs {
		if _, dup := seen[def.ID()]; dup {
			log.Warn(log.CatRegistry, "duplicate definition id found; keeping the first",
				"id", def.ID(), "dropped", def.Name())
			continue
		}
		seen[def.ID()] = struct{}{}
		out = append(out, def)
	}
	return out
}

// LoadFile loads definitions from exactly one file without touching
// the rest of the index. Unreadable, missing or empty files yield an
// empty list, never an error; a serializer failure abandons the file.
func (r *Registry) LoadFile(path string) []service.Definition {
	fileName := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn(log.CatRegistry, "definition file is not found at the path specified", "file", fileName)
		} else {
			log.Warn(log.CatRegistry, "definition file is not readable; check file permissions", "file", fileName, "error", err)
		}
		return nil
	}
	if info.Size() == 0 {
		log.Debug(log.CatRegistry, "definition file appears to be empty; nothing will be loaded", "file", fileName)
		return nil
	}
	if _, _, ok := r.scheme.Parse(fileName); !ok {
		log.Warn(log.CatRegistry, "definition file does not match the recommended pattern; "+
			"rename it to avoid issues with duplicate loading",
			"file", fileName, "pattern", r.scheme.Pattern())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn(log.CatRegistry, "definition file is not readable; check file permissions", "file", fileName, "error", err)
		return nil
	}

	var out []service.Definition
	for _, s := range r.serializers {
		if !s.Supports(fileName) {
			continue
		}
		defs, err := s.Load(bytes.NewReader(data))
		if err != nil {
			log.ErrorErr(log.CatSerializer, "error reading definition file", err, "file", fileName)
			return nil
		}
		out = append(out, defs...)
	}
	return out
}

// Save persists the definition to its canonical file and indexes it,
// overwriting any existing entry with the same id. When the id is
// unassigned, one is derived from the current time.
func (r *Registry) Save(def service.Definition) (service.Definition, error) {
	if def == nil {
		return nil, service.ErrNilDefinition
	}

	_, span := r.tracer.Start(context.Background(), "registry.save")
	defer span.End()

	if def.ID() == service.UnassignedID {
		log.Debug(log.CatRegistry, "definition id not set; deriving id from system time")
		def.SetID(r.assignID())
	}
	span.SetAttributes(attribute.Int64("definition.id", def.ID()))

	var buf bytes.Buffer
	encoded := false
	for _, s := range r.serializers {
		buf.Reset()
		if err := s.Write(&buf, def); err != nil {
			log.Debug(log.CatSerializer, "serializer declined definition", "error", err)
			continue
		}
		encoded = true
		break
	}
	if !encoded {
		return nil, fmt.Errorf("%w: %s", ErrNoSerializer, r.scheme.FileName(def))
	}

	path := filepath.Join(r.root, r.scheme.FileName(def))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil { //nolint:gosec // G306: definition files are world-readable config
		return nil, fmt.Errorf("writing definition file %s: %w", path, err)
	}

	if existing := r.index.get(def.ID()); existing != nil {
		log.Debug(log.CatRegistry, "overwriting existing definition", "id", def.ID())
	}
	r.index.put(def)
	log.Debug(log.CatRegistry, "saved definition", "file", path)

	return r.FindByID(def.ID()), nil
}

// assignID derives an id from the current time in milliseconds, bumped
// past the previous assignment so rapid saves in this process stay
// strictly increasing. Concurrent saves from separate processes within
// the same millisecond can still collide; callers needing hard
// uniqueness must assign ids themselves.
func (r *Registry) assignID() int64 {
	for {
		last := r.lastAssignedID.Load()
		id := time.Now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		if r.lastAssignedID.CompareAndSwap(last, id) {
			return id
		}
	}
}

// Update unconditionally overwrites the index entry for the
// definition's id. The filesystem is not touched.
func (r *Registry) Update(def service.Definition) {
	r.index.put(def)
}

// Delete removes the definition's canonical file and index entry.
// A missing file counts as success. When the file exists but cannot
// be removed, the index entry is kept and false is returned. The
// deleted event fires regardless of outcome.
func (r *Registry) Delete(def service.Definition) bool {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	_, span := r.tracer.Start(context.Background(), "registry.delete",
		trace.WithAttributes(attribute.Int64("definition.id", def.ID())))
	defer span.End()

	r.events.Publish(pubsub.PreDeleteEvent, def)

	path := filepath.Join(r.root, r.scheme.FileName(def))
	err := os.Remove(path)
	ok := err == nil || errors.Is(err, fs.ErrNotExist)
	if !ok {
		log.Warn(log.CatRegistry, "failed to delete definition file", "file", path, "error", err)
	} else {
		r.index.remove(def.ID())
		log.Debug(log.CatRegistry, "deleted definition file", "file", path)
	}

	r.events.Publish(pubsub.DeletedEvent, def)
	return ok
}

// FindByID looks up a definition by id, then lets the replication
// strategy substitute a cached copy. Returns nil when nothing matches.
func (r *Registry) FindByID(id int64) service.Definition {
	local := r.index.get(id)
	return r.strategy.ReconcileLookup(local, fmt.Sprintf("%d", id), r)
}

// FindByName scans the index applying each definition's own matching
// capability; the first match wins. The replication strategy may
// substitute a cached copy on a miss.
func (r *Registry) FindByName(name string) service.Definition {
	var local service.Definition
	for _, def := range r.index.values() {
		if def.Matches(name) {
			local = def
			break
		}
	}
	return r.strategy.ReconcileLookup(local, name, r)
}

// FindByExactName returns the definition whose name equals name.
func (r *Registry) FindByExactName(name string) service.Definition {
	for _, def := range r.index.values() {
		if def.Name() == name {
			return def
		}
	}
	return nil
}

// Size returns the current index cardinality.
func (r *Registry) Size() int {
	return r.index.size()
}

// consumeWatchEvents turns watcher notifications into targeted
// reconciliations. It runs on its own goroutine so slow file I/O never
// starves the watcher's dispatch loop.
func (r *Registry) consumeWatchEvents() {
	defer r.watchWG.Done()

	creates := r.watcher.Creates()
	modifies := r.watcher.Modifies()
	deletes := r.watcher.Deletes()

	for creates != nil || modifies != nil || deletes != nil {
		select {
		case path, ok := <-creates:
			if !ok {
				creates = nil
				continue
			}
			r.reconcileChange(path)
		case path, ok := <-modifies:
			if !ok {
				modifies = nil
				continue
			}
			r.reconcileChange(path)
		case path, ok := <-deletes:
			if !ok {
				deletes = nil
				continue
			}
			r.reconcileRemoval(path)
		}
	}
}

// reconcileChange merges a created or modified file into the index,
// replace-by-id. Duplicate delivery is harmless.
func (r *Registry) reconcileChange(path string) {
	if !r.scheme.Matches(filepath.Base(path)) {
		return
	}
	log.Debug(log.CatWatcher, "reconciling changed definition file", "file", path)
	for _, def := range r.LoadFile(path) {
		r.index.put(def)
		r.events.Publish(pubsub.LoadedEvent, def)
	}
}

// reconcileRemoval resolves a deleted file back to its definition via
// the naming scheme and drops it from the index. The file is already
// gone, so only the index is touched.
func (r *Registry) reconcileRemoval(path string) {
	fileName := filepath.Base(path)
	if !r.scheme.Matches(fileName) {
		return
	}

	name, id, ok := r.scheme.Parse(fileName)
	if !ok {
		log.Warn(log.CatWatcher, "deleted file does not match the definition file pattern",
			"file", fileName, "pattern", r.scheme.Pattern())
		return
	}

	def := r.index.get(id)
	if def == nil {
		def = r.FindByExactName(name)
	}
	if def == nil {
		log.Debug(log.CatWatcher, "deleted file had no indexed definition", "file", fileName)
		return
	}

	log.Debug(log.CatWatcher, "removing definition for deleted file", "id", def.ID())
	r.index.remove(def.ID())
	r.events.Publish(pubsub.DeletedEvent, def)
}

// Close stops the watcher, waits for in-flight reconciliations and
// releases the OS watch handle. Safe to call when watching was never
// enabled, and safe to call twice.
func (r *Registry) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.watcher != nil {
			err = r.watcher.Stop()
			r.watchWG.Wait()
		}
		if r.ownEvents {
			r.events.Close()
		}
	})
	return err
}
