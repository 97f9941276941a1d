// Copyright 2023 the citeproc-go authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mitchellh/hashstructure"
)

type inputCell struct {
	value      interface{}
	hash       uint64
	durability Durability
	changedAt  Revision
}

type memoEntry struct {
	value interface{}
	hash  uint64
	// changedAt is the revision at which the value last actually changed;
	// verifiedAt the revision at which it was last confirmed up to date.
	changedAt  Revision
	verifiedAt Revision
	deps       []Key
	// durability is the minimum durability among the inputs observed
	// (transitively) while computing this entry.
	durability Durability
}

// Graph is the memoization engine. The zero value is not usable; call
// NewGraph.
type Graph struct {
	mu    sync.RWMutex
	fns   map[Kind]Fn
	input map[Key]*inputCell
	memo  map[Key]*memoEntry

	revision   atomic.Uint64
	lastChange [numDurabilities]Revision

	inflightMu sync.Mutex
	inflight   map[Key]*sync.Mutex

	snapshots atomic.Int32

	// hashSalt feeds unhashable values a unique stand-in so they always
	// count as changed rather than silently comparing equal.
	hashSalt atomic.Uint64
}

func NewGraph() *Graph {
	return &Graph{
		fns:      make(map[Kind]Fn),
		input:    make(map[Key]*inputCell),
		memo:     make(map[Key]*memoEntry),
		inflight: make(map[Key]*sync.Mutex),
	}
}

// Register installs the function for a query kind. All kinds must be
// registered before the first Get; queries are fixed at build time.
func (g *Graph) Register(kind Kind, fn Fn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.fns[kind]; ok {
		panic(fmt.Sprintf("query: kind %d registered twice", kind))
	}
	g.fns[kind] = fn
}

// Revision returns the current revision counter.
func (g *Graph) Revision() Revision {
	return Revision(g.revision.Load())
}

func (g *Graph) hash(v interface{}) uint64 {
	h, err := hashstructure.Hash(v, nil)
	if err != nil {
		// Unhashable values are treated as always-changed.
		return ^g.hashSalt.Add(1)
	}
	return h
}

// SetInput stores an input value at the given durability. Setting a
// value structurally equal to the current one is a no-op: the revision
// is not bumped and nothing is invalidated. Must not be called while
// snapshots are live.
func (g *Graph) SetInput(key Key, value interface{}, d Durability) {
	if n := g.snapshots.Load(); n > 0 {
		panic(fmt.Sprintf("query: SetInput(%v) with %d live snapshot(s)", key, n))
	}
	h := g.hash(value)
	g.mu.Lock()
	defer g.mu.Unlock()
	if cell, ok := g.input[key]; ok {
		if cell.hash == h {
			return
		}
		rev := Revision(g.revision.Add(1))
		cell.value = value
		cell.hash = h
		cell.durability = d
		cell.changedAt = rev
		g.lastChange[d] = rev
		return
	}
	rev := Revision(g.revision.Add(1))
	g.input[key] = &inputCell{value: value, hash: h, durability: d, changedAt: rev}
	g.lastChange[d] = rev
}

// InputValue returns the current value of an input without recording a
// dependency. For use by the owner outside query evaluation.
func (g *Graph) InputValue(key Key) (interface{}, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cell, ok := g.input[key]
	if !ok {
		return nil, false
	}
	return cell.value, true
}

// Get evaluates a query from outside any other query.
func (g *Graph) Get(key Key) interface{} {
	rt := &Runtime{g: g}
	return rt.Get(key)
}

// Sweep drops every memoized entry that was not verified at the current
// revision. Callers run it after a full compute, when everything still
// reachable has just been re-verified.
func (g *Graph) Sweep() (dropped int) {
	if n := g.snapshots.Load(); n > 0 {
		panic(fmt.Sprintf("query: Sweep with %d live snapshot(s)", n))
	}
	rev := g.Revision()
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, e := range g.memo {
		if e.verifiedAt < rev {
			delete(g.memo, k)
			dropped++
		}
	}
	return dropped
}

// Snapshot returns a read-only handle sharing this graph's storage.
// Inputs must not be mutated until every snapshot is released.
func (g *Graph) Snapshot() *Snapshot {
	g.snapshots.Add(1)
	return &Snapshot{g: g}
}

// Snapshot is a cheap read-only clone of the graph suitable for
// concurrent evaluation on worker goroutines.
type Snapshot struct {
	g        *Graph
	released atomic.Bool
}

// Get evaluates a query against the shared storage.
func (s *Snapshot) Get(key Key) interface{} {
	if s.released.Load() {
		panic("query: Get on released snapshot")
	}
	return s.g.Get(key)
}

// Release ends the snapshot's lifetime, re-enabling input mutation once
// all snapshots are released.
func (s *Snapshot) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.g.snapshots.Add(-1)
	}
}

func (g *Graph) keyLock(key Key) *sync.Mutex {
	g.inflightMu.Lock()
	defer g.inflightMu.Unlock()
	l, ok := g.inflight[key]
	if !ok {
		l = &sync.Mutex{}
		g.inflight[key] = l
	}
	return l
}

func (g *Graph) lookupMemo(key Key) (*memoEntry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.memo[key]
	return e, ok
}

func (g *Graph) lookupInput(key Key) (*inputCell, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cell, ok := g.input[key]
	return cell, ok
}

// Runtime is the per-evaluation context handed to query functions. It
// carries the active-query stack used for dependency recording and
// cycle detection.
type Runtime struct {
	g     *Graph
	stack []Key
	// frame state for the query currently being computed
	deps       []Key
	durability Durability
}

func newFrame(g *Graph, stack []Key) *Runtime {
	return &Runtime{g: g, stack: stack, durability: High}
}

func (rt *Runtime) record(dep Key, d Durability) {
	rt.deps = append(rt.deps, dep)
	if d < rt.durability {
		rt.durability = d
	}
}

// Input reads an input cell, recording the dependency. Returns nil for
// unset inputs.
func (rt *Runtime) Input(key Key) interface{} {
	cell, ok := rt.g.lookupInput(key)
	if !ok {
		// An unset input is observed at the lowest durability so that its
		// first set invalidates the reader.
		rt.record(key, Low)
		return nil
	}
	rt.record(key, cell.durability)
	return cell.value
}

// Get evaluates a dependency query, recording the edge.
func (rt *Runtime) Get(key Key) interface{} {
	for i, k := range rt.stack {
		if k == key {
			path := make([]string, 0, len(rt.stack)-i+1)
			for _, c := range rt.stack[i:] {
				path = append(path, c.String())
			}
			path = append(path, key.String())
			panic(fmt.Sprintf("query: cycle detected: %s", strings.Join(path, " -> ")))
		}
	}
	e := rt.g.fetch(rt.stack, key)
	rt.record(key, e.durability)
	return e.value
}

// fetch returns an up-to-date memo entry for key, recomputing if needed.
func (g *Graph) fetch(stack []Key, key Key) *memoEntry {
	rev := g.Revision()
	if e, ok := g.lookupMemo(key); ok && e.verifiedAt == rev {
		return e
	}

	// At most one concurrent computation per key.
	lock := g.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	e, ok := g.lookupMemo(key)
	if ok && e.verifiedAt == rev {
		return e
	}
	if ok && g.shallowVerify(e, rev) {
		g.markVerified(e, rev)
		return e
	}
	if ok && g.deepVerify(stack, key, e, rev) {
		g.markVerified(e, rev)
		return e
	}
	return g.recompute(stack, key, e, rev)
}

func (g *Graph) markVerified(e *memoEntry, rev Revision) {
	g.mu.Lock()
	e.verifiedAt = rev
	g.mu.Unlock()
}

// shallowVerify reports whether no input at or above the entry's
// durability floor has changed since it was last verified.
func (g *Graph) shallowVerify(e *memoEntry, rev Revision) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for d := e.durability; d < numDurabilities; d++ {
		if g.lastChange[d] > e.verifiedAt {
			return false
		}
	}
	return true
}

// deepVerify re-validates each dependency in order and reports whether
// none of them changed after this entry was last verified.
func (g *Graph) deepVerify(stack []Key, key Key, e *memoEntry, rev Revision) bool {
	for _, dep := range e.deps {
		if cell, ok := g.lookupInput(dep); ok {
			if cell.changedAt > e.verifiedAt {
				return false
			}
			continue
		}
		g.mu.RLock()
		_, isQuery := g.fns[dep.Kind]
		g.mu.RUnlock()
		if !isQuery {
			// Dependency on an input that has since been removed or never
			// set: treat as changed.
			return false
		}
		de := g.fetch(append(stack, key), dep)
		if de.changedAt > e.verifiedAt {
			return false
		}
	}
	return true
}

func (g *Graph) recompute(stack []Key, key Key, old *memoEntry, rev Revision) *memoEntry {
	g.mu.RLock()
	fn, ok := g.fns[key.Kind]
	g.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("query: no function registered for kind %d (key %v)", key.Kind, key))
	}

	frame := newFrame(g, append(stack, key))
	value := fn(frame, key)
	h := g.hash(value)

	e := &memoEntry{
		value:      value,
		hash:       h,
		changedAt:  rev,
		verifiedAt: rev,
		deps:       frame.deps,
		durability: frame.durability,
	}
	if old != nil && old.hash == h {
		// Early cutoff: equal value, keep the old changedAt so dependents
		// can validate without recomputing.
		e.value = old.value
		e.changedAt = old.changedAt
	}
	g.mu.Lock()
	g.memo[key] = e
	g.mu.Unlock()
	return e
}
