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

package citeproc

import (
	"github.com/google/uuid"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/internal/intern"
	"github.com/citation-style-language/citeproc-go/proc"
	"github.com/citation-style-language/citeproc-go/query"
)

// NewCluster interns a caller-chosen cluster name and returns its id.
// The same name always returns the same id.
func (p *Processor) NewCluster(name string) cite.ClusterID {
	return cite.ClusterID(p.interner.Intern(name))
}

// RandomClusterID returns a fresh cluster id guaranteed not to collide
// with any name interned so far.
func (p *Processor) RandomClusterID() cite.ClusterID {
	for {
		name := uuid.NewString()
		if _, exists := p.interner.Get(name); !exists {
			return cite.ClusterID(p.interner.Intern(name))
		}
	}
}

// ClusterName resolves a cluster id back to its interned name.
func (p *Processor) ClusterName(id cite.ClusterID) (string, bool) {
	if id == p.previewID {
		return "", false
	}
	return p.interner.Resolve(intern.Symbol(id))
}

// ResetReferences replaces the whole reference library.
func (p *Processor) ResetReferences(refs []*cite.Reference) {
	p.refIDs = p.refIDs[:0]
	p.refs = make(map[string]*cite.Reference, len(refs))
	for _, r := range refs {
		if _, dup := p.refs[r.ID]; !dup {
			p.refIDs = append(p.refIDs, r.ID)
		}
		p.refs[r.ID] = r
		p.setReferenceInput(r)
	}
	p.setRefKeys()
}

// ExtendReferences upserts a batch of references.
func (p *Processor) ExtendReferences(refs []*cite.Reference) {
	for _, r := range refs {
		if _, dup := p.refs[r.ID]; !dup {
			p.refIDs = append(p.refIDs, r.ID)
		}
		p.refs[r.ID] = r
		p.setReferenceInput(r)
	}
	p.setRefKeys()
}

// InsertReference upserts one reference; an update replaces the whole
// record under the same identifier.
func (p *Processor) InsertReference(r *cite.Reference) {
	p.ExtendReferences([]*cite.Reference{r})
}

// RemoveReference drops a reference from the library.
func (p *Processor) RemoveReference(refID string) {
	if _, ok := p.refs[refID]; !ok {
		return
	}
	delete(p.refs, refID)
	keep := p.refIDs[:0]
	for _, id := range p.refIDs {
		if id != refID {
			keep = append(keep, id)
		}
	}
	p.refIDs = keep
	p.setRefKeys()
}

// GetReference returns a stored reference record.
func (p *Processor) GetReference(refID string) (*cite.Reference, bool) {
	r, ok := p.refs[refID]
	return r, ok
}

func (p *Processor) setReferenceInput(r *cite.Reference) {
	sym := p.interner.Intern(r.ID)
	p.graph.SetInput(proc.ReferenceKey(sym), r, query.Medium)
}

func (p *Processor) setRefKeys() {
	keys := append([]string(nil), p.refIDs...)
	p.graph.SetInput(proc.RefKeysKey(), keys, query.Medium)
}

// IncludeUncited controls which uncited references join the
// bibliography: none, all, or a specific list.
type IncludeUncited struct {
	All      bool
	Specific []string
}

// SetIncludeUncited stores the uncited policy.
func (p *Processor) SetIncludeUncited(u IncludeUncited) {
	value := &proc.Uncited{All: u.All, IDs: append([]string(nil), u.Specific...)}
	p.graph.SetInput(proc.UncitedKey(), value, query.Medium)
}

// InitClusters replaces the cluster set wholesale; the new clusters are
// unpositioned until SetClusterOrder runs.
func (p *Processor) InitClusters(clusters []cite.Cluster) {
	for _, id := range p.clusterIDs {
		p.setClusterCites(id, nil)
		p.setClusterNote(id, nil)
	}
	p.clusterIDs = p.clusterIDs[:0]
	for _, cl := range clusters {
		p.clusterIDs = append(p.clusterIDs, cl.ID)
		p.setClusterCites(cl.ID, cl.Cites)
		p.setClusterNote(cl.ID, nil)
	}
	p.setClusterIDs()
}

// InsertCites replaces a cluster's cites, creating the cluster
// (unpositioned) if needed.
func (p *Processor) InsertCites(id cite.ClusterID, cites []*cite.Cite) {
	if _, known := p.cites[id]; !known && !containsCluster(p.clusterIDs, id) {
		p.clusterIDs = append(p.clusterIDs, id)
		p.setClusterNote(id, nil)
		p.setClusterIDs()
	}
	p.setClusterCites(id, cites)
}

// RemoveCluster takes a cluster out of the document; it becomes
// unpositioned and loses its cites.
func (p *Processor) RemoveCluster(id cite.ClusterID) {
	p.setClusterCites(id, nil)
	p.setClusterNote(id, nil)
	keep := p.clusterIDs[:0]
	for _, c := range p.clusterIDs {
		if c != id {
			keep = append(keep, c)
		}
	}
	p.clusterIDs = keep
	p.setClusterIDs()
}

// ClusterIDs returns the clusters known to the engine, in document
// order for the positioned prefix.
func (p *Processor) ClusterIDs() []cite.ClusterID {
	return append([]cite.ClusterID(nil), p.clusterIDs...)
}

// ClusterNoteNumber returns a cluster's assigned number, if positioned.
func (p *Processor) ClusterNoteNumber(id cite.ClusterID) (cite.ClusterNumber, bool) {
	n := p.notes[id]
	if n == nil {
		return cite.ClusterNumber{}, false
	}
	return *n, true
}

func (p *Processor) setClusterCites(id cite.ClusterID, cites []*cite.Cite) {
	if cites == nil {
		delete(p.cites, id)
	} else {
		p.cites[id] = cites
	}
	p.graph.SetInput(proc.ClusterCitesKey(id), cites, query.Medium)
}

func (p *Processor) setClusterNote(id cite.ClusterID, n *cite.ClusterNumber) {
	var value proc.NotePosition
	if n == nil {
		delete(p.notes, id)
	} else {
		p.notes[id] = n
		value = proc.NotePosition{Positioned: true, Number: *n}
	}
	p.graph.SetInput(proc.ClusterNoteKey(id), value, query.Medium)
}

func (p *Processor) setClusterIDs() {
	ids := append([]cite.ClusterID(nil), p.clusterIDs...)
	p.graph.SetInput(proc.ClusterIDsKey(), ids, query.Medium)
}

func containsCluster(ids []cite.ClusterID, id cite.ClusterID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}

// SetClusterOrder specifies which clusters are in the document and in
// what order. Note numbers must be non-decreasing. The call is
// transactional: on error, no position changes.
func (p *Processor) SetClusterOrder(positions []cite.ClusterPosition) error {
	assignments, newOrder, err := planClusterOrder(positions, p.previewID)
	if err != nil {
		return err
	}
	p.applyClusterOrder(assignments, newOrder)
	return nil
}

type noteAssignment struct {
	id     cite.ClusterID
	number *cite.ClusterNumber
}

// planClusterOrder validates a reordering and computes the assignments
// without touching any state, so failures cannot partially apply.
func planClusterOrder(positions []cite.ClusterPosition, previewID cite.ClusterID) ([]noteAssignment, []cite.ClusterID, error) {
	var assignments []noteAssignment
	var order []cite.ClusterID

	intext := uint32(1)
	var lastNote uint32
	var intraIndex uint32
	haveNote := false

	for _, pos := range positions {
		id := pos.ID
		if pos.Preview {
			id = previewID
		}
		if pos.Note == nil {
			n := cite.InTextNumber(intext)
			intext++
			assignments = append(assignments, noteAssignment{id: id, number: &n})
			order = append(order, id)
			continue
		}
		nn := *pos.Note
		if haveNote && nn < lastNote {
			return nil, nil, ErrNonMonotonicNoteNumber.New(nn)
		}
		if haveNote && nn == lastNote {
			intraIndex++
		} else {
			intraIndex = 0
		}
		haveNote = true
		lastNote = nn
		n := cite.NoteNumber(nn, intraIndex)
		assignments = append(assignments, noteAssignment{id: id, number: &n})
		order = append(order, id)
	}
	return assignments, order, nil
}

func (p *Processor) applyClusterOrder(assignments []noteAssignment, newOrder []cite.ClusterID) {
	inOrder := make(map[cite.ClusterID]bool, len(newOrder))
	for _, id := range newOrder {
		inOrder[id] = true
	}
	// Clusters dropped from the order keep their cites but lose their
	// position.
	for _, id := range p.clusterIDs {
		if !inOrder[id] && p.notes[id] != nil {
			p.setClusterNote(id, nil)
		}
	}
	for _, a := range assignments {
		p.setClusterNote(a.id, a.number)
	}
	merged := append([]cite.ClusterID(nil), newOrder...)
	for _, id := range p.clusterIDs {
		if !inOrder[id] {
			merged = append(merged, id)
		}
	}
	p.clusterIDs = merged
	p.setClusterIDs()
}
