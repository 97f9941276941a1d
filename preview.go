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
	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/output"
	"github.com/citation-style-language/citeproc-go/proc"
)

// PreviewPosition places a speculative cluster: either replacing an
// existing cluster, or via a full reordering with exactly one position
// marked Preview.
type PreviewPosition struct {
	replace   cite.ClusterID
	isReplace bool
	positions []cite.ClusterPosition
}

// ReplaceCluster previews in place of an existing cluster.
func ReplaceCluster(id cite.ClusterID) PreviewPosition {
	return PreviewPosition{replace: id, isReplace: true}
}

// MarkWithZero previews at the position marked Preview in a complete
// document reordering.
func MarkWithZero(positions []cite.ClusterPosition) PreviewPosition {
	return PreviewPosition{positions: positions}
}

// clusterState is the saved input state a preview restores.
type clusterState struct {
	clusterIDs []cite.ClusterID
	cites      map[cite.ClusterID][]*cite.Cite
	notes      map[cite.ClusterID]*cite.ClusterNumber
}

func (p *Processor) saveClusterState() clusterState {
	st := clusterState{
		clusterIDs: append([]cite.ClusterID(nil), p.clusterIDs...),
		cites:      make(map[cite.ClusterID][]*cite.Cite, len(p.cites)),
		notes:      make(map[cite.ClusterID]*cite.ClusterNumber, len(p.notes)),
	}
	for id, cs := range p.cites {
		st.cites[id] = cs
	}
	for id, n := range p.notes {
		st.notes[id] = n
	}
	return st
}

func (p *Processor) restoreClusterState(st clusterState) {
	// Clear anything the preview added, then put the saved values back.
	for id := range p.cites {
		if _, ok := st.cites[id]; !ok {
			p.setClusterCites(id, nil)
		}
	}
	for id := range p.notes {
		if _, ok := st.notes[id]; !ok {
			p.setClusterNote(id, nil)
		}
	}
	for id, cs := range st.cites {
		p.setClusterCites(id, cs)
	}
	for id, n := range st.notes {
		p.setClusterNote(id, n)
	}
	p.clusterIDs = st.clusterIDs
	p.setClusterIDs()
}

// PreviewCitationCluster speculatively renders a cluster of cites at a
// position, restores the prior state, and returns the rendering. The
// output format may be overridden per call; disambiguation still runs
// against the engine's native format.
func (p *Processor) PreviewCitationCluster(cites []*cite.Cite, position PreviewPosition, format *output.Mode) (string, error) {
	span := p.tracer.StartSpan("citeproc.preview_citation_cluster")
	defer span.Finish()

	var targetID cite.ClusterID
	var st clusterState

	if position.isReplace {
		if !containsCluster(p.clusterIDs, position.replace) {
			name, _ := p.ClusterName(position.replace)
			return "", ErrNonExistentCluster.New(name)
		}
		targetID = position.replace
		st = p.saveClusterState()
	} else {
		marked := 0
		for _, pos := range position.positions {
			if pos.Preview {
				marked++
			}
		}
		if marked != 1 {
			return "", ErrDidNotSupplyZeroPosition.New()
		}
		st = p.saveClusterState()
		if err := p.SetClusterOrder(position.positions); err != nil {
			p.restoreClusterState(st)
			return "", err
		}
		targetID = p.previewID
	}

	p.InsertCites(targetID, cites)
	rendered := p.renderClusterWithFormat(targetID, format)
	p.restoreClusterState(st)
	return rendered, nil
}

// renderClusterWithFormat renders one cluster, optionally re-emitting
// the build under an alternate output format.
func (p *Processor) renderClusterWithFormat(id cite.ClusterID, mode *output.Mode) string {
	if mode == nil || *mode == p.format.Mode() {
		return p.graph.Get(proc.BuiltClusterKey(id)).(string)
	}
	style := p.GetStyle()
	if style == nil {
		return ""
	}
	cites := p.cites[id]
	items := make([]proc.ClusterCite, 0, len(cites))
	sorted := p.graph.Get(proc.SortedRefsKey()).(*proc.SortedRefs)
	for i, c := range cites {
		gen := p.graph.Get(proc.CiteIRKey(proc.CiteKey{Cluster: id, Index: uint32(i)})).(*proc.IrGen)
		if gen.Root.IR == nil {
			continue
		}
		cnum, _ := sorted.Number(c.RefID)
		items = append(items, proc.ClusterCite{Cite: c, Gen: gen, Cnum: cnum})
	}
	if len(items) == 0 {
		return ""
	}
	f := output.New(*mode)
	b := proc.RenderCluster(style, f, items)
	return f.Output(b, false)
}
