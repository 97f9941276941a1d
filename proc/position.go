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

package proc

import (
	"github.com/citation-style-language/citeproc-go/cite"
)

// CiteKey identifies one cite by its owning cluster and index.
type CiteKey struct {
	Cluster cite.ClusterID
	Index   uint32
}

// ClusterData is one positioned cluster in document order.
type ClusterData struct {
	ID     cite.ClusterID
	Number cite.ClusterNumber
	Cites  []*cite.Cite
}

// occurrence tracks a reference's note-track history.
type occurrence struct {
	firstNote uint32
	lastNote  uint32
}

// prevCite is the cite immediately preceding in document order.
type prevCite struct {
	refID    string
	cluster  cite.ClusterID
	isNote   bool
	note     uint32
	locator  bool
	locValue string
	valid    bool
}

// ComputePositions assigns each cite its position and, for repeats, the
// note number of the reference's first note occurrence.
//
// Note and in-text cites are tracked separately: an in-text cluster
// does not contribute to note distance, does not extend an ibid chain
// into the notes, and its repeats are tracked against other in-text
// cites only. The behavior of first-reference-note-number with in-text
// clusters interleaved between notes is ambiguous upstream; here an
// in-text first occurrence never supplies a note number.
func ComputePositions(clusters []ClusterData, nearNoteDistance uint32) map[CiteKey]cite.CitePosition {
	out := make(map[CiteKey]cite.CitePosition)

	noteSeen := make(map[string]*occurrence)
	intextSeen := make(map[string]bool)
	var prev prevCite

	for _, cl := range clusters {
		isNote := cl.Number.IsNote()
		for idx, c := range cl.Cites {
			key := CiteKey{Cluster: cl.ID, Index: uint32(idx)}
			pos := cite.CitePosition{Position: cite.First}

			if isNote {
				occ, repeat := noteSeen[c.RefID]
				if !repeat {
					noteSeen[c.RefID] = &occurrence{firstNote: cl.Number.Note, lastNote: cl.Number.Note}
				} else {
					pos.FirstNote = occ.firstNote
					pos.HasFirst = true
					pos.Position = notePosition(prev, c, cl, occ, nearNoteDistance)
					occ.lastNote = cl.Number.Note
				}
			} else {
				if intextSeen[c.RefID] {
					pos.Position = cite.Subsequent
					if prev.valid && !prev.isNote && prev.refID == c.RefID {
						pos.Position = ibidKind(prev, c, false)
					}
				} else {
					intextSeen[c.RefID] = true
				}
			}

			out[key] = pos
			prev = prevCite{
				refID:    c.RefID,
				cluster:  cl.ID,
				isNote:   isNote,
				note:     cl.Number.Note,
				locator:  c.HasLocator(),
				locValue: locatorValue(c),
				valid:    true,
			}
		}
	}
	return out
}

// notePosition classifies a repeat within the note track.
func notePosition(prev prevCite, c *cite.Cite, cl ClusterData, occ *occurrence, nearNoteDistance uint32) cite.Position {
	// Ibid requires the immediately preceding cite (in full document
	// order) to be the same reference in the same cluster or an
	// adjacent note; an in-text cite in between breaks the chain.
	if prev.valid && prev.isNote && prev.refID == c.RefID {
		sameCluster := prev.cluster == cl.ID
		adjacentNote := cl.Number.Note >= prev.note && cl.Number.Note-prev.note <= 1
		if sameCluster || adjacentNote {
			return ibidKind(prev, c, !sameCluster)
		}
	}
	if cl.Number.Note >= occ.lastNote && cl.Number.Note-occ.lastNote <= nearNoteDistance {
		return cite.NearNote
	}
	return cite.Subsequent
}

// ibidKind applies the locator rules to an established ibid relation:
// no locators, or an identical locator, is a plain ibid; a new or
// changed locator is ibid-with-locator; a dropped locator demotes the
// cite to a plain repeat.
func ibidKind(prev prevCite, c *cite.Cite, acrossNotes bool) cite.Position {
	curLocator := c.HasLocator()
	switch {
	case !curLocator && prev.locator:
		return cite.Subsequent
	case curLocator && prev.locator && locatorValue(c) == prev.locValue:
		fallthrough
	case !curLocator:
		if acrossNotes {
			return cite.IbidNear
		}
		return cite.Ibid
	default:
		if acrossNotes {
			return cite.IbidWithLocatorNear
		}
		return cite.IbidWithLocator
	}
}

func locatorValue(c *cite.Cite) string {
	if loc, ok := c.Locator(); ok {
		return loc.Label + "\x00" + loc.Value.Raw
	}
	return ""
}
