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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citation-style-language/citeproc-go/cite"
)

func noteCluster(id cite.ClusterID, note uint32, refs ...string) ClusterData {
	cl := ClusterData{ID: id, Number: cite.NoteNumber(note, 0)}
	for _, r := range refs {
		cl.Cites = append(cl.Cites, cite.Basic(r))
	}
	return cl
}

func intextCluster(id cite.ClusterID, ordinal uint32, refs ...string) ClusterData {
	cl := ClusterData{ID: id, Number: cite.InTextNumber(ordinal)}
	for _, r := range refs {
		cl.Cites = append(cl.Cites, cite.Basic(r))
	}
	return cl
}

func positionsOf(t *testing.T, clusters []ClusterData) []cite.CitePosition {
	t.Helper()
	m := ComputePositions(clusters, 5)
	var out []cite.CitePosition
	for _, cl := range clusters {
		for i := range cl.Cites {
			pos, ok := m[CiteKey{Cluster: cl.ID, Index: uint32(i)}]
			require.True(t, ok)
			out = append(out, pos)
		}
	}
	return out
}

func TestNoteIbid(t *testing.T) {
	// Cites [one, one] positioned as notes [1, 2].
	got := positionsOf(t, []ClusterData{
		noteCluster(1, 1, "one"),
		noteCluster(2, 2, "one"),
	})
	require.Equal(t, cite.First, got[0].Position)
	require.False(t, got[0].HasFirst)
	require.Equal(t, cite.IbidNear, got[1].Position)
	require.True(t, got[1].HasFirst)
	require.Equal(t, uint32(1), got[1].FirstNote)
}

func TestInTextIbid(t *testing.T) {
	// Same cites, no notes.
	got := positionsOf(t, []ClusterData{
		intextCluster(1, 1, "one"),
		intextCluster(2, 2, "one"),
	})
	require.Equal(t, cite.First, got[0].Position)
	require.Equal(t, cite.Ibid, got[1].Position)
	require.False(t, got[1].HasFirst)
}

func TestMixedNoIbid(t *testing.T) {
	// One in-text, one note-1: the tracks are separate, so both are
	// first occurrences.
	got := positionsOf(t, []ClusterData{
		intextCluster(1, 1, "one"),
		noteCluster(2, 1, "one"),
	})
	require.Equal(t, cite.First, got[0].Position)
	require.False(t, got[0].HasFirst)
	require.Equal(t, cite.First, got[1].Position)
	require.False(t, got[1].HasFirst)
}

func TestNearNote(t *testing.T) {
	// Notes [one, other, one].
	got := positionsOf(t, []ClusterData{
		noteCluster(1, 1, "one"),
		noteCluster(2, 2, "other"),
		noteCluster(3, 3, "one"),
	})
	require.Equal(t, cite.First, got[0].Position)
	require.Equal(t, cite.First, got[1].Position)
	require.Equal(t, cite.NearNote, got[2].Position)
	require.True(t, got[2].HasFirst)
	require.Equal(t, uint32(1), got[2].FirstNote)
}

func TestFarNoteIsSubsequent(t *testing.T) {
	got := positionsOf(t, []ClusterData{
		noteCluster(1, 1, "one"),
		noteCluster(2, 2, "other"),
		noteCluster(3, 20, "one"),
	})
	require.Equal(t, cite.Subsequent, got[2].Position)
	require.True(t, got[2].HasFirst)
	require.Equal(t, uint32(1), got[2].FirstNote)
}

func TestIbidWithinSameCluster(t *testing.T) {
	got := positionsOf(t, []ClusterData{
		noteCluster(1, 1, "one", "one"),
	})
	require.Equal(t, cite.First, got[0].Position)
	require.Equal(t, cite.Ibid, got[1].Position)
}

func TestIntextBreaksNoteIbidChain(t *testing.T) {
	got := positionsOf(t, []ClusterData{
		noteCluster(1, 1, "one"),
		intextCluster(2, 1, "other"),
		noteCluster(3, 2, "one"),
	})
	// The interleaved in-text cite breaks the ibid chain; distance 1 is
	// still near.
	require.Equal(t, cite.NearNote, got[2].Position)
}

func TestIbidLocatorRules(t *testing.T) {
	withLoc := func(ref, page string) *cite.Cite {
		return cite.Basic(ref).WithLocator("page", page)
	}

	tests := []struct {
		name string
		a, b *cite.Cite
		want cite.Position
	}{
		{"no locators", cite.Basic("one"), cite.Basic("one"), cite.Ibid},
		{"same locator", withLoc("one", "12"), withLoc("one", "12"), cite.Ibid},
		{"new locator", cite.Basic("one"), withLoc("one", "12"), cite.IbidWithLocator},
		{"changed locator", withLoc("one", "12"), withLoc("one", "13"), cite.IbidWithLocator},
		{"dropped locator", withLoc("one", "12"), cite.Basic("one"), cite.Subsequent},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cl := ClusterData{ID: 1, Number: cite.NoteNumber(1, 0), Cites: []*cite.Cite{test.a, test.b}}
			m := ComputePositions([]ClusterData{cl}, 5)
			require.Equal(t, test.want, m[CiteKey{Cluster: 1, Index: 1}].Position)
		})
	}
}

func TestPositionMatchesTest(t *testing.T) {
	require.True(t, cite.IbidNear.MatchesTest("ibid"))
	require.True(t, cite.IbidNear.MatchesTest("subsequent"))
	require.True(t, cite.IbidNear.MatchesTest("near-note"))
	require.False(t, cite.IbidNear.MatchesTest("first"))
	require.True(t, cite.NearNote.MatchesTest("subsequent"))
	require.False(t, cite.First.MatchesTest("subsequent"))
}
