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

import "github.com/citation-style-language/citeproc-go/cite"

// ClusterDiff reports one cluster whose rendering changed since the
// last emit.
type ClusterDiff struct {
	ID       cite.ClusterID
	Rendered string
}

// BibliographyUpdate lists changed bibliography entries, plus the new
// entry ordering when it changed.
type BibliographyUpdate struct {
	UpdatedEntries map[string]string
	// EntryIDs is non-nil when the ordering changed.
	EntryIDs []string
}

// UpdateSummary is one batch of changes: cluster diffs and, when a
// bibliography is configured, its diff.
type UpdateSummary struct {
	Clusters     []ClusterDiff
	Bibliography *BibliographyUpdate
}

// BibEntry is one rendered bibliography entry.
type BibEntry struct {
	ID    string
	Value string
}

// SecondFieldAlign mirrors the style's second-field-align mode for
// callers laying out bibliographies.
type SecondFieldAlign uint8

const (
	SecondFieldAlignNone SecondFieldAlign = iota
	SecondFieldAlignFlush
	SecondFieldAlignMargin
)

// BibliographyMeta carries the bibliography-wide layout facts.
type BibliographyMeta struct {
	SecondFieldAlign SecondFieldAlign
	LineSpacing      int
	EntrySpacing     int
	HangingIndent    bool
	FormatMeta       string
}

// savedBib is the engine's last-emitted bibliography state.
type savedBib struct {
	entries map[string]string
	ids     []string
}
