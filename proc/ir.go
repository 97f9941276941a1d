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

// Package proc is the evaluation pipeline: it builds per-cite IR trees
// from a style, refines them through disambiguation, assigns cluster
// and cite positions, sorts references and cites, and assembles output.
package proc

import (
	"sync"

	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

// GroupVar classifies an IR node's contribution to the short-circuit
// rendering of its enclosing group.
type GroupVar uint8

const (
	// GVPlain: no variables were touched.
	GVPlain GroupVar = iota
	// GVImportant: a variable was present and rendered.
	GVImportant
	// GVMissing: a variable was read and found missing.
	GVMissing
	// GVUnresolved: contains an unfilled year-suffix hook that decides
	// between Important and Missing.
	GVUnresolved
	// GVUnresolvedPlain: contains an unfilled year-suffix hook that
	// decides between Important and Plain.
	GVUnresolvedPlain
)

func (g GroupVar) String() string {
	switch g {
	case GVPlain:
		return "Plain"
	case GVImportant:
		return "Important"
	case GVMissing:
		return "Missing"
	case GVUnresolved:
		return "Unresolved"
	case GVUnresolvedPlain:
		return "UnresolvedPlain"
	}
	return "?"
}

// Neighbour merges the group variables of two adjacent siblings.
func (g GroupVar) Neighbour(o GroupVar) GroupVar {
	switch {
	case g == o:
		return g
	case g == GVPlain:
		return o
	case o == GVPlain:
		return g
	case g == GVImportant && o == GVMissing, g == GVMissing && o == GVImportant:
		return GVImportant
	case g == GVUnresolved || o == GVUnresolved:
		return GVUnresolved
	case g == GVUnresolvedPlain && o == GVImportant, g == GVImportant && o == GVUnresolvedPlain:
		return GVImportant
	case g == GVUnresolvedPlain || o == GVUnresolvedPlain:
		return GVUnresolved
	}
	return GVImportant
}

// Resolve collapses the unresolved states once the year-suffix pass has
// run; filled reports whether a suffix was assigned.
func (g GroupVar) Resolve(filled bool) GroupVar {
	switch g {
	case GVUnresolved:
		if filled {
			return GVImportant
		}
		return GVMissing
	case GVUnresolvedPlain:
		if filled {
			return GVImportant
		}
		return GVPlain
	}
	return g
}

// EdgeKind tags a rendered leaf for later pattern matching by the
// cluster transforms.
type EdgeKind uint8

const (
	EdgeOutput EdgeKind = iota
	EdgeTerm
	EdgeLocatorLabel
	EdgeLocator
	EdgeFrnnLabel
	EdgeCitationNumber
	EdgeYear
	EdgeYearSuffix
	EdgePrefix
	EdgeSuffix
)

// IR is the intermediate representation of one cite (or bibliography
// entry) before output-format emission.
type IR interface {
	irNode()
}

// Rendered is a leaf: a formatted token plus its edge tag.
type Rendered struct {
	Edge  EdgeKind
	Build output.Build
}

// Seq is an ordered sequence of children rendered with a delimiter,
// formatting, affixes, display mode, text case and optional quotes.
type Seq struct {
	Contents   []IRPair
	Formatting csl.Formatting
	Affixes    csl.Affixes
	Delimiter  string
	Display    csl.Display
	TextCase   csl.TextCase
	Quotes     bool
	// IsLayout marks the root sequence of a cite.
	IsLayout bool
	// IsGroup marks a cs:group, which collapses when its resolved group
	// variable is Missing.
	IsGroup bool
}

// NameBlock references a shared name rendering in the IrGen's side
// table, so a disambiguation expansion done once updates every tree
// holding the same block.
type NameBlock struct {
	ID NameBlockID
}

// CondDisamb is a conditional branch whose choice may be revisited by
// the disambiguation passes.
type CondDisamb struct {
	Chosen IRPair
	// Disamb reports whether the branch tested the disambiguate flag.
	Disamb bool
}

// YearSuffixHook holds the slot the year-suffix pass fills. Suffix is
// the 1-based suffix ordinal; zero means unfilled.
type YearSuffixHook struct {
	Suffix uint32
	// Explicit marks hooks from a year-suffix variable reference rather
	// than an implicit after-year insertion.
	Explicit bool
}

func (*Rendered) irNode()       {}
func (*Seq) irNode()            {}
func (*NameBlock) irNode()      {}
func (*CondDisamb) irNode()     {}
func (*YearSuffixHook) irNode() {}

// IRPair carries a node together with its group variable.
type IRPair struct {
	IR IR
	GV GroupVar
}

// NameBlockID indexes the name side table.
type NameBlockID uint32

// NameEntry is one shared name block: the rendered build plus the data
// needed to re-render it during disambiguation and bibliography
// substitution.
type NameEntry struct {
	Build output.Build
	// Shown is how many names are displayed before et-al truncation.
	Shown int
	// Tokens are the per-name plain renderings, reduced to person names
	// and literals (no delimiters, "and" or "et al").
	Tokens []string
	// Delimiter joins Tokens when the block is reconstructed.
	Delimiter string
}

// NameTable is the side table of shared name blocks, guarded by a lock
// because disambiguation may refine entries while other trees hold the
// same ids.
type NameTable struct {
	mu      sync.RWMutex
	entries []NameEntry
}

// Add inserts an entry, returning its id.
func (t *NameTable) Add(e NameEntry) NameBlockID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	return NameBlockID(len(t.entries) - 1)
}

// Get returns the entry for id.
func (t *NameTable) Get(id NameBlockID) (NameEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.entries) {
		return NameEntry{}, false
	}
	return t.entries[id], true
}

// Set replaces the entry for id.
func (t *NameTable) Set(id NameBlockID, e NameEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) < len(t.entries) {
		t.entries[id] = e
	}
}

// IrGen is one disambiguation generation of one cite's IR: the root
// pair plus the name side table the tree's NameBlock ids point into.
type IrGen struct {
	Root  IRPair
	Names *NameTable
	// Unambiguous records whether the cite's flattened rendering was
	// unique when this generation was produced.
	Unambiguous bool
	// Signature is the hash of the flattened plain-text rendering. It
	// also stands in for the side-table content when the memo layer
	// hashes a generation for early cutoff.
	Signature uint64
}
