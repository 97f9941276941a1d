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
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/internal/intern"
	"github.com/citation-style-language/citeproc-go/internal/similartext"
	"github.com/citation-style-language/citeproc-go/output"
	"github.com/citation-style-language/citeproc-go/query"
)

// Query and input kinds. Inputs are set by the engine's input store;
// queries are registered by Register.
const (
	InStyle query.Kind = iota
	InLocaleXML
	InDefaultLang
	InBibNoSort
	InRefKeys
	InReference
	InUncited
	InClusterIDs
	InClusterCites
	InClusterNote

	QLocale
	QClustersSorted
	QCitePositions
	QSortedRefs
	QDisambIndex
	QCiteIR
	QBuiltCluster
	QBibEntries
)

// NotePosition is the per-cluster position input value: unpositioned
// clusters carry Positioned=false.
type NotePosition struct {
	Positioned bool
	Number     cite.ClusterNumber
}

// Uncited is the uncited-references input: everything, or a specific
// ordered list of ids.
type Uncited struct {
	All bool
	IDs []string
}

// SortedRefs maps each reference to its 1-based bibliography number and
// keeps the ordered id list.
type SortedRefs struct {
	IDs     []string
	Numbers map[string]uint32
}

// Number returns the citation number of a reference.
func (s *SortedRefs) Number(refID string) (uint32, bool) {
	if s == nil {
		return 0, false
	}
	n, ok := s.Numbers[refID]
	return n, ok
}

// BibMap is the rendered bibliography: ordered ids plus entry strings.
type BibMap struct {
	SortedIDs []string
	Entries   map[string]string
}

// Env carries the engine-owned collaborators query functions need.
type Env struct {
	Interner *intern.Interner
	Format   *output.Format
	// FetchLocale returns raw locale XML for a language tag.
	FetchLocale func(lang string) (string, bool)
	Log         *logrus.Entry
}

// Keys for the common input/query shapes.

func StyleKey() query.Key       { return query.Key{Kind: InStyle} }
func DefaultLangKey() query.Key { return query.Key{Kind: InDefaultLang} }
func BibNoSortKey() query.Key   { return query.Key{Kind: InBibNoSort} }
func RefKeysKey() query.Key     { return query.Key{Kind: InRefKeys} }
func UncitedKey() query.Key     { return query.Key{Kind: InUncited} }
func ClusterIDsKey() query.Key  { return query.Key{Kind: InClusterIDs} }

func LocaleXMLKey(lang intern.Symbol) query.Key {
	return query.Key{Kind: InLocaleXML, A: uint64(lang)}
}

func ReferenceKey(ref intern.Symbol) query.Key {
	return query.Key{Kind: InReference, A: uint64(ref)}
}

func ClusterCitesKey(id cite.ClusterID) query.Key {
	return query.Key{Kind: InClusterCites, A: uint64(id)}
}

func ClusterNoteKey(id cite.ClusterID) query.Key {
	return query.Key{Kind: InClusterNote, A: uint64(id)}
}

func LocaleKey(lang intern.Symbol) query.Key {
	return query.Key{Kind: QLocale, A: uint64(lang)}
}

func ClustersSortedKey() query.Key { return query.Key{Kind: QClustersSorted} }
func CitePositionsKey() query.Key  { return query.Key{Kind: QCitePositions} }
func SortedRefsKey() query.Key     { return query.Key{Kind: QSortedRefs} }
func DisambIndexKey() query.Key    { return query.Key{Kind: QDisambIndex} }
func BibEntriesKey() query.Key     { return query.Key{Kind: QBibEntries} }

func CiteIRKey(key CiteKey) query.Key {
	return query.Key{Kind: QCiteIR, A: uint64(key.Cluster), B: uint64(key.Index)}
}

func BuiltClusterKey(id cite.ClusterID) query.Key {
	return query.Key{Kind: QBuiltCluster, A: uint64(id)}
}

// Register installs every query function on the graph. Queries are
// fixed at build time; Register must run once, before the first Get.
func Register(g *query.Graph, env *Env) {
	g.Register(QLocale, env.localeQuery)
	g.Register(QClustersSorted, env.clustersSortedQuery)
	g.Register(QCitePositions, env.citePositionsQuery)
	g.Register(QSortedRefs, env.sortedRefsQuery)
	g.Register(QDisambIndex, env.disambIndexQuery)
	g.Register(QCiteIR, env.citeIRQuery)
	g.Register(QBuiltCluster, env.builtClusterQuery)
	g.Register(QBibEntries, env.bibEntriesQuery)
}

func (env *Env) style(rt *query.Runtime) *csl.Style {
	v := rt.Input(StyleKey())
	if v == nil {
		return nil
	}
	return v.(*csl.Style)
}

func (env *Env) reference(rt *query.Runtime, refID string) *cite.Reference {
	sym, ok := env.Interner.Get(refID)
	if !ok {
		return nil
	}
	v := rt.Input(ReferenceKey(sym))
	if v == nil {
		return nil
	}
	return v.(*cite.Reference)
}

func (env *Env) refKeys(rt *query.Runtime) []string {
	v := rt.Input(RefKeysKey())
	if v == nil {
		return nil
	}
	return v.([]string)
}

// defaultLocale resolves the merged locale for the style's language.
func (env *Env) defaultLocale(rt *query.Runtime) *csl.Locale {
	lang := "en-US"
	if v := rt.Input(DefaultLangKey()); v != nil {
		if s := v.(string); s != "" {
			lang = s
		}
	} else if style := env.style(rt); style != nil && style.DefaultLocale != "" {
		lang = style.DefaultLocale
	}
	return rt.Get(LocaleKey(env.Interner.Intern(lang))).(*csl.Locale)
}

// localeQuery merges, least specific first: bundled en-US, fetched
// fallback languages, the requested language, then in-style overrides.
func (env *Env) localeQuery(rt *query.Runtime, key query.Key) interface{} {
	lang, _ := env.Interner.Resolve(intern.Symbol(key.A))
	merged := csl.BundledEnUS().Clone()
	merged.Lang = lang

	chain := csl.FallbackChain(lang)
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i] == "en-US" {
			continue
		}
		sym := env.Interner.Intern(chain[i])
		v := rt.Input(LocaleXMLKey(sym))
		if v == nil {
			continue
		}
		loc, err := csl.ParseLocale([]byte(v.(string)))
		if err != nil {
			env.Log.WithField("lang", chain[i]).WithError(err).Warn("ignoring unparseable locale")
			continue
		}
		merged.Merge(loc)
	}

	if style := env.style(rt); style != nil {
		// Universal overrides first, then language-specific ones.
		for _, l := range style.Locales {
			if l.Lang == "" {
				merged.Merge(l)
			}
		}
		for _, l := range style.Locales {
			if l.Lang != "" && (l.Lang == lang || csl.FallbackChain(lang)[0] == l.Lang) {
				merged.Merge(l)
			}
		}
	}
	return merged
}

func (env *Env) clustersSortedQuery(rt *query.Runtime, key query.Key) interface{} {
	var out []ClusterData
	idsVal := rt.Input(ClusterIDsKey())
	if idsVal == nil {
		return out
	}
	for _, id := range idsVal.([]cite.ClusterID) {
		noteVal := rt.Input(ClusterNoteKey(id))
		if noteVal == nil {
			continue
		}
		pos, ok := noteVal.(NotePosition)
		if !ok || !pos.Positioned {
			// Unpositioned clusters exist but do not participate in
			// document ordering.
			continue
		}
		var cites []*cite.Cite
		if cv := rt.Input(ClusterCitesKey(id)); cv != nil {
			cites = cv.([]*cite.Cite)
		}
		out = append(out, ClusterData{ID: id, Number: pos.Number, Cites: cites})
	}
	return out
}

func (env *Env) citePositionsQuery(rt *query.Runtime, key query.Key) interface{} {
	style := env.style(rt)
	nearNote := uint32(5)
	if style != nil && style.Citation.NearNoteDistance > 0 {
		nearNote = style.Citation.NearNoteDistance
	}
	clusters := rt.Get(ClustersSortedKey()).([]ClusterData)
	return ComputePositions(clusters, nearNote)
}

func (env *Env) sortedRefsQuery(rt *query.Runtime, key query.Key) interface{} {
	style := env.style(rt)
	out := &SortedRefs{Numbers: make(map[string]uint32)}
	if style == nil {
		return out
	}

	// Cited references in first-appearance order.
	clusters := rt.Get(ClustersSortedKey()).([]ClusterData)
	keys := env.refKeys(rt)
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	for _, cl := range clusters {
		for _, c := range cl.Cites {
			if !known[c.RefID] {
				continue
			}
			if _, dup := out.Numbers[c.RefID]; dup {
				continue
			}
			out.IDs = append(out.IDs, c.RefID)
			out.Numbers[c.RefID] = uint32(len(out.IDs))
		}
	}

	// Then the uncited ones, in insertion order.
	if uv := rt.Input(UncitedKey()); uv != nil {
		uncited := uv.(*Uncited)
		add := func(id string) {
			if _, dup := out.Numbers[id]; dup {
				return
			}
			out.IDs = append(out.IDs, id)
			out.Numbers[id] = uint32(len(out.IDs))
		}
		if uncited.All {
			for _, id := range keys {
				add(id)
			}
		} else {
			for _, id := range uncited.IDs {
				if known[id] {
					add(id)
				}
			}
		}
	}

	// Stable re-sort by the bibliography's sort definition.
	noSort := false
	if v := rt.Input(BibNoSortKey()); v != nil {
		noSort = v.(bool)
	}
	if style.Bibliography != nil && style.Bibliography.Sort != nil && !noSort {
		srt := style.Bibliography.Sort
		locale := env.defaultLocale(rt)
		items := make([][]SortItem, len(out.IDs))
		for i, id := range out.IDs {
			ctx := NewContext(style, locale, env.Format, env.reference(rt, id), cite.Basic(id))
			ctx.InBibliography = true
			ctx.CiteNumber = out.Numbers[id]
			derived := make([]SortItem, len(srt.Keys))
			for k, sk := range srt.Keys {
				derived[k] = DeriveSortKey(ctx, sk)
			}
			items[i] = derived
		}
		order := make([]int, len(out.IDs))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return CompareKeys(items[order[a]], items[order[b]], srt.Keys) < 0
		})
		ids := make([]string, len(out.IDs))
		for i, o := range order {
			ids[i] = out.IDs[o]
		}
		out.IDs = ids
		for i, id := range out.IDs {
			out.Numbers[id] = uint32(i + 1)
		}
	}
	return out
}

func (env *Env) disambIndexQuery(rt *query.Runtime, key query.Key) interface{} {
	style := env.style(rt)
	if style == nil {
		return &DisambIndex{Configs: map[string]DisambConfig{}, Ambiguous: map[string]bool{}}
	}
	locale := env.defaultLocale(rt)
	sorted := rt.Get(SortedRefsKey()).(*SortedRefs)

	refs := make(map[string]*cite.Reference, len(sorted.IDs))
	for _, id := range sorted.IDs {
		refs[id] = env.reference(rt, id)
	}
	return ComputeDisambiguation(style, locale, env.Format, sorted.IDs, refs)
}

func (env *Env) citeIRQuery(rt *query.Runtime, key query.Key) interface{} {
	style := env.style(rt)
	if style == nil {
		return &IrGen{}
	}
	clusterID := cite.ClusterID(key.A)
	index := int(key.B)

	var c *cite.Cite
	if cv := rt.Input(ClusterCitesKey(clusterID)); cv != nil {
		cites := cv.([]*cite.Cite)
		if index < len(cites) {
			c = cites[index]
		}
	}
	if c == nil {
		return &IrGen{}
	}

	ref := env.reference(rt, c.RefID)
	if ref == nil {
		env.Log.WithField("ref", c.RefID).
			Debugf("citing unknown reference%s", similartext.Find(env.refKeys(rt), c.RefID))
	}
	locale := env.defaultLocale(rt)

	ctx := NewContext(style, locale, env.Format, ref, c)
	positions := rt.Get(CitePositionsKey()).(map[CiteKey]cite.CitePosition)
	ctx.Position = positions[CiteKey{Cluster: clusterID, Index: uint32(index)}]
	sorted := rt.Get(SortedRefsKey()).(*SortedRefs)
	if n, ok := sorted.Number(c.RefID); ok {
		ctx.CiteNumber = n
	}
	disamb := rt.Get(DisambIndexKey()).(*DisambIndex)
	ctx.Disamb = disamb.Config(c.RefID)

	gen := BuildCite(ctx)
	gen.Unambiguous = !disamb.Ambiguous[c.RefID]
	return gen
}

func (env *Env) builtClusterQuery(rt *query.Runtime, key query.Key) interface{} {
	style := env.style(rt)
	if style == nil {
		return ""
	}
	clusterID := cite.ClusterID(key.A)

	items := env.clusterItems(rt, style, clusterID)
	if len(items) == 0 {
		return ""
	}
	b := RenderCluster(style, env.Format, items)
	return env.Format.Output(b, false)
}

// clusterItems assembles a cluster's cites with their final IR, in
// intra-cluster sort order.
func (env *Env) clusterItems(rt *query.Runtime, style *csl.Style, clusterID cite.ClusterID) []ClusterCite {
	cv := rt.Input(ClusterCitesKey(clusterID))
	if cv == nil {
		return nil
	}
	cites := cv.([]*cite.Cite)
	if len(cites) == 0 {
		return nil
	}
	sorted := rt.Get(SortedRefsKey()).(*SortedRefs)

	items := make([]ClusterCite, 0, len(cites))
	for i, c := range cites {
		gen := rt.Get(CiteIRKey(CiteKey{Cluster: clusterID, Index: uint32(i)})).(*IrGen)
		if gen.Root.IR == nil {
			continue
		}
		cnum, _ := sorted.Number(c.RefID)
		items = append(items, ClusterCite{Cite: c, Gen: gen, Cnum: cnum})
	}

	return SortCites(style, env.defaultLocale(rt), env.Format, items, func(id string) *cite.Reference {
		return env.reference(rt, id)
	})
}

// SortCites orders a cluster's cites by the citation <sort> keys,
// stable over document order.
func SortCites(style *csl.Style, locale *csl.Locale, f *output.Format, items []ClusterCite, lookup func(string) *cite.Reference) []ClusterCite {
	srt := style.Citation.Sort
	if srt == nil || len(items) < 2 {
		return items
	}
	derived := make([][]SortItem, len(items))
	for i, item := range items {
		ctx := NewContext(style, locale, f, lookup(item.Cite.RefID), item.Cite)
		ctx.CiteNumber = item.Cnum
		keys := make([]SortItem, len(srt.Keys))
		for k, sk := range srt.Keys {
			keys[k] = DeriveSortKey(ctx, sk)
		}
		derived[i] = keys
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return CompareKeys(derived[order[a]], derived[order[b]], srt.Keys) < 0
	})
	resorted := make([]ClusterCite, len(items))
	for i, o := range order {
		resorted[i] = items[o]
	}
	return resorted
}

// RenderCluster joins a cluster's cites into its final build: grouping,
// collapsing, cluster-initial capitalization and layout affixes.
func RenderCluster(style *csl.Style, f *output.Format, items []ClusterCite) output.Build {
	b := AssembleCluster(style, f, items)
	if output.IsEmpty(b) {
		return nil
	}
	if StartsWithTerm(items[0].Gen.Root) {
		b = output.CapitalizeFirst(b)
	}
	return f.Affixed(b, style.Citation.Layout.Affixes)
}

func (env *Env) bibEntriesQuery(rt *query.Runtime, key query.Key) interface{} {
	style := env.style(rt)
	out := &BibMap{Entries: map[string]string{}}
	if style == nil || style.Bibliography == nil {
		return out
	}
	bib := style.Bibliography
	locale := env.defaultLocale(rt)
	sorted := rt.Get(SortedRefsKey()).(*SortedRefs)
	disamb := rt.Get(DisambIndexKey()).(*DisambIndex)

	var prevTokens []string
	for _, id := range sorted.IDs {
		ref := env.reference(rt, id)
		if ref == nil {
			continue
		}
		ctx := NewContext(style, locale, env.Format, ref, cite.Basic(id))
		ctx.InBibliography = true
		ctx.CiteNumber = sorted.Numbers[id]
		ctx.Disamb = disamb.Config(id)
		gen := BuildCite(ctx)

		if bib.SecondFieldAlign != csl.SecondFieldAlignNone {
			gen.Root = splitFirstField(gen.Root)
		}

		opts := FlattenOpts{}
		tokens, delim := NameTokensOf(gen)
		if bib.HasSubsequentAuthorSubstitute {
			if override, ok := SubstituteNames(tokens, prevTokens, delim, bib.SubsequentAuthorSubstitute, bib.SubsequentAuthorSubstituteRule); ok {
				if override == nil {
					override = output.Build{}
				}
				opts.NameOverride = override
			}
		}
		prevTokens = tokens

		b := FlattenWith(gen.Root, gen.Names, env.Format, opts)
		b = env.Format.Affixed(b, bib.Layout.Affixes)
		s := env.Format.Output(b, true)
		if s == "" {
			s = "[CSL STYLE ERROR: reference with no printed form.]"
		}
		out.SortedIDs = append(out.SortedIDs, id)
		out.Entries[id] = s
	}
	return out
}

// splitFirstField splits a bibliography entry's first rendered field
// into a left-margin/right-inline pair for second-field-align.
func splitFirstField(root IRPair) IRPair {
	layout, ok := root.IR.(*Seq)
	if !ok || len(layout.Contents) == 0 {
		return root
	}
	inner, ok := layout.Contents[0].IR.(*Seq)
	if !ok || len(inner.Contents) < 2 {
		return root
	}
	first := inner.Contents[0]
	rest := make([]IRPair, len(inner.Contents)-1)
	copy(rest, inner.Contents[1:])

	restGV := GVPlain
	for _, p := range rest {
		restGV = restGV.Neighbour(p.GV)
	}
	split := &Seq{
		Contents: []IRPair{
			{IR: &Seq{Contents: []IRPair{first}, Display: "left-margin"}, GV: first.GV},
			{IR: &Seq{Contents: rest, Delimiter: inner.Delimiter, Display: "right-inline"}, GV: restGV},
		},
	}
	newLayout := *layout
	newLayout.Contents = append([]IRPair{{IR: split, GV: root.GV}}, layout.Contents[1:]...)
	return IRPair{IR: &newLayout, GV: root.GV}
}
