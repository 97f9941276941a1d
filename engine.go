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

// Package citeproc is an incremental citation processor: it renders
// citation clusters and a bibliography from a CSL style, a reference
// library and the document's evolving sequence of clusters, recomputing
// minimally as the document changes.
package citeproc

import (
	"runtime"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/internal/intern"
	"github.com/citation-style-language/citeproc-go/output"
	"github.com/citation-style-language/citeproc-go/proc"
	"github.com/citation-style-language/citeproc-go/query"
)

// previewClusterName reserves interner symbol zero for speculative
// rendering; it is never exposed as a real cluster id.
const previewClusterName = "\x00preview"

// InitOptions configures a new Processor.
type InitOptions struct {
	// Style is the style document text. Required.
	Style string
	// Format selects the output format. The zero value selects plain text.
	Format output.Mode
	// LocaleOverride forces a locale regardless of the style default.
	LocaleOverride string
	// Fetcher supplies locale XML; nil uses the bundled en-US only.
	Fetcher LocaleFetcher
	// BibliographyNoSort disables the bibliography <sort>.
	BibliographyNoSort bool
	// Features enables style feature flags.
	Features map[string]bool
	// Logger overrides the default logrus logger.
	Logger *logrus.Logger
	// Tracer overrides the opentracing global tracer.
	Tracer opentracing.Tracer
}

// Processor is the citation engine. Mutations go through the owning
// handle and must not be concurrent with evaluation; Compute evaluates
// clusters in parallel on snapshots.
type Processor struct {
	graph    *query.Graph
	env      *proc.Env
	interner *intern.Interner
	format   *output.Format
	fetcher  *cachingFetcher
	log      *logrus.Entry
	tracer   opentracing.Tracer

	previewID cite.ClusterID

	// Mirrors of the graph's inputs, kept for transactional restore and
	// cheap introspection.
	refIDs     []string
	refs       map[string]*cite.Reference
	clusterIDs []cite.ClusterID
	cites      map[cite.ClusterID][]*cite.Cite
	notes      map[cite.ClusterID]*cite.ClusterNumber
	langs      map[string]bool

	// mu guards the last-emitted cluster and bibliography maps.
	mu           sync.Mutex
	lastClusters map[cite.ClusterID]string
	lastBib      savedBib
}

// New builds a Processor from options, parsing the style.
func New(options InitOptions) (*Processor, error) {
	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	tracer := options.Tracer
	if tracer == nil {
		tracer = opentracing.GlobalTracer()
	}
	fetcher := options.Fetcher
	if fetcher == nil {
		fetcher = PredefinedLocales(nil)
	}

	style, err := csl.ParseWithOptions(options.Style, csl.ParseOptions{
		AllowNoInfo: true,
		Features:    options.Features,
	})
	if err != nil {
		return nil, err
	}

	p := &Processor{
		graph:        query.NewGraph(),
		interner:     intern.New(),
		format:       output.New(options.Format),
		fetcher:      newCachingFetcher(fetcher),
		log:          logger.WithField("component", "citeproc"),
		tracer:       tracer,
		refs:         make(map[string]*cite.Reference),
		cites:        make(map[cite.ClusterID][]*cite.Cite),
		notes:        make(map[cite.ClusterID]*cite.ClusterNumber),
		langs:        make(map[string]bool),
		lastClusters: make(map[cite.ClusterID]string),
		lastBib:      savedBib{entries: map[string]string{}},
	}
	p.previewID = cite.ClusterID(p.interner.Intern(previewClusterName))

	p.env = &proc.Env{
		Interner:    p.interner,
		Format:      p.format,
		FetchLocale: p.fetcher.FetchLocale,
		Log:         p.log,
	}
	proc.Register(p.graph, p.env)

	p.graph.SetInput(proc.StyleKey(), style, query.High)
	p.graph.SetInput(proc.BibNoSortKey(), options.BibliographyNoSort, query.High)
	if options.LocaleOverride != "" {
		p.graph.SetInput(proc.DefaultLangKey(), options.LocaleOverride, query.High)
	}
	p.fetchLangsInUse()
	return p, nil
}

// SetStyleText replaces the style document.
func (p *Processor) SetStyleText(text string) error {
	style, err := csl.Parse(text)
	if err != nil {
		return err
	}
	p.graph.SetInput(proc.StyleKey(), style, query.High)
	p.fetchLangsInUse()
	return nil
}

// GetStyle returns the current parsed style.
func (p *Processor) GetStyle() *csl.Style {
	v, _ := p.graph.InputValue(proc.StyleKey())
	if v == nil {
		return nil
	}
	return v.(*csl.Style)
}

// fetchLangsInUse pulls locale XML for the languages the configuration
// needs and stores it at HIGH durability.
func (p *Processor) fetchLangsInUse() {
	for _, lang := range p.LangsInUse() {
		if lang == "en-US" {
			continue
		}
		xml, ok := p.fetcher.FetchLocale(lang)
		if !ok {
			p.log.WithField("lang", lang).Debug("no locale from fetcher, falling back")
			continue
		}
		p.storeLocale(lang, xml)
	}
}

func (p *Processor) storeLocale(lang, xml string) {
	sym := p.interner.Intern(lang)
	p.graph.SetInput(proc.LocaleXMLKey(sym), xml, query.High)
	p.langs[lang] = true
}

// StoreLocales stores pre-fetched locale documents.
func (p *Processor) StoreLocales(locales map[string]string) {
	for lang, xml := range locales {
		p.storeLocale(lang, xml)
	}
}

// LangsInUse returns the language chain the current configuration can
// consult.
func (p *Processor) LangsInUse() []string {
	lang := "en-US"
	if v, _ := p.graph.InputValue(proc.DefaultLangKey()); v != nil {
		if s := v.(string); s != "" {
			lang = s
		}
	} else if style := p.GetStyle(); style != nil && style.DefaultLocale != "" {
		lang = style.DefaultLocale
	}
	return csl.FallbackChain(lang)
}

// HasCachedLocale reports whether a locale document is stored for lang.
func (p *Processor) HasCachedLocale(lang string) bool {
	return p.langs[lang]
}

// Compute renders every positioned cluster and returns the diffs
// against the last emit. A second call with unchanged inputs returns no
// diffs.
func (p *Processor) Compute() []ClusterDiff {
	span := p.tracer.StartSpan("citeproc.compute")
	defer span.Finish()

	diffs := p.computeClusters()
	p.graph.Sweep()
	return diffs
}

func (p *Processor) computeClusters() []ClusterDiff {
	clusters := p.graph.Get(proc.ClustersSortedKey()).([]proc.ClusterData)

	results := make([]string, len(clusters))
	snap := p.graph.Snapshot()
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i := range clusters {
		i := i
		id := clusters[i].ID
		eg.Go(func() error {
			results[i] = snap.Get(proc.BuiltClusterKey(id)).(string)
			return nil
		})
	}
	// Workers cannot fail; the group only joins them.
	_ = eg.Wait()
	snap.Release()

	p.mu.Lock()
	defer p.mu.Unlock()
	var diffs []ClusterDiff
	for i, cl := range clusters {
		if prev, ok := p.lastClusters[cl.ID]; !ok || prev != results[i] {
			p.lastClusters[cl.ID] = results[i]
			diffs = append(diffs, ClusterDiff{ID: cl.ID, Rendered: results[i]})
		}
	}
	return diffs
}

// BatchedUpdates computes cluster diffs plus a bibliography diff.
func (p *Processor) BatchedUpdates() UpdateSummary {
	span := p.tracer.StartSpan("citeproc.batched_updates")
	defer span.Finish()

	summary := UpdateSummary{Clusters: p.computeClusters()}
	summary.Bibliography = p.saveAndDiffBibliography()
	p.graph.Sweep()
	return summary
}

func (p *Processor) saveAndDiffBibliography() *BibliographyUpdate {
	style := p.GetStyle()
	if style == nil || style.Bibliography == nil {
		return nil
	}
	bib := p.graph.Get(proc.BibEntriesKey()).(*proc.BibMap)

	p.mu.Lock()
	defer p.mu.Unlock()
	update := &BibliographyUpdate{UpdatedEntries: map[string]string{}}
	for id, rendered := range bib.Entries {
		if old, ok := p.lastBib.entries[id]; !ok || old != rendered {
			update.UpdatedEntries[id] = rendered
		}
	}
	if !equalStrings(bib.SortedIDs, p.lastBib.ids) {
		update.EntryIDs = append([]string(nil), bib.SortedIDs...)
	}
	p.lastBib = savedBib{
		entries: copyStringMap(bib.Entries),
		ids:     append([]string(nil), bib.SortedIDs...),
	}
	if len(update.UpdatedEntries) == 0 && update.EntryIDs == nil {
		return nil
	}
	return update
}

// GetCluster returns a cluster's rendering, or false when the cluster
// has no document position.
func (p *Processor) GetCluster(id cite.ClusterID) (string, bool) {
	if p.notes[id] == nil {
		return "", false
	}
	return p.graph.Get(proc.BuiltClusterKey(id)).(string), true
}

// AllClusters renders every positioned cluster.
func (p *Processor) AllClusters() map[cite.ClusterID]string {
	out := make(map[cite.ClusterID]string, len(p.clusterIDs))
	for _, id := range p.clusterIDs {
		if s, ok := p.GetCluster(id); ok {
			out[id] = s
		}
	}
	return out
}

// GetBibliography returns the rendered bibliography in order.
func (p *Processor) GetBibliography() []BibEntry {
	style := p.GetStyle()
	if style == nil || style.Bibliography == nil {
		return nil
	}
	bib := p.graph.Get(proc.BibEntriesKey()).(*proc.BibMap)
	out := make([]BibEntry, 0, len(bib.SortedIDs))
	for _, id := range bib.SortedIDs {
		out = append(out, BibEntry{ID: id, Value: bib.Entries[id]})
	}
	return out
}

// GetBibItem returns one rendered bibliography entry.
func (p *Processor) GetBibItem(refID string) (string, bool) {
	bib := p.graph.Get(proc.BibEntriesKey()).(*proc.BibMap)
	s, ok := bib.Entries[refID]
	return s, ok
}

// GetBibliographyMeta returns the bibliography-wide layout facts, or
// false when the style has no bibliography.
func (p *Processor) GetBibliographyMeta() (BibliographyMeta, bool) {
	style := p.GetStyle()
	if style == nil || style.Bibliography == nil {
		return BibliographyMeta{}, false
	}
	b := style.Bibliography
	meta := BibliographyMeta{
		LineSpacing:   b.LineSpacing,
		EntrySpacing:  b.EntrySpacing,
		HangingIndent: b.HangingIndent,
		FormatMeta:    p.format.Meta().MarkupFormat,
	}
	switch b.SecondFieldAlign {
	case csl.SecondFieldAlignFlush:
		meta.SecondFieldAlign = SecondFieldAlignFlush
	case csl.SecondFieldAlignMargin:
		meta.SecondFieldAlign = SecondFieldAlignMargin
	}
	return meta, true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
