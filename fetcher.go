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
	lru "github.com/hashicorp/golang-lru/v2"
)

// LocaleFetcher supplies locale XML for a language tag. Fetch failures
// are not errors: the engine falls back down the language chain and
// ultimately to the bundled en-US locale.
type LocaleFetcher interface {
	FetchLocale(lang string) (string, bool)
}

// LocaleFetcherFunc adapts a function to the LocaleFetcher interface.
type LocaleFetcherFunc func(lang string) (string, bool)

func (f LocaleFetcherFunc) FetchLocale(lang string) (string, bool) {
	return f(lang)
}

// predefinedLocales serves locales from a fixed map; with an empty map
// it leaves everything to the bundled en-US defaults.
type predefinedLocales struct {
	locales map[string]string
}

// PredefinedLocales returns a fetcher over a fixed lang->XML map.
func PredefinedLocales(locales map[string]string) LocaleFetcher {
	return &predefinedLocales{locales: locales}
}

func (p *predefinedLocales) FetchLocale(lang string) (string, bool) {
	xml, ok := p.locales[lang]
	return xml, ok
}

const localeCacheSize = 32

// cachingFetcher memoizes fetch results, including misses, so a slow
// caller-supplied fetcher is consulted once per language.
type cachingFetcher struct {
	inner LocaleFetcher
	cache *lru.Cache[string, fetchResult]
}

type fetchResult struct {
	xml string
	ok  bool
}

func newCachingFetcher(inner LocaleFetcher) *cachingFetcher {
	cache, err := lru.New[string, fetchResult](localeCacheSize)
	if err != nil {
		panic(err)
	}
	return &cachingFetcher{inner: inner, cache: cache}
}

func (c *cachingFetcher) FetchLocale(lang string) (string, bool) {
	if r, ok := c.cache.Get(lang); ok {
		return r.xml, r.ok
	}
	xml, ok := c.inner.FetchLocale(lang)
	c.cache.Add(lang, fetchResult{xml: xml, ok: ok})
	return xml, ok
}
