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

// Package query implements a demand-driven memoization graph with input
// durabilities, revision tracking, snapshot-based parallel reads and
// garbage collection of stale entries.
//
// The graph is single-writer, many-reader: SetInput may not race with
// evaluation, and evaluation under snapshots may proceed on multiple
// goroutines. Query functions must be deterministic functions of the
// inputs they read; they signal missing data through their value types
// and never fail. Query cycles are programmer errors and panic.
package query

import "fmt"

// Durability classifies how often an input is expected to change. A
// change to an input at durability D only invalidates memoized entries
// whose observed minimum durability is <= D.
type Durability uint8

const (
	// Low durability inputs change on ~every edit.
	Low Durability = iota
	// Medium durability inputs change when the document reorganizes.
	Medium
	// High durability inputs change rarely (style, locales).
	High

	numDurabilities
)

func (d Durability) String() string {
	switch d {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	}
	return fmt.Sprintf("Durability(%d)", uint8(d))
}

// Revision is a monotonically increasing counter bumped by every
// effective input change.
type Revision uint64

// Kind identifies a query or input family registered on a Graph.
type Kind uint8

// Key addresses one memoized entry or input cell: a query kind plus up
// to two packed arguments (interned symbols, cluster ids, cite indexes).
type Key struct {
	Kind Kind
	A    uint64
	B    uint64
}

func (k Key) String() string {
	return fmt.Sprintf("%d(%d,%d)", k.Kind, k.A, k.B)
}

// Fn computes the value of a query key. It records its dependencies
// implicitly by reading other queries and inputs through rt.
type Fn func(rt *Runtime, key Key) interface{}
