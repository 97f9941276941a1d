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

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrNonExistentCluster is returned when a preview names a cluster
	// the document does not contain.
	ErrNonExistentCluster = errors.NewKind("citeproc: cluster %q does not exist")

	// ErrNonMonotonicNoteNumber is returned when a reordering supplies a
	// note number lower than its predecessor. The reordering has no
	// effect on the engine's state.
	ErrNonMonotonicNoteNumber = errors.NewKind("citeproc: non-monotonic note number %d")

	// ErrDidNotSupplyZeroPosition is returned when a preview reordering
	// does not mark exactly one position as the preview target.
	ErrDidNotSupplyZeroPosition = errors.NewKind("citeproc: preview reordering must mark exactly one position")
)
