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

package csl

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrStyleParse is returned for structural or semantic violations in
	// a style document, at construction time only.
	ErrStyleParse = errors.NewKind("csl: cannot parse style: %s")

	// ErrMacroCycle is returned when the style's macros call each other
	// in a cycle.
	ErrMacroCycle = errors.NewKind("csl: macro cycle through %q")

	// ErrUnknownMacro is returned when an element calls a macro the
	// style does not define.
	ErrUnknownMacro = errors.NewKind("csl: unknown macro %q%s")

	// ErrLocaleParse is returned when a locale document cannot be
	// parsed.
	ErrLocaleParse = errors.NewKind("csl: cannot parse locale: %s")
)
