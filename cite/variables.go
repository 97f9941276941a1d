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

package cite

// VarClass classifies a CSL variable name.
type VarClass uint8

const (
	ClassOrdinary VarClass = iota
	ClassNumber
	ClassName
	ClassDate
)

var nameVariables = map[string]bool{
	"author": true, "collection-editor": true, "composer": true,
	"container-author": true, "director": true, "editor": true,
	"editorial-director": true, "illustrator": true, "interviewer": true,
	"original-author": true, "recipient": true, "reviewed-author": true,
	"translator": true,
}

var dateVariables = map[string]bool{
	"accessed": true, "container": true, "event-date": true,
	"issued": true, "original-date": true, "submitted": true,
}

var numberVariables = map[string]bool{
	"chapter-number": true, "citation-number": true, "collection-number": true,
	"edition": true, "first-reference-note-number": true, "issue": true,
	"locator": true, "number": true, "number-of-pages": true,
	"number-of-volumes": true, "page": true, "page-first": true,
	"volume": true,
}

// ClassOf returns the variable class of a CSL variable name. Unknown
// names are treated as ordinary variables.
func ClassOf(variable string) VarClass {
	switch {
	case nameVariables[variable]:
		return ClassName
	case dateVariables[variable]:
		return ClassDate
	case numberVariables[variable]:
		return ClassNumber
	}
	return ClassOrdinary
}

// IsNameVariable reports whether the variable holds names.
func IsNameVariable(variable string) bool { return nameVariables[variable] }

// IsDateVariable reports whether the variable holds dates.
func IsDateVariable(variable string) bool { return dateVariables[variable] }

// IsNumberVariable reports whether the variable is numeric.
func IsNumberVariable(variable string) bool { return numberVariables[variable] }
