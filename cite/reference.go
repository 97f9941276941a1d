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

// Package cite holds the bibliographic data model: references with their
// four variable classes, names, dates, numeric values, cites and
// clusters.
package cite

// Reference is an immutable bibliographic record keyed by its
// identifier. Updating a reference replaces the whole record under the
// same identifier.
type Reference struct {
	ID   string
	Type string

	// Ordinary holds string-valued variables (title, publisher, ...).
	Ordinary map[string]string
	// Number holds numeric variables with token structure (volume,
	// page, citation-number overrides, ...).
	Number map[string]NumericValue
	// Names holds ordered lists of structured names per name variable.
	Names map[string][]Name
	// Dates holds single dates or ranges per date variable.
	Dates map[string]DateOrRange

	Language string
}

// NewReference returns an empty reference of the given id and type.
func NewReference(id, typ string) *Reference {
	return &Reference{
		ID:       id,
		Type:     typ,
		Ordinary: make(map[string]string),
		Number:   make(map[string]NumericValue),
		Names:    make(map[string][]Name),
		Dates:    make(map[string]DateOrRange),
	}
}

// Has reports whether the reference carries a non-empty value for the
// named variable, in any of the four variable classes.
func (r *Reference) Has(variable string) bool {
	if r == nil {
		return false
	}
	switch variable {
	case "type":
		return r.Type != ""
	case "language":
		return r.Language != ""
	}
	if v, ok := r.Ordinary[variable]; ok && v != "" {
		return true
	}
	if v, ok := r.Number[variable]; ok && v.Raw != "" {
		return true
	}
	if ns, ok := r.Names[variable]; ok && len(ns) > 0 {
		return true
	}
	if _, ok := r.Dates[variable]; ok {
		return true
	}
	return false
}

// Name is one structured personal or institutional name.
type Name struct {
	Family              string
	Given               string
	Suffix              string
	NonDroppingParticle string
	DroppingParticle    string
	Literal             string
	CommaSuffix         bool
}

// IsPerson reports whether the name has person structure rather than
// being a literal institution name.
func (n Name) IsPerson() bool {
	return n.Literal == "" && (n.Family != "" || n.Given != "")
}

// FamilyWithParticle returns the family name with its non-dropping
// particle attached, as used for sorting under never-demote rules.
func (n Name) FamilyWithParticle() string {
	if n.NonDroppingParticle == "" {
		return n.Family
	}
	return n.NonDroppingParticle + " " + n.Family
}

// Date is a single (possibly partial) date. Zero fields are absent.
type Date struct {
	Year   int
	Month  int
	Day    int
	Season int
	Circa  bool
}

// IsZero reports whether no part of the date is set.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0 && d.Season == 0
}

// DateOrRange is a date variable value: a single date, a range, or a
// literal string the caller could not parse into parts.
type DateOrRange struct {
	From    Date
	To      *Date
	Literal string
}

// IsRange reports whether the value spans two dates.
func (d DateOrRange) IsRange() bool { return d.To != nil }

// Uncertain reports whether the date is flagged circa.
func (d DateOrRange) Uncertain() bool {
	return d.From.Circa || (d.To != nil && d.To.Circa)
}
