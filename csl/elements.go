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

// Element is one node of a style's rendering program.
type Element interface {
	element()
}

// TextSource discriminates what a Text element renders.
type TextSource uint8

const (
	SourceValue TextSource = iota
	SourceVariable
	SourceTerm
	SourceMacro
)

// Text renders a literal value, a variable, a term or a macro call.
type Text struct {
	Source TextSource

	Value        string
	Variable     string
	VariableForm string // "", "short", "long"
	Term         string
	TermForm     string
	TermPlural   bool
	Macro        string

	Formatting   Formatting
	Affixes      Affixes
	Quotes       bool
	StripPeriods bool
	TextCase     TextCase
	Display      Display
}

// Number renders a number variable in one of the numeric forms.
type Number struct {
	Variable string
	Form     string // "numeric", "ordinal", "long-ordinal", "roman"

	Formatting Formatting
	Affixes    Affixes
	TextCase   TextCase
	Display    Display
}

// Label renders the term matching a number variable's plurality.
type Label struct {
	Variable string
	Form     string // "long", "short", "symbol"
	Plural   string // "contextual", "always", "never"

	Formatting   Formatting
	Affixes      Affixes
	TextCase     TextCase
	StripPeriods bool
}

// Names renders one or more name variables.
type Names struct {
	Variables []string
	Name      *NameEl
	EtAl      *EtAl
	Label     *Label
	// LabelAfterName records whether cs:label followed cs:name in the
	// style, which controls label placement.
	LabelAfterName bool
	Substitute     []Element

	Delimiter  string
	Formatting Formatting
	Affixes    Affixes
	Display    Display
}

// NameEl is the cs:name element with its formatting options.
type NameEl struct {
	Options    NameOptions
	Formatting Formatting
	Affixes    Affixes
	// Part formatting for "family" and "given".
	FamilyFormatting Formatting
	GivenFormatting  Formatting
}

// EtAl is the cs:et-al element.
type EtAl struct {
	Term       string
	Formatting Formatting
}

// DatePart configures one part of a date element.
type DatePart struct {
	Name           string // "year", "month", "day"
	Form           string
	RangeDelimiter string
	Formatting     Formatting
	Affixes        Affixes
	StripPeriods   bool
}

// Date renders a date variable, either localized (Form set) or with
// explicit parts.
type Date struct {
	Variable string
	// Form selects a localized date format: "text" or "numeric". Empty
	// means an independent date with explicit Parts.
	Form string
	// PartsFilter limits localized dates: "year-month-day", "year-month",
	// "year".
	PartsFilter string
	Parts       []DatePart
	Delimiter   string

	Formatting Formatting
	Affixes    Affixes
	TextCase   TextCase
	Display    Display
}

// Group renders its children with a delimiter, suppressing itself when
// every variable the children touched was missing.
type Group struct {
	Delimiter  string
	Formatting Formatting
	Affixes    Affixes
	Display    Display
	Elements   []Element
}

// Branch is one condition/consequent arm of a Choose.
type Branch struct {
	Cond     Condition
	Elements []Element
}

// Choose is the conditional element.
type Choose struct {
	If     Branch
	ElseIf []Branch
	Else   []Element
}

// Match is a condition match mode.
type Match uint8

const (
	MatchAll Match = iota
	MatchAny
	MatchNone
)

// Condition is the attribute set of an cs:if or cs:else-if. All listed
// tests must pass per the Match mode.
type Condition struct {
	Match Match

	// Disambiguate tests the explicit disambiguate flag; nil when the
	// attribute is absent.
	Disambiguate *bool

	Variables       []string
	Types           []string
	IsNumeric       []string
	Positions       []string
	IsUncertainDate []string
	Locators        []string
}

// IsEmpty reports whether the condition has no tests at all.
func (c Condition) IsEmpty() bool {
	return c.Disambiguate == nil && len(c.Variables) == 0 && len(c.Types) == 0 &&
		len(c.IsNumeric) == 0 && len(c.Positions) == 0 &&
		len(c.IsUncertainDate) == 0 && len(c.Locators) == 0
}

func (*Text) element()   {}
func (*Number) element() {}
func (*Label) element()  {}
func (*Names) element()  {}
func (*Date) element()   {}
func (*Group) element()  {}
func (*Choose) element() {}
