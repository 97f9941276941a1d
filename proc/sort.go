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
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/citation-style-language/citeproc-go/cite"
	"github.com/citation-style-language/citeproc-go/csl"
	"github.com/citation-style-language/citeproc-go/output"
)

// Reserved marker characters embedded in sort strings so one comparator
// can handle macro output: dates ride between DateStart/DateEnd as
// [-]YYYYMMDD, numbers between NumStart/NumEnd.
const (
	DateStartMarker = '\ue000'
	DateEndMarker   = '\ue001'
	NumStartMarker  = '\ue002'
	NumEndMarker    = '\ue003'
)

var foldCaser = cases.Fold()

// SortItemKind discriminates comparable sort values.
type SortItemKind uint8

const (
	ItemMacro SortItemKind = iota
	ItemString
	ItemNumeric
	ItemNames
	ItemDate
	ItemCnum
)

// SortItem is one comparable value derived from a sort key. Missing is
// encoded by Present=false and demotes regardless of direction.
type SortItem struct {
	Kind    SortItemKind
	Present bool

	Str   string
	Num   decimal.Decimal
	Names []string
	Date  cite.DateOrRange
	Cnum  uint32
}

// DeriveSortKey derives the comparable value for one sort key in the
// given context.
func DeriveSortKey(ctx *Context, key csl.SortKey) SortItem {
	if key.Macro != "" {
		s := renderSortMacro(ctx, key)
		if s == "" {
			return SortItem{Kind: ItemMacro}
		}
		return SortItem{Kind: ItemMacro, Present: true, Str: s}
	}

	name := key.Variable
	switch {
	case name == "citation-number":
		if ctx.CiteNumber == 0 {
			return SortItem{Kind: ItemCnum}
		}
		return SortItem{Kind: ItemCnum, Present: true, Cnum: ctx.CiteNumber}

	case cite.IsNameVariable(name):
		names, ok := ctx.NamesVariable(name)
		if !ok {
			return SortItem{Kind: ItemNames}
		}
		folded := make([]string, 0, len(names))
		for _, n := range names {
			if n.IsPerson() {
				folded = append(folded, foldCaser.String(n.FamilyWithParticle()+" "+n.Given))
			} else {
				folded = append(folded, foldCaser.String(n.Literal))
			}
		}
		return SortItem{Kind: ItemNames, Present: true, Names: folded}

	case cite.IsDateVariable(name):
		d, ok := ctx.DateVariable(name)
		if !ok || (d.From.IsZero() && d.Literal == "") {
			return SortItem{Kind: ItemDate}
		}
		return SortItem{Kind: ItemDate, Present: true, Date: d}

	case cite.IsNumberVariable(name):
		v, ok := ctx.NumberVariable(name)
		if !ok {
			return SortItem{Kind: ItemNumeric}
		}
		if n, isInt := v.FirstInt(); isInt && v.IsNumeric() {
			return SortItem{Kind: ItemNumeric, Present: true, Num: decimal.NewFromInt(int64(n))}
		}
		return SortItem{Kind: ItemString, Present: true, Str: foldCaser.String(v.Raw)}

	default:
		v, ok := ctx.Variable(name)
		if !ok {
			return SortItem{Kind: ItemString}
		}
		return SortItem{Kind: ItemString, Present: true, Str: foldCaser.String(v)}
	}
}

// renderSortMacro renders a macro in sort mode: plain text output,
// names forced to sort order with et-al dropped, dates and numbers
// wrapped in comparison markers.
func renderSortMacro(ctx *Context, key csl.SortKey) string {
	els, ok := ctx.Style.Macro(key.Macro)
	if !ok {
		return ""
	}
	sub := *ctx
	sub.SortMode = true
	sub.SortKey = &key
	sub.names = &NameTable{}
	sub.suppressed = []map[string]bool{{}}
	pair := buildElements(&sub, els, " ")
	pair = resolvePair(pair)
	return strings.TrimSpace(output.PlainText(Flatten(pair, sub.names, sub.Format)))
}

// Compare orders two sort items, demoting missing values to the end
// regardless of direction. It returns <0, 0 or >0.
func (a SortItem) Compare(b SortItem, dir csl.Direction) int {
	if !a.Present || !b.Present {
		switch {
		case !a.Present && !b.Present:
			return 0
		case !a.Present:
			return 1
		default:
			return -1
		}
	}
	c := a.compareValue(b)
	if dir == csl.Descending {
		return -c
	}
	return c
}

func (a SortItem) compareValue(b SortItem) int {
	switch a.Kind {
	case ItemCnum:
		return compareUint32(a.Cnum, b.Cnum)
	case ItemNumeric:
		return a.Num.Cmp(b.Num)
	case ItemNames:
		return compareStringSlices(a.Names, b.Names)
	case ItemDate:
		return compareDates(a.Date, b.Date)
	case ItemMacro:
		return CompareNatural(a.Str, b.Str)
	default:
		return strings.Compare(foldCaser.String(a.Str), foldCaser.String(b.Str))
	}
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareStringSlices(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareDates(a, b cite.DateOrRange) int {
	if c := compareDate(a.From, b.From); c != 0 {
		return c
	}
	switch {
	case a.To == nil && b.To == nil:
		return 0
	case a.To == nil:
		return -1
	case b.To == nil:
		return 1
	}
	return compareDate(*a.To, *b.To)
}

func compareDate(a, b cite.Date) int {
	if a.Year != b.Year {
		if a.Year < b.Year {
			return -1
		}
		return 1
	}
	if a.Month != b.Month {
		if a.Month < b.Month {
			return -1
		}
		return 1
	}
	if a.Day != b.Day {
		if a.Day < b.Day {
			return -1
		}
		return 1
	}
	return 0
}

// natToken is one comparable chunk of a natural-sort string.
type natToken struct {
	kind byte // 's' string, 'n' number, 'd' date
	str  string
	num  decimal.Decimal
	date [3]int // year (signed), month, day
}

// CompareNatural compares two strings chunk-wise: embedded date and
// number markers compare as values, digit runs compare numerically, and
// plain text compares case-insensitively.
func CompareNatural(a, b string) int {
	at := natTokens(a)
	bt := natTokens(b)
	for i := 0; i < len(at) && i < len(bt); i++ {
		x, y := at[i], bt[i]
		if x.kind != y.kind {
			return strings.Compare(x.str, y.str)
		}
		var c int
		switch x.kind {
		case 'n':
			c = x.num.Cmp(y.num)
		case 'd':
			c = compareDateParts(x.date, y.date)
		default:
			c = strings.Compare(foldCaser.String(x.str), foldCaser.String(y.str))
		}
		if c != 0 {
			return c
		}
	}
	return len(at) - len(bt)
}

func compareDateParts(a, b [3]int) int {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func natTokens(s string) []natToken {
	var out []natToken
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == DateStartMarker:
			j := i + 1
			for j < len(runes) && runes[j] != DateEndMarker {
				j++
			}
			tok := natToken{kind: 'd', str: string(runes[i+1 : j])}
			tok.date = parseDateMarker(tok.str)
			out = append(out, tok)
			if j < len(runes) {
				j++
			}
			i = j
		case r == NumStartMarker:
			j := i + 1
			for j < len(runes) && runes[j] != NumEndMarker {
				j++
			}
			if d, err := decimal.NewFromString(strings.TrimSpace(string(runes[i+1 : j]))); err == nil {
				out = append(out, natToken{kind: 'n', str: string(runes[i+1 : j]), num: d})
			}
			if j < len(runes) {
				j++
			}
			i = j
		case r >= '0' && r <= '9':
			j := i
			for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
			d, _ := decimal.NewFromString(string(runes[i:j]))
			out = append(out, natToken{kind: 'n', str: string(runes[i:j]), num: d})
			i = j
		default:
			j := i
			for j < len(runes) {
				rj := runes[j]
				if rj == DateStartMarker || rj == NumStartMarker || (rj >= '0' && rj <= '9') {
					break
				}
				j++
			}
			out = append(out, natToken{kind: 's', str: string(runes[i:j])})
			i = j
		}
	}
	return out
}

// parseDateMarker reads a [-]YYYYMMDD token; missing trailing parts are
// zero.
func parseDateMarker(s string) [3]int {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	digits := func(from, to int) int {
		if from >= len(s) {
			return 0
		}
		if to > len(s) {
			to = len(s)
		}
		n := 0
		for _, c := range s[from:to] {
			if c < '0' || c > '9' {
				return 0
			}
			n = n*10 + int(c-'0')
		}
		return n
	}
	year := digits(0, 4)
	if neg {
		year = -year
	}
	return [3]int{year, digits(4, 6), digits(6, 8)}
}

// SortDateMarker encodes a date for embedding in a sort string.
func SortDateMarker(d cite.Date) string {
	var sb strings.Builder
	sb.WriteRune(DateStartMarker)
	if d.Year < 0 {
		sb.WriteByte('-')
		sb.WriteString(pad4(-d.Year))
	} else {
		sb.WriteString(pad4(d.Year))
	}
	sb.WriteString(leadingZero(d.Month))
	sb.WriteString(leadingZero(d.Day))
	sb.WriteRune(DateEndMarker)
	return sb.String()
}

// SortNumMarker encodes a number for embedding in a sort string.
func SortNumMarker(n int) string {
	return string(NumStartMarker) + itoa(n) + string(NumEndMarker)
}

func pad4(n int) string {
	s := itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// zeroPad renders a count, zero-padded in sort mode so string
// comparison orders it correctly.
func zeroPad(n int, sortMode bool) string {
	if !sortMode {
		return itoa(n)
	}
	s := itoa(n)
	for len(s) < 8 {
		s = "0" + s
	}
	return s
}

// CompareKeys walks two derived key vectors; ties fall through to the
// caller's document-order tiebreak.
func CompareKeys(a, b []SortItem, keys []csl.SortKey) int {
	for i := range keys {
		if i >= len(a) || i >= len(b) {
			break
		}
		if c := a[i].Compare(b[i], keys[i].Direction); c != 0 {
			return c
		}
	}
	return 0
}
