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

// BundledEnUS returns the built-in en-US locale used as the last
// fallback when no fetcher can supply a locale.
func BundledEnUS() *Locale {
	l := NewLocale("en-US")

	simple := map[string]string{
		"and":          "and",
		"and others":   "and others",
		"anonymous":    "anonymous",
		"at":           "at",
		"et-al":        "et al.",
		"ibid":         "ibid",
		"in":           "in",
		"no date":      "n.d.",
		"accessed":     "accessed",
		"from":         "from",
		"retrieved":    "retrieved",
		"circa":        "circa",
		"open-quote":   "“",
		"close-quote":  "”",
		"open-inner-quote":  "‘",
		"close-inner-quote": "’",
	}
	for name, single := range simple {
		l.Terms[TermKey{Name: name}] = Term{Single: single}
	}

	plural := map[string][2]string{
		"page":    {"page", "pages"},
		"chapter": {"chapter", "chapters"},
		"volume":  {"volume", "volumes"},
		"issue":   {"issue", "issues"},
		"note":    {"note", "notes"},
		"edition": {"edition", "editions"},
		"editor":  {"editor", "editors"},
		"translator": {"translator", "translators"},
	}
	for name, forms := range plural {
		l.Terms[TermKey{Name: name}] = Term{Single: forms[0], Multiple: forms[1]}
	}
	short := map[string][2]string{
		"page":    {"p.", "pp."},
		"chapter": {"chap.", "chaps."},
		"volume":  {"vol.", "vols."},
		"issue":   {"no.", "nos."},
		"edition": {"ed.", "eds."},
		"editor":  {"ed.", "eds."},
		"translator": {"trans.", "trans."},
	}
	for name, forms := range short {
		l.Terms[TermKey{Name: name, Form: "short"}] = Term{Single: forms[0], Multiple: forms[1]}
	}

	months := []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	monthsShort := []string{
		"Jan.", "Feb.", "Mar.", "Apr.", "May", "Jun.",
		"Jul.", "Aug.", "Sep.", "Oct.", "Nov.", "Dec.",
	}
	for i, m := range months {
		name := monthTermName(i + 1)
		l.Terms[TermKey{Name: name}] = Term{Single: m}
		l.Terms[TermKey{Name: name, Form: "short"}] = Term{Single: monthsShort[i]}
	}
	seasons := []string{"Spring", "Summer", "Autumn", "Winter"}
	for i, s := range seasons {
		l.Terms[TermKey{Name: seasonTermName(i + 1)}] = Term{Single: s}
	}

	// English ordinal suffixes.
	l.Terms[TermKey{Name: "ordinal"}] = Term{Single: "th"}
	l.Terms[TermKey{Name: "ordinal-01"}] = Term{Single: "st"}
	l.Terms[TermKey{Name: "ordinal-02"}] = Term{Single: "nd"}
	l.Terms[TermKey{Name: "ordinal-03"}] = Term{Single: "rd"}
	longOrdinals := []string{
		"first", "second", "third", "fourth", "fifth",
		"sixth", "seventh", "eighth", "ninth", "tenth",
	}
	for i, o := range longOrdinals {
		l.Terms[TermKey{Name: longOrdinalTermName(i + 1)}] = Term{Single: o}
	}

	// Localized date formats.
	l.Dates["text"] = &Date{
		Form:      "text",
		Delimiter: " ",
		Parts: []DatePart{
			{Name: "month"},
			{Name: "day", Affixes: Affixes{Suffix: ","}},
			{Name: "year"},
		},
	}
	l.Dates["numeric"] = &Date{
		Form:      "numeric",
		Delimiter: "/",
		Parts: []DatePart{
			{Name: "month", Form: "numeric-leading-zeros"},
			{Name: "day", Form: "numeric-leading-zeros"},
			{Name: "year"},
		},
	}
	return l
}

func monthTermName(m int) string {
	return termNameNN("month", m)
}

func seasonTermName(s int) string {
	return termNameNN("season", s)
}

func longOrdinalTermName(n int) string {
	return termNameNN("long-ordinal", n)
}

func termNameNN(prefix string, n int) string {
	if n < 10 {
		return prefix + "-0" + string(rune('0'+n))
	}
	return prefix + "-1" + string(rune('0'+n-10))
}
