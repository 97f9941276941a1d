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

import (
	"encoding/json"

	"github.com/spf13/cast"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrReferenceParse is returned when CSL-JSON input cannot be decoded.
var ErrReferenceParse = errors.NewKind("cite: cannot parse reference: %s")

// ParseReferences decodes a CSL-JSON array of reference records.
func ParseReferences(data []byte) ([]*Reference, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrReferenceParse.New(err)
	}
	refs := make([]*Reference, 0, len(raw))
	for _, m := range raw {
		r, err := ParseReference(m)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// ParseReference decodes one CSL-JSON reference object. Values are
// coerced leniently: numbers may arrive as JSON numbers or strings.
func ParseReference(m map[string]interface{}) (*Reference, error) {
	id := cast.ToString(m["id"])
	if id == "" {
		return nil, ErrReferenceParse.New("missing id")
	}
	r := NewReference(id, cast.ToString(m["type"]))
	for k, v := range m {
		switch k {
		case "id", "type":
			continue
		case "language":
			r.Language = cast.ToString(v)
			continue
		}
		switch ClassOf(k) {
		case ClassName:
			names, err := parseNames(v)
			if err != nil {
				return nil, ErrReferenceParse.New(err)
			}
			if len(names) > 0 {
				r.Names[k] = names
			}
		case ClassDate:
			d, ok := parseDate(v)
			if ok {
				r.Dates[k] = d
			}
		case ClassNumber:
			s := cast.ToString(v)
			if s != "" {
				r.Number[k] = ParseNumeric(s)
			}
		default:
			s := cast.ToString(v)
			if s != "" {
				r.Ordinary[k] = s
			}
		}
	}
	return r, nil
}

func parseNames(v interface{}) ([]Name, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, nil
	}
	var names []Name
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		n := Name{
			Family:              cast.ToString(m["family"]),
			Given:               cast.ToString(m["given"]),
			Suffix:              cast.ToString(m["suffix"]),
			NonDroppingParticle: cast.ToString(m["non-dropping-particle"]),
			DroppingParticle:    cast.ToString(m["dropping-particle"]),
			Literal:             cast.ToString(m["literal"]),
			CommaSuffix:         cast.ToBool(m["comma-suffix"]),
		}
		names = append(names, n)
	}
	return names, nil
}

func parseDate(v interface{}) (DateOrRange, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return DateOrRange{}, false
	}
	var out DateOrRange
	if lit := cast.ToString(m["literal"]); lit != "" {
		out.Literal = lit
	}
	out.From.Circa = cast.ToBool(m["circa"])
	if season := cast.ToInt(m["season"]); season != 0 {
		out.From.Season = season
	}
	if parts, ok := m["date-parts"].([]interface{}); ok && len(parts) > 0 {
		if from, ok := parseDateParts(parts[0]); ok {
			from.Circa = out.From.Circa
			from.Season = out.From.Season
			out.From = from
		}
		if len(parts) > 1 {
			if to, ok := parseDateParts(parts[1]); ok {
				out.To = &to
			}
		}
		return out, true
	}
	if raw := cast.ToString(m["raw"]); raw != "" && out.Literal == "" {
		out.Literal = raw
	}
	return out, out.Literal != "" || !out.From.IsZero()
}

func parseDateParts(v interface{}) (Date, bool) {
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return Date{}, false
	}
	var d Date
	d.Year = cast.ToInt(list[0])
	if len(list) > 1 {
		d.Month = cast.ToInt(list[1])
	}
	if len(list) > 2 {
		d.Day = cast.ToInt(list[2])
	}
	return d, d.Year != 0
}
