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

// Package similartext suggests the closest match from a list of names to
// a (probably mistyped) input, for use in error messages and logs.
package similartext

import (
	"fmt"
	"reflect"
	"strings"
)

// DistanceForStrings returns the edit distance between source and target.
func DistanceForStrings(source, target []rune) int {
	height := len(source) + 1
	width := len(target) + 1
	prev := make([]int, width)
	cur := make([]int, width)
	for j := 0; j < width; j++ {
		prev[j] = j
	}
	for i := 1; i < height; i++ {
		cur[0] = i
		for j := 1; j < width; j++ {
			cost := 1
			if source[i-1] == target[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[width-1]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// Find returns a string with the closest name(s) to src in names, or an
// empty string if none is close enough. The returned string is suitable
// for appending to an error message.
func Find(names []string, src string) string {
	if src == "" {
		return ""
	}

	minDistance := -1
	var matches []string
	for _, name := range names {
		d := DistanceForStrings([]rune(name), []rune(src))
		if minDistance == -1 || d < minDistance {
			minDistance = d
			matches = []string{name}
		} else if d == minDistance {
			matches = append(matches, name)
		}
	}

	if len(matches) == 0 || minDistance > len(src)/2 {
		return ""
	}

	return fmt.Sprintf(", maybe you mean %s?", strings.Join(matches, " or "))
}

// FindFromMap does the same as Find, taking the keys of the given map
// as the list of names.
func FindFromMap(m interface{}, src string) string {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		panic("similartext.FindFromMap: non map received")
	}
	var names []string
	for _, k := range rv.MapKeys() {
		if k.Kind() == reflect.String {
			names = append(names, k.String())
		}
	}
	return Find(names, src)
}
