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

package intern

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternRoundTrip(t *testing.T) {
	require := require.New(t)

	in := New()
	a := in.Intern("cluster-A")
	b := in.Intern("cluster-B")
	require.NotEqual(a, b)
	require.Equal(a, in.Intern("cluster-A"))

	s, ok := in.Resolve(a)
	require.True(ok)
	require.Equal("cluster-A", s)

	_, ok = in.Resolve(Symbol(999))
	require.False(ok)

	sym, ok := in.Get("cluster-B")
	require.True(ok)
	require.Equal(b, sym)

	_, ok = in.Get("missing")
	require.False(ok)

	require.Equal(2, in.Len())
}

func TestInternConcurrent(t *testing.T) {
	in := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s := fmt.Sprintf("id-%d", i)
				sym := in.Intern(s)
				got, ok := in.Resolve(sym)
				if !ok || got != s {
					t.Errorf("resolve(%d) = %q, %v", sym, got, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 100, in.Len())
}
