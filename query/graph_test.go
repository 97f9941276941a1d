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

package query

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	kindInput Kind = iota
	kindDouble
	kindSum
	kindLoopA
	kindLoopB
)

func newTestGraph(t *testing.T, computes *atomic.Int64) *Graph {
	t.Helper()
	g := NewGraph()
	g.Register(kindDouble, func(rt *Runtime, key Key) interface{} {
		if computes != nil {
			computes.Add(1)
		}
		v := rt.Input(Key{Kind: kindInput, A: key.A})
		if v == nil {
			return 0
		}
		return v.(int) * 2
	})
	g.Register(kindSum, func(rt *Runtime, key Key) interface{} {
		a := rt.Get(Key{Kind: kindDouble, A: 1}).(int)
		b := rt.Get(Key{Kind: kindDouble, A: 2}).(int)
		return a + b
	})
	return g
}

func TestGetMemoizes(t *testing.T) {
	require := require.New(t)
	var computes atomic.Int64
	g := newTestGraph(t, &computes)

	g.SetInput(Key{Kind: kindInput, A: 1}, 10, Low)
	require.Equal(20, g.Get(Key{Kind: kindDouble, A: 1}))
	require.Equal(20, g.Get(Key{Kind: kindDouble, A: 1}))
	require.Equal(int64(1), computes.Load())
}

func TestSetInputEqualValueIsNoop(t *testing.T) {
	require := require.New(t)
	g := newTestGraph(t, nil)

	g.SetInput(Key{Kind: kindInput, A: 1}, 10, Low)
	rev := g.Revision()
	g.SetInput(Key{Kind: kindInput, A: 1}, 10, Low)
	require.Equal(rev, g.Revision())

	g.SetInput(Key{Kind: kindInput, A: 1}, 11, Low)
	require.Equal(rev+1, g.Revision())
}

func TestEarlyCutoff(t *testing.T) {
	require := require.New(t)
	var computes atomic.Int64
	g := NewGraph()
	g.Register(kindDouble, func(rt *Runtime, key Key) interface{} {
		v := rt.Input(Key{Kind: kindInput, A: key.A})
		// Collapses odd inputs to the preceding even value.
		return v.(int) / 2 * 2
	})
	g.Register(kindSum, func(rt *Runtime, key Key) interface{} {
		computes.Add(1)
		return rt.Get(Key{Kind: kindDouble, A: 1}).(int) + 1
	})

	g.SetInput(Key{Kind: kindInput, A: 1}, 10, Low)
	require.Equal(11, g.Get(Key{Kind: kindSum}))
	require.Equal(int64(1), computes.Load())

	// 11/2*2 == 10: the intermediate query's value is unchanged, so the
	// dependent must not recompute.
	g.SetInput(Key{Kind: kindInput, A: 1}, 11, Low)
	require.Equal(11, g.Get(Key{Kind: kindSum}))
	require.Equal(int64(1), computes.Load())

	g.SetInput(Key{Kind: kindInput, A: 1}, 12, Low)
	require.Equal(13, g.Get(Key{Kind: kindSum}))
	require.Equal(int64(2), computes.Load())
}

func TestDurabilityShortCircuit(t *testing.T) {
	require := require.New(t)
	var computes atomic.Int64
	g := NewGraph()
	g.Register(kindDouble, func(rt *Runtime, key Key) interface{} {
		computes.Add(1)
		return rt.Input(Key{Kind: kindInput, A: 1}).(int) * 2
	})

	g.SetInput(Key{Kind: kindInput, A: 1}, 5, High)
	require.Equal(10, g.Get(Key{Kind: kindDouble}))
	require.Equal(int64(1), computes.Load())

	// A LOW-durability change elsewhere must not even deep-verify a
	// query that only observed HIGH inputs.
	g.SetInput(Key{Kind: kindInput, A: 99}, 1, Low)
	require.Equal(10, g.Get(Key{Kind: kindDouble}))
	require.Equal(int64(1), computes.Load())

	g.SetInput(Key{Kind: kindInput, A: 1}, 6, High)
	require.Equal(12, g.Get(Key{Kind: kindDouble}))
	require.Equal(int64(2), computes.Load())
}

func TestTransitiveInvalidation(t *testing.T) {
	require := require.New(t)
	g := newTestGraph(t, nil)

	g.SetInput(Key{Kind: kindInput, A: 1}, 1, Low)
	g.SetInput(Key{Kind: kindInput, A: 2}, 2, Low)
	require.Equal(6, g.Get(Key{Kind: kindSum}))

	g.SetInput(Key{Kind: kindInput, A: 2}, 5, Low)
	require.Equal(12, g.Get(Key{Kind: kindSum}))
}

func TestCycleDetectionPanics(t *testing.T) {
	g := NewGraph()
	g.Register(kindLoopA, func(rt *Runtime, key Key) interface{} {
		return rt.Get(Key{Kind: kindLoopB})
	})
	g.Register(kindLoopB, func(rt *Runtime, key Key) interface{} {
		return rt.Get(Key{Kind: kindLoopA})
	})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		require.True(t, strings.Contains(r.(string), "cycle"))
	}()
	g.Get(Key{Kind: kindLoopA})
}

func TestSweepDropsStaleEntries(t *testing.T) {
	require := require.New(t)
	g := newTestGraph(t, nil)

	g.SetInput(Key{Kind: kindInput, A: 1}, 1, Low)
	g.SetInput(Key{Kind: kindInput, A: 2}, 2, Low)
	g.Get(Key{Kind: kindDouble, A: 1})
	g.Get(Key{Kind: kindDouble, A: 2})

	// Only re-verify one of the two entries at the new revision.
	g.SetInput(Key{Kind: kindInput, A: 1}, 3, Low)
	g.Get(Key{Kind: kindDouble, A: 1})

	dropped := g.Sweep()
	require.Equal(1, dropped)
}

func TestSnapshotIsolation(t *testing.T) {
	require := require.New(t)
	g := newTestGraph(t, nil)

	g.SetInput(Key{Kind: kindInput, A: 1}, 21, Low)

	snap := g.Snapshot()
	defer snap.Release()

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = snap.Get(Key{Kind: kindDouble, A: 1}).(int)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Equal(42, r)
	}
}

func TestSetInputDuringSnapshotPanics(t *testing.T) {
	g := newTestGraph(t, nil)
	g.SetInput(Key{Kind: kindInput, A: 1}, 1, Low)
	snap := g.Snapshot()
	require.Panics(t, func() {
		g.SetInput(Key{Kind: kindInput, A: 1}, 2, Low)
	})
	snap.Release()
	g.SetInput(Key{Kind: kindInput, A: 1}, 2, Low)
	require.Equal(t, 4, g.Get(Key{Kind: kindDouble, A: 1}))
}
