package symbol_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlanhaskins/ntl/symbol"
)

func TestIntern(t *testing.T) {
	a := symbol.Intern("counter")
	b := symbol.Intern("counter")
	c := symbol.Intern("value")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, symbol.Invalid, a)
	assert.Equal(t, "counter", a.Str())
	assert.Equal(t, "value", c.Str())
}

func TestHash(t *testing.T) {
	a := symbol.Intern("main")
	assert.Equal(t, a.Hash(), symbol.Intern("main").Hash())
	assert.NotEqual(t, a.Hash(), symbol.Intern("mains").Hash())
}

func TestConcurrentIntern(t *testing.T) {
	// All goroutines intern the same names; every name must resolve to a
	// single ID.
	const n = 16
	ids := make([][]symbol.ID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ids[i] = append(ids[i], symbol.Intern(fmt.Sprintf("sym%d", j)))
			}
		}()
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		require.Equal(t, ids[0], ids[i])
	}
}
