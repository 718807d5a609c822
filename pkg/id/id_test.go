package id

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorMonotonic(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(42, func() time.Time { return now })

	prev := g.New()
	for i := 0; i < 100; i++ {
		next := g.New()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestGeneratorReproducible(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	a := NewGenerator(7, now)
	b := NewGenerator(7, now)
	assert.Equal(t, a.New(), b.New())
}

func TestTimeAndValid(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewGenerator(1, func() time.Time { return at }).New()

	assert.True(t, Valid(s))
	assert.Len(t, s, 26)
	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, at.Equal(got))

	assert.False(t, Valid("not-an-id"))
	_, err = Time("nope")
	assert.Error(t, err)
}

func TestNewConcurrent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := New()
				mu.Lock()
				seen[s] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}
