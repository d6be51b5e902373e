package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"digitbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_LengthIsBounded(t *testing.T) {
	for _, n := range []int{0, 1, 999, 1000, 1001, 2500} {
		h := New(DefaultCapacity, DefaultRecent)
		for i := 0; i < n; i++ {
			require.NoError(t, h.Append(models.Digit(i%10)))
		}
		assert.Equal(t, min(n, DefaultCapacity), h.Len(), "after %d appends", n)
	}
}

func TestHistory_KeepsMostRecentInArrivalOrder(t *testing.T) {
	h := New(1000, 20)
	const n = 1737
	want := make([]models.Digit, 0, n)
	for i := 0; i < n; i++ {
		d := models.Digit((i * 7) % 10)
		want = append(want, d)
		require.NoError(t, h.Append(d))
	}

	assert.Equal(t, want[n-1000:], h.Snapshot())
	assert.Equal(t, want[n-20:], h.Recent())

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, want[n-1], last)
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := New(5, 2)
	for _, d := range []models.Digit{1, 2, 3} {
		require.NoError(t, h.Append(d))
	}

	snap := h.Snapshot()
	snap[0] = 9
	require.NoError(t, h.Append(4))

	assert.Equal(t, []models.Digit{1, 2, 3, 4}, h.Snapshot())
	assert.Equal(t, []models.Digit{3, 4}, h.Recent())
}

func TestHistory_EmptyAndInvalid(t *testing.T) {
	h := New(0, 0)
	assert.Equal(t, DefaultCapacity, h.Capacity())

	_, ok := h.Last()
	assert.False(t, ok)
	assert.Empty(t, h.Snapshot())
	assert.Empty(t, h.Recent())

	err := h.Append(10)
	require.ErrorIs(t, err, ErrInvalidDigit)
	assert.Equal(t, 0, h.Len())
}

// 50 читателей параллельно с непрерывной записью: длина всегда в [0, cap],
// а каждая копия — непрерывный кусок последовательности 0,1,...,9,0,1,...
func TestHistory_ConcurrentReadersSeeConsistentPrefix(t *testing.T) {
	h := New(1000, 20)

	var (
		stop    atomic.Bool
		writer  sync.WaitGroup
		readers sync.WaitGroup
	)

	writer.Add(1)
	go func() {
		defer writer.Done()
		for i := 0; !stop.Load(); i++ {
			_ = h.Append(models.Digit(i % 10))
		}
	}()

	errs := make(chan string, 50)
	for r := 0; r < 50; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for k := 0; k < 200; k++ {
				snap := h.Snapshot()
				if len(snap) > 1000 {
					errs <- "length above capacity"
					return
				}
				for i := 1; i < len(snap); i++ {
					if snap[i] != (snap[i-1]+1)%10 {
						errs <- "out of order snapshot"
						return
					}
				}
			}
		}()
	}

	readers.Wait()
	stop.Store(true)
	writer.Wait()
	close(errs)

	for e := range errs {
		t.Fatal(e)
	}
}
