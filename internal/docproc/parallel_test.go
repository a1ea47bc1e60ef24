package docproc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCollectsResults(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results := Map(items, 2,
		func(i int) string { return fmt.Sprintf("item-%d", i) },
		func(i int) (int, error) { return i * 10, nil },
		nil)

	require.Len(t, results, 5)
	sort.Ints(results)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, results)
}

func TestMapReportsFailures(t *testing.T) {
	var mu sync.Mutex
	var failed []string
	results := Map([]int{1, 2, 3}, 0,
		func(i int) string { return fmt.Sprintf("item-%d", i) },
		func(i int) (int, error) {
			if i == 2 {
				return 0, errors.New("boom")
			}
			return i, nil
		},
		func(name string, err error) {
			mu.Lock()
			failed = append(failed, name)
			mu.Unlock()
		})

	assert.Len(t, results, 2, "failed items produce no result")
	assert.Equal(t, []string{"item-2"}, failed)
}

func TestMapEmptyInput(t *testing.T) {
	results := Map(nil, 3,
		func(int) string { return "" },
		func(i int) (int, error) { return i, nil },
		nil)
	assert.Nil(t, results)
}

func TestMapOrderedPreservesOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	results, ok := MapOrdered(context.Background(), items, 2,
		func(_ context.Context, i int, s string) (string, error) {
			return fmt.Sprintf("%d:%s", i, s), nil
		}, nil)

	require.Len(t, results, 4)
	assert.Equal(t, []string{"0:a", "1:b", "2:c", "3:d"}, results)
	assert.Equal(t, []bool{true, true, true, true}, ok)
}

func TestMapOrderedFlagsFailedSlots(t *testing.T) {
	var calls int
	var mu sync.Mutex
	results, ok := MapOrdered(context.Background(), []int{10, 20, 30}, 1,
		func(_ context.Context, i int, v int) (int, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			if i == 1 {
				return 0, errors.New("boom")
			}
			return v * 2, nil
		},
		func(_ string, err error) {
			assert.EqualError(t, err, "boom")
		})

	assert.Equal(t, 3, calls, "a failure does not stop the batch")
	assert.Equal(t, []bool{true, false, true}, ok)
	assert.Equal(t, 20, results[0])
	assert.Zero(t, results[1])
	assert.Equal(t, 60, results[2])
}

func TestMapOrderedCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := MapOrdered(ctx, []int{1, 2, 3}, 1,
		func(context.Context, int, int) (int, error) { return 1, nil }, nil)
	for _, o := range ok {
		assert.False(t, o, "no work runs after cancellation")
	}
}
