package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllSucceed(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results := Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	}, Options[int]{Parallelism: 2})

	require.Len(t, results, 5)
	for i, r := range results {
		assert.True(t, r.Succeeded())
		assert.Equal(t, items[i]*items[i], r.Value)
	}
}

func TestRunReportsPerItemFailure(t *testing.T) {
	items := []int{1, 2, 3}
	results := Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("boom")
		}
		return n, nil
	}, Options[int]{})

	assert.True(t, results[0].Succeeded())
	assert.False(t, results[1].Succeeded())
	assert.Error(t, results[1].Err)
	assert.True(t, results[2].Succeeded())
}

func TestRunRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []int{1, 2, 3}
	results := Run(ctx, items, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, Options[int]{})

	for _, r := range results {
		assert.True(t, r.Cancelled)
		assert.False(t, r.Succeeded())
	}
}

func TestRunCallsProgressForEveryItem(t *testing.T) {
	var count int32
	items := []int{1, 2, 3, 4}
	Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, Options[int]{Progress: func(Outcome[int]) {
		atomic.AddInt32(&count, 1)
	}})
	assert.Equal(t, int32(4), count)
}

func TestRunDefaultsParallelismToNumCPU(t *testing.T) {
	items := []int{1}
	results := Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, Options[int]{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded())
}
