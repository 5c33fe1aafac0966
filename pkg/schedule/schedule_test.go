package schedule_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/nearcart/pkg/schedule"
)

func TestRunDueRespectsInterval(t *testing.T) {
	s := schedule.New()
	var runs atomic.Int32
	s.Hourly().Name("checkout-keys:prune").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, s.RunDue(ctx, t0))
	assert.Equal(t, 0, s.RunDue(ctx, t0.Add(59*time.Minute)))
	assert.Equal(t, 1, s.RunDue(ctx, t0.Add(time.Hour)))
	s.Wait()

	assert.Equal(t, int32(2), runs.Load())
	assert.Equal(t, []string{"checkout-keys:prune  [1h0m0s]"}, s.List())
}

func TestWithoutOverlappingSkipsBusyEntry(t *testing.T) {
	s := schedule.New()
	release := make(chan struct{})
	s.Every(time.Second).WithoutOverlapping().Run(func(context.Context) error {
		<-release
		return nil
	})

	t0 := time.Now()
	assert.Equal(t, 1, s.RunDue(context.Background(), t0))
	assert.Equal(t, 0, s.RunDue(context.Background(), t0.Add(2*time.Second)))
	close(release)
	s.Wait()
}

func TestFailingAndPanickingTasksAreContained(t *testing.T) {
	s := schedule.New()
	s.Every(time.Minute).Run(func(context.Context) error { return errors.New("db down") })
	s.Every(time.Minute).Run(func(context.Context) error { panic("boom") })

	assert.Equal(t, 2, s.RunDue(context.Background(), time.Now()))
	s.Wait()
	assert.Len(t, s.List(), 2)
}
