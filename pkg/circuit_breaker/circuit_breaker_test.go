package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()

	successfulService := func() error { return nil }
	errService := errors.New("service error")
	failingService := func() error { return errService }

	cfg := Config{
		RecordLength:     10,
		Timeout:          2 * time.Second,
		Percentile:       0.3,
		RecoveryRequests: 3,
	}

	tests := []struct {
		name string
		run  func(t *testing.T, cb *circuitBreaker, clock *fakeClock)
	}{
		{
			name: "stays closed on success",
			run: func(t *testing.T, cb *circuitBreaker, _ *fakeClock) {
				for i := 0; i < 80; i++ {
					require.NoError(t, cb.Call(successfulService))
				}
				require.Equal(t, Closed, cb.State())
			},
		},
		{
			name: "opens after failures exceed percentile",
			run: func(t *testing.T, cb *circuitBreaker, _ *fakeClock) {
				for i := 0; i < 3; i++ {
					require.ErrorIs(t, cb.Call(failingService), errService)
				}
				require.Equal(t, Open, cb.State())
				require.ErrorIs(t, cb.Call(successfulService), ErrOpenCB)
			},
		},
		{
			name: "half-open recovers to closed",
			run: func(t *testing.T, cb *circuitBreaker, clock *fakeClock) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(failingService)
				}
				clock.t = clock.t.Add(3 * time.Second)
				for i := 0; i < cfg.RecoveryRequests; i++ {
					require.NoError(t, cb.Call(successfulService))
				}
				require.Equal(t, Closed, cb.State())
			},
		},
		{
			name: "half-open failure reopens",
			run: func(t *testing.T, cb *circuitBreaker, clock *fakeClock) {
				for i := 0; i < 3; i++ {
					_ = cb.Call(failingService)
				}
				clock.t = clock.t.Add(3 * time.Second)
				require.NoError(t, cb.Call(successfulService))
				require.Equal(t, HalfOpen, cb.State())
				require.ErrorIs(t, cb.Call(failingService), errService)
				require.Equal(t, Open, cb.State())
				require.ErrorIs(t, cb.Call(successfulService), ErrOpenCB)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			cb := newWithClock(cfg, clock.now)
			tt.run(t, cb, clock)
		})
	}
}
