package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmporto/carteira"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a cron expression", &countingJob{})
	assert.Error(t, err)
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 10ms", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

type fakeDividends struct {
	rows []carteira.RawDividend
}

func (f *fakeDividends) Dividends(ctx context.Context, symbols []string) ([]carteira.RawDividend, error) {
	return f.rows, nil
}

func TestDividendSyncJobPersists(t *testing.T) {
	store, err := carteira.NewStore(t.TempDir())
	require.NoError(t, err)

	ledger := carteira.NewLedger()
	require.NoError(t, ledger.Append(
		carteira.NewBuy(carteira.MustParseDate("2024-01-10"), "PETR4", 100, 10)))

	provider := &fakeDividends{rows: []carteira.RawDividend{{
		Symbol:      "PETR4",
		Value:       decimal.RequireFromString("1.10"),
		PaymentDate: "2024-05-15",
		ExDate:      "2024-04-30",
		Type:        "dividendo",
	}}}
	session := carteira.NewSession(ledger, nil,
		carteira.WithDividendProvider(provider),
		carteira.WithClock(func() carteira.Date { return carteira.MustParseDate("2024-06-01") }),
		carteira.WithDebounce(0))

	job := &DividendSyncJob{Session: session, Store: store}
	require.NoError(t, job.Run())

	saved, err := store.LoadAnnouncements()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].Processed, "paid announcement should persist as processed")
}
