package scheduler

import (
	"context"
	"time"

	"github.com/gmporto/carteira"
)

// jobTimeout bounds one background cycle end to end.
const jobTimeout = 5 * time.Minute

// RefreshJob fetches fresh quotes and headlines for the session.
type RefreshJob struct {
	Session *carteira.Session
}

func (j *RefreshJob) Name() string { return "refresh" }

func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	j.Session.Refresh(ctx)
	return nil
}

// DividendSyncJob scrapes dividend announcements, reconciles them, and
// persists anything new.
type DividendSyncJob struct {
	Session *carteira.Session
	Store   *carteira.Store
}

func (j *DividendSyncJob) Name() string { return "dividend-sync" }

func (j *DividendSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := j.Session.SyncDividends(ctx); err != nil {
		return err
	}
	if j.Store == nil {
		return nil
	}
	// Settlement may have flipped Processed flags even without fresh
	// announcements, so always persist the book.
	return j.Store.SaveAnnouncements(j.Session.AllAnnouncements())
}
