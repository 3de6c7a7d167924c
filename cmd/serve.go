package cmd

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/gmporto/carteira/internal/scheduler"
	"github.com/gmporto/carteira/internal/server"
	"github.com/gmporto/carteira/pkg/logger"
)

type serveCmd struct {
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API and background refreshes" }
func (*serveCmd) Usage() string {
	return `carteira serve [-port <n>]

  Serves the portfolio over HTTP (REST plus a websocket change stream)
  and keeps quotes, headlines, and dividend announcements fresh on the
  configured schedules. Runs until interrupted.

`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Listen port (overrides PORT).")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	port := a.cfg.Port
	if c.port != 0 {
		port = c.port
	}
	log := logger.GetLogger()

	srv := server.New(server.Config{
		Port:    port,
		Log:     log,
		Session: a.session,
		Store:   a.store,
		DevMode: a.cfg.DevMode,
	})
	a.session.SetOnChange(srv.Broadcast)

	sched := scheduler.New(log)
	if err := sched.AddJob(a.cfg.RefreshSchedule, &scheduler.RefreshJob{Session: a.session}); err != nil {
		return fail(err)
	}
	if err := sched.AddJob(a.cfg.DividendSchedule, &scheduler.DividendSyncJob{Session: a.session, Store: a.store}); err != nil {
		return fail(err)
	}
	sched.Start()
	defer sched.Stop()

	// Warm the datasets before the first scheduled tick.
	go func() {
		a.session.Refresh(ctx)
		a.session.SettleDividends()
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	log.Info().Int("port", port).Msg("server started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fail(err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
