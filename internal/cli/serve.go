package cli

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lovecontract/internal/metrics"
	"github.com/matzehuels/lovecontract/internal/server"
	"github.com/matzehuels/lovecontract/pkg/buildinfo"
	"github.com/matzehuels/lovecontract/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contract API and browser signing sessions",
		Long: `Serve the contract API and browser signing sessions.

Each browser gets a session (cookie lc_session) holding its view, envelope
and signing pad. Idle sessions are evicted after session.idle_ttl.
Prometheus metrics are served on /metrics unless server.metrics is false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.Config.Server.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg := c.Config

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var opts []server.Option
	opts = append(opts, server.WithLogger(c.Logger), server.WithKey(cfg.Store.Key))
	if cfg.Server.Metrics {
		m := metrics.New()
		m.Install()
		opts = append(opts, server.WithMetrics(m))
	}
	if cfg.Server.SecureCookies {
		opts = append(opts, server.WithSecureCookies())
	}

	sessions := session.NewRegistry(server.SessionFactory(st, c.sessionOptions()...), cfg.Session.IdleTTL, nil,
		session.WithMaxSessions(cfg.Session.MaxSessions))
	srv := server.New(st, sessions, opts...).HTTPServer(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "version", buildinfo.String())
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Run closes every session when it returns.
		return sessions.Run(gctx, cfg.Session.EvictInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		c.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}
