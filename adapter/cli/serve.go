package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/jobtrack/adapter/api"
	"github.com/felixgeelhaar/jobtrack/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Start the HTTP API on HTTP_ADDR.

When the identity provider keys are missing or malformed the server still
starts, but every page answers with a configuration error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		container, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Close()

		srv := api.NewServer(serverConfig(container), serverDependencies(container), container.Logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), container.Config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func serverConfig(c *app.Container) api.ServerConfig {
	sc := api.DefaultServerConfig()
	sc.Addr = c.Config.HTTPAddr
	sc.AllowedOrigins = c.Config.CORSAllowedOrigins
	sc.SignInURL = c.Config.SignInURL
	sc.ConfigProblems = c.ConfigProblems
	sc.CheckoutRate = c.Config.CheckoutRateLimit
	sc.CheckoutBurst = c.Config.CheckoutRateBurst
	sc.PaystackSecret = c.Config.PaystackSecretKey
	return sc
}

func serverDependencies(c *app.Container) api.Dependencies {
	deps := api.Dependencies{
		Jobs: api.NewJobService(api.JobHandlers{
			List:         c.ListJobsHandler,
			Get:          c.GetJobHandler,
			Stats:        c.GetJobStatsHandler,
			Create:       c.CreateJobHandler,
			Update:       c.UpdateJobHandler,
			UpdateStatus: c.UpdateJobStatusHandler,
			Delete:       c.DeleteJobHandler,
		}),
		Subscriptions:  c.BillingService,
		Profiles:       c.SyncService,
		Health:         c.Health,
		Metrics:        c.Metrics,
		MetricsHandler: c.MetricsHandler,
	}
	if c.Verifier != nil {
		deps.Auth = c.Verifier
	}
	return deps
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
