package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"docchat/internal/api"
)

// doctorCheck is one probe the doctor runs. Checks are independent and run
// in parallel; each resolves to a pass/fail line.
type doctorCheck struct {
	name string
	run  func(ctx context.Context, client *api.Client) error
}

var doctorChecks = []doctorCheck{
	{name: "root banner (GET /)", run: func(ctx context.Context, c *api.Client) error {
		_, err := c.Root(ctx)
		return err
	}},
	{name: "health (GET /health)", run: func(ctx context.Context, c *api.Client) error {
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		if h.Status != "healthy" {
			return fmt.Errorf("reported %q", h.Status)
		}
		return nil
	}},
	{name: "status (GET /status)", run: func(ctx context.Context, c *api.Client) error {
		s, err := c.Status(ctx)
		if err != nil {
			return err
		}
		if !s.GeneralReady() {
			return fmt.Errorf("general chat not ready: %s", s.GeneralChat)
		}
		return nil
	}},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run backend health checks in parallel",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetProbeTimeout())
		defer cancel()

		results := make([]error, len(doctorChecks))
		g, gctx := errgroup.WithContext(ctx)
		for i, check := range doctorChecks {
			g.Go(func() error {
				results[i] = check.run(gctx, client)
				// Failures are reported per line, not as a group error, so
				// every check always runs to completion.
				return nil
			})
		}
		_ = g.Wait()

		failed := 0
		for i, check := range doctorChecks {
			if results[i] != nil {
				failed++
				fmt.Printf("FAIL  %-22s %s\n", check.name, api.Detail(results[i]))
			} else {
				fmt.Printf("ok    %s\n", check.name)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d checks failed", failed, len(doctorChecks))
		}
		return nil
	},
}
