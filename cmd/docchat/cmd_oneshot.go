package main

// One-shot subcommands: a single probe, upload, or document clear without
// the interactive UI.

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/api"
	"docchat/internal/health"
	"docchat/internal/upload"
)

// directGate satisfies the upload coordinator's connectivity surface for
// one-shot runs: there is no monitor, the single call itself is the
// connectivity check.
type directGate struct{}

func (directGate) Connected() bool { return true }
func (directGate) ProbeNow()       {}

func newAPIClient() *api.Client {
	return api.NewClientWithConfig(api.Config{
		BaseURL: cfg.Backend.BaseURL,
		Logger:  logger,
	})
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the backend once and print its status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetProbeTimeout())
		defer cancel()

		payload, err := client.Status(ctx)
		if err != nil {
			if api.IsTimeout(err) {
				return fmt.Errorf("server timed out after %s", cfg.GetProbeTimeout())
			}
			return fmt.Errorf("server not reachable: %s", api.Detail(err))
		}

		fmt.Printf("Backend:  %s\n", client.BaseURL())
		fmt.Println(snapshotSummary(*payload))
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload one PDF and print the acknowledgment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coordinator := upload.NewCoordinator(upload.Config{
			Uploader:      newAPIClient(),
			Connectivity:  directGate{},
			Logger:        logger,
			UploadTimeout: cfg.GetUploadTimeout(),
		})
		coordinator.SelectFile(args[0])

		ack := coordinator.Upload(cmd.Context())
		fmt.Println(ack.Text)
		if ack.Level != upload.AckSuccess {
			return fmt.Errorf("upload did not complete")
		}
		return nil
	},
}

var clearDocCmd = &cobra.Command{
	Use:   "clear-doc",
	Short: "Remove the loaded document from the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		coordinator := upload.NewCoordinator(upload.Config{
			Uploader:     newAPIClient(),
			Connectivity: directGate{},
			Logger:       logger,
			ClearTimeout: cfg.GetChatTimeout(),
		})

		ack := coordinator.ClearDocument(cmd.Context())
		fmt.Println(ack.Text)
		if ack.Level != upload.AckSuccess {
			return fmt.Errorf("clear did not complete")
		}
		return nil
	},
}

// snapshotSummary renders a status payload the same way the TUI does.
func snapshotSummary(p api.StatusPayload) string {
	s := health.Snapshot{
		GeneralReady:   p.GeneralReady(),
		DocumentReady:  p.DocumentReady(),
		DocumentLoaded: p.PDFLoaded,
		GeneralDetail:  p.GeneralChat,
		DocumentDetail: p.PDFChat,
	}
	return s.Summary()
}
