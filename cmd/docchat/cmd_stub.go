package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docchat/internal/stub"
)

var (
	stubAddr    string
	stubLatency time.Duration
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run the development stub backend",
	Long: `Runs an in-process stand-in for the document-chat backend so the
client can be exercised without the real service. --latency injects a delay
before every response, which is handy for provoking client timeouts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := stub.NewServer(stub.Config{Logger: logger, Latency: stubLatency})

		logger.Info("stub backend listening",
			zap.String("addr", stubAddr),
			zap.Duration("latency", stubLatency))
		fmt.Printf("Stub backend listening on %s\n", stubAddr)

		return http.ListenAndServe(stubAddr, srv.Router())
	},
}

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", ":8000", "Listen address")
	stubCmd.Flags().DurationVar(&stubLatency, "latency", 0, "Injected response delay")
}
