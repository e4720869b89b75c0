package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/spf13/cobra"
)

const (
	exitDecodeError = 1
	exitServerError = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := rootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "zjsonctl: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zjsonctl",
		Short: "Decode ZJSON query result streams",
		Long: `zjsonctl decodes newline-delimited ZJSON query results into typed values.

Captures may be plain or compressed with gzip, zstd, or lz4. The protocol
revision (id, named, legacy) is chosen per stream.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		decodeCmd(),
		typesCmd(),
		configCmd(),
	)
	return root
}

// exitCode maps server-reported stream errors to 2 and every other failure
// to 1.
func exitCode(err error) int {
	var perr *protocol.Error
	if errors.As(err, &perr) && perr.Kind == protocol.KindServerReported {
		return exitServerError
	}
	return exitDecodeError
}
