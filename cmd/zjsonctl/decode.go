package main

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/danmuck/zjsonctl/internal/config"
	"github.com/danmuck/zjsonctl/internal/observability"
	"github.com/danmuck/zjsonctl/internal/protocol/stream"
	"github.com/danmuck/zjsonctl/internal/source"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func decodeCmd() *cobra.Command {
	var opts streamOptions

	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode a stream and print one JSON line per value",
		Long: `Decode a ZJSON stream from a file or stdin and print each value as one
JSON line. Records become objects in field order, arrays and sets become
arrays, maps become arrays of [key, value] pairs.

Exit status is 1 on decode errors and 2 when the stream reports a server
error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return runDecode(cmd.Context(), cmd.OutOrStdout(), inputPath(args), cfg)
		},
	}
	opts.bind(cmd.Flags(), true)
	return cmd
}

func runDecode(ctx context.Context, out io.Writer, path string, cfg config.Config) (err error) {
	src, err := source.Open(path, cfg.SourceCompression())
	if err != nil {
		return err
	}

	scfg := cfg.Stream()
	if cfg.Metrics.Addr != "" {
		observability.RegisterMetrics()
		scfg.Observer = observability.NewDecoderMetrics(cfg.Metrics.Node)
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		router := observability.NewRouter(cfg.Metrics.Node, cfg.Metrics.CorsOrigins)
		go func() {
			if err := observability.Serve(serveCtx, cfg.Metrics.Addr, router); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics listener failed")
			}
		}()
	}

	start := time.Now()
	defer func() {
		observability.RecordStream(cfg.Metrics.Node, scfg.Revision, time.Since(start), err == nil)
	}()

	dec := stream.New(src, scfg)
	w := bufio.NewWriter(out)
	defer func() {
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
	}()

	var buf []byte
	count := 0
	for v, derr := range dec.All(ctx) {
		if derr != nil {
			return derr
		}
		buf, err = appendJSON(buf[:0], v)
		if err != nil {
			return err
		}
		buf = append(buf, '\n')
		if _, err = w.Write(buf); err != nil {
			return err
		}
		count++
	}
	log.Debug().Int("values", count).Str("source", path).Msg("stream decoded")
	return nil
}
