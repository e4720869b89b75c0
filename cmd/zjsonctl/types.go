package main

import (
	"context"
	"fmt"
	"io"

	"github.com/danmuck/zjsonctl/internal/config"
	"github.com/danmuck/zjsonctl/internal/protocol/stream"
	"github.com/danmuck/zjsonctl/internal/source"
	"github.com/spf13/cobra"
)

func typesCmd() *cobra.Command {
	var opts streamOptions

	cmd := &cobra.Command{
		Use:   "types [file|-]",
		Short: "Print the type bindings a stream defines",
		Long: `Decode a ZJSON stream and print every type binding in the final registry
as "ident<TAB>signature". Bindings made before a decode error are still
printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return runTypes(cmd.Context(), cmd.OutOrStdout(), inputPath(args), cfg)
		},
	}
	opts.bind(cmd.Flags(), false)
	return cmd
}

func runTypes(ctx context.Context, out io.Writer, path string, cfg config.Config) error {
	src, err := source.Open(path, cfg.SourceCompression())
	if err != nil {
		return err
	}
	dec := stream.New(src, cfg.Stream())
	var decodeErr error
	for _, err := range dec.All(ctx) {
		if err != nil {
			decodeErr = err
		}
	}
	for _, b := range dec.Registry().Bindings() {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", b.ID, b.Type); err != nil {
			return err
		}
	}
	return decodeErr
}
