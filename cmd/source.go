package cmd

import (
	"io"
	"os"

	"github.com/foomo/keel/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func NewSourceCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Source cockpit once and store the node snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			l := log.Logger()
			ctx := cmd.Context()

			deps, err := newSource(ctx, v, l, dumpFlag(v))
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, deps.Close())
			}()

			resp := deps.source.Sync(ctx)
			if !resp.Success {
				return errors.Errorf("failed to source cockpit: %s", resp.ErrorMessage)
			}
			l.Info("sourced cockpit",
				zap.Int("nodes", resp.Stats.NumberOfNodes),
				zap.Int("assets", resp.Stats.NumberOfAssets),
				zap.Int("issues", resp.Stats.NumberOfIssues),
				zap.Float64("source_runtime", resp.Stats.SourceRuntime),
				zap.Float64("own_runtime", resp.Stats.OwnRuntime),
			)

			out := outFlag(v)
			if out == "" {
				return nil
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "failed to create snapshot file")
				}
				defer f.Close()
				w = f
			}
			return deps.source.WriteSnapshotBytes(ctx, w)
		},
	}

	flags := cmd.Flags()
	addConfigFlags(flags, v)
	addStorageFlags(flags, v)
	addRequestTimeoutFlag(flags, v)
	addDumpFlag(flags, v)
	addOutFlag(flags, v)

	return cmd
}
