package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show sample count and corpus size of a chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.close()

			info, err := e.corpus.Info(cmd.Context(), opts.chatID)
			if err != nil {
				return fmt.Errorf("info: %w", err)
			}
			return render(cmd.OutOrStdout(), opts.format, info,
				fmt.Sprintf("samples: %d\nbytes: %d", info.Samples, info.Bytes))
		},
	}
}
