package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase a chat's corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.corpus.Clear(cmd.Context(), opts.chatID); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			return render(cmd.OutOrStdout(), opts.format, map[string]any{"cleared": opts.chatID},
				fmt.Sprintf("chat %d cleared", opts.chatID))
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
