package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/usecase"
)

func newGenCmd(opts *options) *cobra.Command {
	var attempts int
	cmd := &cobra.Command{
		Use:   "gen [any|small|medium|large]",
		Short: "Generate a fragment from a chat corpus without posting it",
		Long: "Generate runs the same Markov walk as the bot but prints the raw result:\n" +
			"no filler on failure, no case styling. The chat's minimum sample count applies.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			s, err := e.settings.Get(ctx, opts.chatID)
			if err != nil {
				return err
			}
			size := s.DefaultGenSize
			if len(args) == 1 {
				size = model.ParseGenSize(args[0])
			}
			if info, err := e.corpus.Info(ctx, opts.chatID); err == nil && info.Samples < s.MinSamples {
				return &usecase.NotEnoughSamplesError{Have: info.Samples, Need: s.MinSamples}
			}

			res, err := e.generate.Sample(ctx, opts.chatID, size, attempts)
			if err != nil {
				return fmt.Errorf("gen: %w", err)
			}
			text := res.Text
			if !res.OK {
				text = fmt.Sprintf("(nothing new after %d attempts)", res.Attempts)
			}
			return render(cmd.OutOrStdout(), opts.format, map[string]any{
				"text":     res.Text,
				"ok":       res.OK,
				"attempts": res.Attempts,
				"size":     size.String(),
			}, text)
		},
	}
	cmd.Flags().IntVar(&attempts, "attempts", 0, "walk budget (default: generation.command_attempts)")
	return cmd
}
