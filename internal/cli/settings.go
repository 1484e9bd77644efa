package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"telegram-markov-bot/internal/domain/model"
)

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change a chat's settings",
	}
	cmd.AddCommand(newSettingsShowCmd(opts), newSettingsSetCmd(opts))
	return cmd
}

func newSettingsShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the chat settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.close()

			s, err := e.settings.Get(cmd.Context(), opts.chatID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format, s, settingsText(s))
		},
	}
}

func newSettingsSetCmd(opts *options) *cobra.Command {
	var (
		chance, maxLen, minSamples int
		size                       string
		autoReply                  bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change chat settings; only the given flags are touched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			flags := cmd.Flags()
			steps := []struct {
				flag  string
				apply func(context.Context) (model.ChatSettings, error)
			}{
				{"chance", func(ctx context.Context) (model.ChatSettings, error) {
					return e.settings.SetChance(ctx, opts.chatID, chance)
				}},
				{"maxlen", func(ctx context.Context) (model.ChatSettings, error) {
					return e.settings.SetMaxLen(ctx, opts.chatID, maxLen)
				}},
				{"minsamples", func(ctx context.Context) (model.ChatSettings, error) {
					return e.settings.SetMinSamples(ctx, opts.chatID, minSamples)
				}},
				{"size", func(ctx context.Context) (model.ChatSettings, error) {
					return e.settings.SetDefaultSize(ctx, opts.chatID, model.ParseGenSize(size))
				}},
				{"autoreply", func(ctx context.Context) (model.ChatSettings, error) {
					return e.settings.Update(ctx, opts.chatID, func(s *model.ChatSettings) error {
						s.AutoReplyEnabled = autoReply
						return nil
					})
				}},
			}

			var (
				s       model.ChatSettings
				changed bool
			)
			for _, st := range steps {
				if !flags.Changed(st.flag) {
					continue
				}
				if s, err = st.apply(ctx); err != nil {
					return fmt.Errorf("--%s: %w", st.flag, err)
				}
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to set")
			}
			return render(cmd.OutOrStdout(), opts.format, s, settingsText(s))
		},
	}
	f := cmd.Flags()
	f.IntVar(&chance, "chance", 0, "auto-reply chance N (reply once in N messages), 1..20")
	f.IntVar(&maxLen, "maxlen", 0, "longest stored message in characters, 10..400")
	f.IntVar(&minSamples, "minsamples", 0, "samples required before generating, 2..200")
	f.StringVar(&size, "size", "", "default generation size: any|small|medium|large")
	f.BoolVar(&autoReply, "autoreply", true, "enable auto replies")
	return cmd
}

func settingsText(s model.ChatSettings) string {
	return fmt.Sprintf("autoreply: %t\nchance: 1 in %d\nmaxlen: %d\nminsamples: %d\nsize: %s",
		s.AutoReplyEnabled, s.AutoReplyChanceN, s.MaxStoreTextLen, s.MinSamples, s.DefaultGenSize)
}
