package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"telegram-markov-bot/internal/config"
	"telegram-markov-bot/internal/infra/api"
)

func newTokenCmd(opts *options) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(opts.configPath, false)
			if err != nil {
				return err
			}
			if cfg.Admin.JWTSecret == "" {
				return errors.New("admin.jwt_secret is not set")
			}
			tok, err := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL).Mint(subject)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format, map[string]string{"token": tok}, tok)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	return cmd
}
