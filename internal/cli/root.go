// Package cli implements the corpusctl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"telegram-markov-bot/internal/config"
	"telegram-markov-bot/internal/domain/ports/repository"
	"telegram-markov-bot/internal/infra/keylock"
	red "telegram-markov-bot/internal/infra/redis"
	"telegram-markov-bot/internal/infra/storage/filestore"
	"telegram-markov-bot/internal/usecase"
)

type options struct {
	configPath string
	format     string
	chatID     int64
	verbose    bool
}

// env is what a command needs to work on the bot's data directory.
type env struct {
	cfg      *config.Config
	corpus   usecase.CorpusUseCase
	settings usecase.SettingsUseCase
	generate usecase.GenerateUseCase
	close    func()
}

// NewRootCmd builds the corpusctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "corpusctl",
		Short:         "Inspect and maintain the Markov bot's per-chat corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to YAML config file")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "text", "Output format: json or text")
	root.PersistentFlags().Int64Var(&opts.chatID, "chat", 0, "Telegram chat id")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newInfoCmd(opts),
		newGenCmd(opts),
		newClearCmd(opts),
		newImportCmd(opts),
		newSettingsCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// openEnv opens the stores the bot uses. When the bot runs with a redis settings
// cache, writes go through the same decorator so the cache is invalidated.
func openEnv(cmd *cobra.Command, opts *options) (*env, error) {
	if opts.chatID == 0 {
		return nil, fmt.Errorf("--chat is required")
	}
	cfg, err := config.LoadConfig(opts.configPath, false)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if opts.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}
	log := &logger

	samples, err := filestore.NewSampleStore(cfg.Storage.DialogsDir, log)
	if err != nil {
		return nil, err
	}
	settingsStore, err := filestore.NewSettingsStore(cfg.Storage.SettingsDir, log)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, close: func() {}}
	var settingsRepo repository.SettingsRepository = settingsStore
	if cfg.Redis.URL != "" {
		client, err := red.NewClient(cmd.Context(), &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		settingsRepo = red.NewSettingsCacheDecorator(settingsStore, client, cfg.Redis.TTL, log)
		e.close = func() { _ = client.Close() }
	}

	e.corpus = usecase.NewCorpusUseCase(samples, log)
	e.settings = usecase.NewSettingsUseCase(settingsRepo, keylock.New(), log)
	e.generate = usecase.NewGenerateUseCase(samples, e.settings, nil, usecase.GenerateConfig{
		CommandAttempts:   cfg.Generation.CommandAttempts,
		AutoReplyAttempts: cfg.Generation.AutoReplyAttempts,
		Filler:            cfg.Generation.Filler,
		CapsChance:        cfg.Generation.CapsChance,
	}, log)
	return e, nil
}

// render prints v as indented JSON, or text otherwise.
func render(w io.Writer, format string, v any, text string) error {
	if format == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
