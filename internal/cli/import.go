package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Seed a chat corpus from a text file, one message per line",
		Long: "Import reads messages from file (or stdin) and stores those the chat settings\n" +
			"accept, exactly as if they had been posted in the chat. No replies are generated.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			if err := e.corpus.Ensure(ctx, opts.chatID); err != nil {
				return err
			}
			s, err := e.settings.Get(ctx, opts.chatID)
			if err != nil {
				return err
			}

			var stored, skipped int
			sc := bufio.NewScanner(in)
			sc.Buffer(make([]byte, 64*1024), 1024*1024)
			for sc.Scan() {
				ok, err := e.corpus.Ingest(ctx, opts.chatID, sc.Text(), s)
				if err != nil {
					return fmt.Errorf("import after %d lines: %w", stored+skipped, err)
				}
				if ok {
					stored++
				} else {
					skipped++
				}
			}
			if err := sc.Err(); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format,
				map[string]int{"stored": stored, "skipped": skipped},
				fmt.Sprintf("stored: %d\nskipped: %d", stored, skipped))
		},
	}
}
