package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of conversations to list (0 for all)",
			Value:       0,
			Sources:     cli.EnvVars("AIDE_LIST_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List conversations, most recently updated first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.configureLogging(c.Root().ErrWriter))

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			summaries, err := repo.List(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list conversations")
			}
			if limit > 0 && int(limit) < len(summaries) {
				summaries = summaries[:limit]
			}

			for _, s := range summaries {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%d messages\n",
					s.ID, s.UpdatedAt.Local().Format(time.DateTime), s.MessageCount)
			}
			return nil
		},
	}
}
