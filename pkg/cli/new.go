package cli

import (
	"context"
	"fmt"

	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Create an empty conversation and print its ID",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.configureLogging(c.Root().ErrWriter))

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			id, err := repo.Create(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to create conversation")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", id)
			return nil
		},
	}
}
