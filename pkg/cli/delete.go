package cli

import (
	"context"
	"fmt"

	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func deleteCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a conversation",
		ArgsUsage: "<conversation-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.configureLogging(c.Root().ErrWriter))

			id := model.ConversationID(c.Args().First())
			if id == "" {
				return goerr.New("conversation ID is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			deleted, err := repo.Delete(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to delete conversation", goerr.V("conversation_id", id))
			}
			if !deleted {
				return goerr.New("conversation not found", goerr.V("conversation_id", id))
			}

			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", id)
			return nil
		},
	}
}
