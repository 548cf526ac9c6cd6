package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func showCommand() *cli.Command {
	var (
		cfg    config
		format string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format (text, json, yaml)",
			Value:       "text",
			Destination: &format,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a conversation",
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

			conv, err := repo.Load(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to load conversation", goerr.V("conversation_id", id))
			}
			if conv == nil {
				return goerr.New("conversation not found", goerr.V("conversation_id", id))
			}

			w := c.Root().Writer
			switch format {
			case "json":
				data, err := json.MarshalIndent(conv, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to marshal conversation")
				}
				fmt.Fprintf(w, "%s\n", string(data))

			case "yaml":
				data, err := yaml.Marshal(conv)
				if err != nil {
					return goerr.Wrap(err, "failed to marshal conversation")
				}
				fmt.Fprintf(w, "%s", string(data))

			case "text":
				fmt.Fprintf(w, "Conversation %s (created %s)\n\n", conv.ID, conv.CreatedAt.Local().Format(time.DateTime))
				for _, msg := range conv.Messages {
					fmt.Fprintf(w, "[%s] %s:\n%s\n\n", msg.Timestamp.Local().Format(time.DateTime), msg.Role, msg.Content)
				}

			default:
				return goerr.New("unknown format", goerr.V("format", format))
			}
			return nil
		},
	}
}
