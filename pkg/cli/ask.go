package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/usecase/assistant"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg            config
		conversationID model.ConversationID
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "conversation-id",
			Aliases:     []string{"c"},
			Usage:       "Conversation to continue (a new one is started if omitted)",
			Sources:     cli.EnvVars("AIDE_CONVERSATION_ID"),
			Destination: (*string)(&conversationID),
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the assistant a single question",
		ArgsUsage: "<prompt>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.configureLogging(c.Root().ErrWriter))

			uc, _, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			out, err := ask(ctx, uc, c.Root().ErrWriter, assistant.AskInput{
				Prompt:         strings.Join(c.Args().Slice(), " "),
				ConversationID: conversationID,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", out.Response)
			if out.Created {
				fmt.Fprintf(c.Root().ErrWriter, "conversation: %s\n", out.ConversationID)
			}
			return nil
		},
	}
}

// ask runs one question with a spinner on w while the model answers
func ask(ctx context.Context, uc *assistant.UseCase, w io.Writer, input assistant.AskInput) (*assistant.AskOutput, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " thinking..."
	s.Start()
	defer s.Stop()

	return uc.Ask(ctx, input)
}
