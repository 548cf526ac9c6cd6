package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/usecase/assistant"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
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
		Name:  "chat",
		Usage: "Interactive conversation with the assistant",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.configureLogging(c.Root().ErrWriter))

			uc, _, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          c.Root().Writer,
				Stderr:          c.Root().ErrWriter,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start readline")
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Chat session started. Type '/new' for a new conversation, 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				switch message {
				case "":
					continue
				case "exit", "quit":
					fmt.Fprintf(w, "\nChat session completed\n")
					return nil
				case "/new":
					conversationID = ""
					fmt.Fprintf(w, "Starting a new conversation\n")
					continue
				}

				out, err := ask(ctx, uc, c.Root().ErrWriter, assistant.AskInput{
					Prompt:         message,
					ConversationID: conversationID,
				})
				if err != nil {
					if msg, ok := userMessage(err); ok {
						fmt.Fprintf(w, "%s\n", msg)
						continue
					}
					return err
				}

				if out.Created {
					fmt.Fprintf(w, "(conversation %s)\n", out.ConversationID)
				}
				conversationID = out.ConversationID
				fmt.Fprintf(w, "%s\n\n", out.Response)
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return nil
		},
	}
}

// userMessage returns the message of errors meant for the user
func userMessage(err error) (string, bool) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message, true
	}
	var assistantErr *model.AssistantError
	if errors.As(err, &assistantErr) {
		return assistantErr.Message, true
	}
	return "", false
}
