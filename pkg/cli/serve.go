package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aide-dev/aide/pkg/server"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg          config
		addr         string
		secretKey    string
		secureCookie bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address",
			Value:       "127.0.0.1:5000",
			Sources:     cli.EnvVars("AIDE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "secret-key",
			Usage:       "Key for signing session cookies",
			Value:       server.DefaultSecretKey,
			Sources:     cli.EnvVars("AIDE_SECRET_KEY"),
			Destination: &secretKey,
		},
		&cli.BoolFlag{
			Name:        "secure-cookie",
			Usage:       "Send the session cookie over HTTPS only",
			Sources:     cli.EnvVars("AIDE_SECURE_COOKIE"),
			Destination: &secureCookie,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server with the web UI",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := cfg.configureLogging(c.Root().Writer)
			ctx = logging.With(ctx, logger)

			uc, repo, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}

			if secretKey == server.DefaultSecretKey {
				logger.Warn("using the development secret key; set AIDE_SECRET_KEY in production")
			}

			srv := server.New(uc, repo,
				server.WithSecretKey(secretKey),
				server.WithSecureCookie(secureCookie),
			)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx, addr)
		},
	}
}
