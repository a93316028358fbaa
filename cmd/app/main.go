// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/tokenfield/cmd/app/commands"
	"github.com/allisson/tokenfield/internal/app"
	"github.com/allisson/tokenfield/internal/config"
	"github.com/allisson/tokenfield/internal/encryption"
)

const version = "1.0.0"

// withClient loads configuration, builds the DI container, and hands the
// encryption client to the command body. The container is shut down when the
// command returns.
func withClient(fn func(ctx context.Context, client encryption.Client, logger *slog.Logger) error) func(context.Context, *cli.Command) error {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := config.Load()
		container := app.NewContainer(cfg)
		logger := container.Logger()
		defer func() {
			if err := container.Shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown container", slog.Any("error", err))
			}
		}()

		client, err := container.EncryptionClient()
		if err != nil {
			return fmt.Errorf("failed to initialize encryption client: %w", err)
		}

		return fn(ctx, client, logger)
	}
}

func main() {
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}

	cmd := &cli.Command{
		Name:    "tokenfield",
		Usage:   "PII field tokenization toolkit and stub encryption service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the stub encryption HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "encrypt",
				Usage: "Tokenize a plaintext value through the encryption service",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "value",
						Aliases:  []string{"v"},
						Required: true,
						Usage:    "Plaintext value to tokenize",
					},
					&cli.StringFlag{
						Name:     "entity-type",
						Required: true,
						Usage:    "Owning record type (e.g., customer)",
					},
					&cli.StringFlag{
						Name:     "entity-id",
						Required: true,
						Usage:    "Owning record identifier",
					},
					&cli.StringFlag{
						Name:     "category",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "PII category (e.g., EMAIL, NAME, PHONE)",
					},
					&cli.StringFlag{
						Name:     "field-name",
						Required: true,
						Usage:    "Field name on the owning record",
					},
					formatFlag,
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withClient(func(ctx context.Context, client encryption.Client, logger *slog.Logger) error {
						return commands.RunEncrypt(
							ctx,
							client,
							logger,
							os.Stdout,
							cmd.String("value"),
							cmd.String("entity-type"),
							cmd.String("entity-id"),
							cmd.String("category"),
							cmd.String("field-name"),
							cmd.String("format"),
						)
					})(ctx, cmd)
				},
			},
			{
				Name:  "decrypt",
				Usage: "Resolve tokens back to plaintext values",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "token",
						Aliases:  []string{"t"},
						Required: true,
						Usage:    "Token to resolve (repeatable)",
					},
					formatFlag,
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withClient(func(ctx context.Context, client encryption.Client, logger *slog.Logger) error {
						return commands.RunDecrypt(
							ctx,
							client,
							logger,
							os.Stdout,
							cmd.StringSlice("token"),
							cmd.String("format"),
						)
					})(ctx, cmd)
				},
			},
			{
				Name:  "search-tokens",
				Usage: "List every token minted for a plaintext value",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "value",
						Aliases:  []string{"v"},
						Required: true,
						Usage:    "Plaintext value to search for",
					},
					formatFlag,
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withClient(func(ctx context.Context, client encryption.Client, logger *slog.Logger) error {
						return commands.RunSearchTokens(
							ctx,
							client,
							logger,
							os.Stdout,
							cmd.String("value"),
							cmd.String("format"),
						)
					})(ctx, cmd)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
