package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"eventplanner/config"
	"eventplanner/internal/adapters/auth"
	"eventplanner/internal/repository/postgres"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg)
			db, err := postgres.Open(c.Context, cfg.DBDriver, cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(c.Context, db); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

// tokenCommand issues a signed token for a user id. Sign-in is handled elsewhere;
// this is for local use and operators.
func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a bearer token for a user id.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "Subject (user id) of the token."},
			&cli.StringFlag{Name: "email", Usage: "Email claim."},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "Token lifetime."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return exitf("JWT_SECRET must be set to issue tokens")
			}
			token, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer).Issue(c.String("user"), c.String("email"), nil, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
