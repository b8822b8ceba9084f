// @title Event Planner API
// @version 1.0
// @description Events with invitees, invitation emails and weather at the event location.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	_ "eventplanner/docs"
)

func main() {
	app := &cli.App{
		Name:  "eventplanner",
		Usage: "Event planning API with invitations and weather.",
		Commands: []*cli.Command{
			serveCommand(),
			notifyWorkerCommand(),
			migrateCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func exitf(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), 1)
}
