package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/aussiebroadwan/habits/internal/habits/app"
)

var CLI struct {
	Serve       ServeCmd       `cmd:"" help:"Run the HTTP API, notification dispatcher and Telegram bot." default:"1"`
	Migrate     MigrateCmd     `cmd:"" help:"Apply database migrations and exit."`
	Promote     PromoteCmd     `cmd:"" help:"Grant admin rights to an existing user."`
	CreateAdmin CreateAdminCmd `cmd:"" name:"create-admin" help:"Create a new administrator account."`
	Version     VersionCmd     `cmd:"" help:"Print the version."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habits"),
		kong.Description("Habit tracker with scheduled Telegram notifications. Configured through the environment or a .env file."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(app.LoadConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
