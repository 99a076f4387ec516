package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/habits/internal/habits/app"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/cryptox"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

type ServeCmd struct{}

func (c *ServeCmd) Run(cfg app.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(cfg app.Config) error {
	db, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	return db.Close()
}

type PromoteCmd struct {
	Username string `arg:"" help:"Account to promote."`
}

func (c *PromoteCmd) Run(cfg app.Config) error {
	db, logger, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := slogx.WithContext(context.Background(), logger)
	users := &service.UserService{Store: db}
	user, err := users.Promote(ctx, c.Username)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %q not found", c.Username)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s (id %d) is now an admin\n", user.Username, user.ID)
	return nil
}

type CreateAdminCmd struct {
	Username string `arg:"" help:"Username for the new account."`
	Password string `help:"Password; one is generated and printed when empty." env:"ADMIN_PASSWORD"`
}

func (c *CreateAdminCmd) Run(cfg app.Config) error {
	db, logger, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := slogx.WithContext(context.Background(), logger)
	users := &service.UserService{Store: db}
	user, password, err := users.CreateAdmin(ctx, c.Username, c.Password)
	if err != nil {
		return err
	}

	fmt.Printf("created admin %s (id %d)\n", user.Username, user.ID)
	if c.Password == "" {
		fmt.Printf("password: %s\n", password)
	}
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(app.BuildVersion)
	return nil
}

// openStore opens the persistent store for one-shot commands.
func openStore(cfg app.Config) (store.Store, *slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseDriver == app.DriverMemory {
		return nil, nil, errors.New("the memory driver has nothing to manage outside a running server")
	}

	logger := app.NewLogger(cfg)
	cryptox.SetPepperPath(cfg.PepperFile)

	db, err := app.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}
