package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bcnelson/cidr-group-central/internal/app"
	"github.com/bcnelson/cidr-group-central/internal/cli"
	"github.com/bcnelson/cidr-group-central/internal/config"
	"github.com/bcnelson/cidr-group-central/internal/registry"
)

func main() {
	open := func(ctx context.Context) (*registry.Registry, func() error, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		reg, store, err := app.NewRegistry(cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		return reg, store.Close, nil
	}

	if err := cli.NewRootCommand(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
