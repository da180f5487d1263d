package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/neekrasov/typedkv/internal/application"
	"github.com/neekrasov/typedkv/internal/config"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		address    string
	)

	root := &cobra.Command{
		Use:           "typedkv",
		Short:         "Typed in-memory key-value database server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(
				cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
			defer cancel()

			cfg, err := config.GetConfig(configPath)
			if err != nil {
				return err
			}

			if address == "" {
				address = os.Getenv("TYPEDKV_ADDRESS")
			}
			if address != "" {
				cfg.Network.Address = address
			}

			return application.New(&cfg).Start(ctx)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "config path (defaults apply when empty)")
	root.Flags().StringVar(&address, "address", "", "listen address override")

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
