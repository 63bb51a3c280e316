package main

import (
	"fmt"

	"github.com/Nolger/chatbot/internal/config"
	"github.com/Nolger/chatbot/internal/db"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBPingCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the chatbot database",
		Long:  "Connects to Postgres and migrates the chat, message, order, and agent tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "chatbot.yaml", "path to config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}
	fmt.Fprintf(out, "Connected to %s at %s:%d\n", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "Chatbot database initialized successfully.")
	return nil
}

func newDBPingCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gormDB, err := db.Connect(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
			}
			if err := db.Ping(gormDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s:%d is reachable\n",
				cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "chatbot.yaml", "path to config file")
	return cmd
}
