package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nolger/chatbot/internal/config"
	"github.com/Nolger/chatbot/internal/db"
	"github.com/Nolger/chatbot/internal/dialogue"
	"github.com/Nolger/chatbot/internal/server"
	"github.com/Nolger/chatbot/internal/session"
	"github.com/Nolger/chatbot/internal/whatsapp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook bridge",
		Long:  "Connects to Postgres, migrates the schema, and serves the WhatsApp webhook and agent API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "chatbot.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s at %s:%d\n", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)

	sessions := session.NewMemoryStore()

	engine, err := dialogue.New(dialogue.Opts{DB: gormDB, Sessions: sessions})
	if err != nil {
		return err
	}

	sender, err := whatsapp.NewClient(whatsapp.ClientOpts{
		AccessToken:   cfg.WhatsApp.AccessToken,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		APIVersion:    cfg.WhatsApp.APIVersion,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Opts{
		DB:          gormDB,
		Engine:      engine,
		Sender:      sender,
		VerifyToken: cfg.WhatsApp.VerifyToken,
	})
	if err != nil {
		return err
	}

	// Abandoned order flows expire on a schedule so the map doesn't grow
	// unbounded.
	maxIdle := time.Duration(cfg.Sessions.MaxIdleMinutes) * time.Minute
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Sessions.SweepSchedule, func() {
		if removed := sessions.Sweep(maxIdle); removed > 0 {
			log.Printf("sessions: swept %d idle flows", removed)
		}
	}); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return srv.Run(ctx, cfg.Server.Port, out)
}
