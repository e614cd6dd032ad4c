// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/subosito/gotenv"

	"github.com/taskbridge/taskbridge/lib/config"
	"github.com/taskbridge/taskbridge/lib/dedup"
	"github.com/taskbridge/taskbridge/lib/extract"
	"github.com/taskbridge/taskbridge/lib/freedcamp"
	"github.com/taskbridge/taskbridge/lib/llm"
	"github.com/taskbridge/taskbridge/lib/pipeline"
	"github.com/taskbridge/taskbridge/lib/sheet"
	"github.com/taskbridge/taskbridge/lib/slackbot"
	"github.com/taskbridge/taskbridge/lib/web"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskbridge:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to the YAML config file (default $TASKBRIDGE_CONFIG)")
	pflag.StringVar(&listen, "listen", "", "listen address, overrides the config file")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println("taskbridge", version)
		return nil
	}

	// A local .env is a development convenience; absence is not an
	// error.
	_ = gotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if configPath == "" {
		configPath = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	freedcampClient := freedcamp.NewClient(freedcamp.ClientConfig{
		APIKey:      cfg.Freedcamp.APIKey,
		APISecret:   cfg.Freedcamp.APISecret,
		ProjectID:   cfg.Freedcamp.ProjectID,
		TaskGroupID: cfg.Freedcamp.TaskGroupID,
		BaseURL:     cfg.Freedcamp.BaseURL,
		Logger:      logger,
	})

	// The directory snapshot is loaded once at startup. Staff churn is
	// rare relative to process restarts; a stale entry degrades to an
	// unassigned task, not a failure.
	directory, err := freedcamp.LoadDirectory(ctx, freedcampClient)
	if err != nil {
		return fmt.Errorf("loading freedcamp directory: %w", err)
	}

	extractor := extract.New(extract.Config{
		Provider: llm.NewOpenAI(
			&http.Client{Timeout: 30 * time.Second},
			cfg.Completion.BaseURL,
			cfg.Completion.APIKey,
		),
		Model:     cfg.Completion.Model,
		MaxTokens: cfg.Completion.MaxTokens,
		Logger:    logger,
	})

	var appender sheet.Appender
	if cfg.Sheet.Enabled() {
		appender = sheet.NewGoogleSheets(sheet.GoogleSheetsConfig{
			SpreadsheetID: cfg.Sheet.SpreadsheetID,
			ValueRange:    cfg.Sheet.Range,
			AccessToken:   cfg.Sheet.AccessToken,
		})
	} else {
		logger.Info("sheet audit trail disabled")
	}

	taskPipeline := pipeline.New(pipeline.Config{
		Extractor: extractor,
		Filer:     freedcampClient,
		Resolver:  directory,
		Sender:    slackbot.NewAPISender(cfg.Slack.BotToken, logger),
		Appender:  appender,
		Logger:    logger,
	})

	webhookHandler := slackbot.NewWebhookHandler(slackbot.WebhookHandlerConfig{
		SigningSecret: cfg.Slack.SigningSecret,
		Deduplicator:  dedup.New(dedup.DefaultCapacity, dedup.DefaultMinInterval),
		Logger:        logger,
		OnMessage: func(event slackbot.MessageEvent) {
			taskPipeline.HandleMessage(ctx, event)
		},
	})

	server := web.NewServer(web.ServerConfig{
		Address: cfg.Listen,
		Handler: webhookHandler,
		Logger:  logger,
	})

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	select {
	case <-server.Ready():
		logger.Info("taskbridge running",
			"version", version,
			"address", server.Addr().String(),
		)
	case err := <-serveDone:
		// Bind failure: the listener never became ready.
		return err
	case <-ctx.Done():
		return <-serveDone
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return <-serveDone
}
