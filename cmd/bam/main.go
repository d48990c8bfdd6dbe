// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main is the BetterAutoModerator daemon. It authenticates against
// Reddit with the script-app credentials from the environment, then hands
// control to the supervisor loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/josephwegner/better-auto-moderator/internal/buildinfo"
	"github.com/josephwegner/better-auto-moderator/internal/config"
	"github.com/josephwegner/better-auto-moderator/internal/logging"
	"github.com/josephwegner/better-auto-moderator/internal/reddit"
	"github.com/josephwegner/better-auto-moderator/internal/status"
	"github.com/josephwegner/better-auto-moderator/internal/supervisor"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	var (
		envFile    = flag.String("env-file", ".env", "dotenv file with REDDIT_* credentials")
		rulesFile  = flag.String("rules-file", "", "load rules from a local YAML file instead of the wiki")
		statusAddr = flag.String("status-addr", "", "listen address for the status endpoint (empty disables it)")
		logFile    = flag.String("log-file", "", "write logs to this rotating file instead of stdout")
		debug      = flag.Bool("debug", false, "enable debug logging")
		version    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("better-auto-moderator %s (%s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	logging.ConfigureLogOutput(*logFile)
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Loading %s: %v", *envFile, err)
	}

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userAgent := fmt.Sprintf("golang:better-auto-moderator:%s (by /u/%s)", buildinfo.Version, creds.Username)
	client, err := reddit.NewClient(ctx, creds, userAgent)
	if err != nil {
		log.Fatalf("Reddit authentication failed: %v", err)
	}

	statusSrv := status.NewServer()
	if *statusAddr != "" {
		go func() {
			if err := statusSrv.ListenAndServe(*statusAddr); err != nil {
				log.Errorf("Status endpoint: %v", err)
			}
		}()
	}

	sup := supervisor.New(client, statusSrv)
	sup.RulesFile = *rulesFile

	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Supervisor stopped: %v", err)
	}
	log.Info("Shutting down")
}
