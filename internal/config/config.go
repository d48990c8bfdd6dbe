// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads process credentials from the environment and parses
// the top-level wiki configuration page. The rule engine itself reads
// neither; everything here feeds the supervisor.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/josephwegner/better-auto-moderator/internal/reddit"
)

// Environment variable names for the Reddit script app.
const (
	EnvClientID     = "REDDIT_CLIENT_ID"
	EnvClientSecret = "REDDIT_CLIENT_SECRET"
	EnvUsername     = "REDDIT_USERNAME"
	EnvPassword     = "REDDIT_PASSWORD"
	EnvSubreddit    = "REDDIT_SUBREDDIT"
)

// CredentialsFromEnv reads the Reddit credentials. Missing variables are a
// startup-fatal error listing everything that is absent.
func CredentialsFromEnv() (reddit.Credentials, error) {
	creds := reddit.Credentials{
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		Username:     os.Getenv(EnvUsername),
		Password:     os.Getenv(EnvPassword),
		Subreddit:    os.Getenv(EnvSubreddit),
	}

	var missing []string
	for name, value := range map[string]string{
		EnvClientID:     creds.ClientID,
		EnvClientSecret: creds.ClientSecret,
		EnvUsername:     creds.Username,
		EnvPassword:     creds.Password,
		EnvSubreddit:    creds.Subreddit,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return reddit.Credentials{}, fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}

	return creds, nil
}

// Top is the top-level configuration page (`better_auto_moderator` in the
// wiki).
type Top struct {
	// OverwriteAutomoderator pushes rules Reddit's own AutoModerator can run
	// to config/automoderator and leaves only the extension rules to this
	// engine.
	OverwriteAutomoderator bool `yaml:"overwrite_automoderator"`
}

// ParseTop decodes the top-level configuration page.
func ParseTop(content string) (Top, error) {
	var top Top
	if err := yaml.Unmarshal([]byte(content), &top); err != nil {
		return Top{}, fmt.Errorf("parsing top-level config: %w", err)
	}
	return top, nil
}

// StripWikiIndent removes the four leading spaces wiki markdown adds to each
// code line before YAML parsing.
func StripWikiIndent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "    ")
	}
	return strings.Join(lines, "\n")
}
