// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"
)

func setEnv(t *testing.T) {
	t.Setenv(EnvClientID, "client")
	t.Setenv(EnvClientSecret, "secret")
	t.Setenv(EnvUsername, "bam_bot")
	t.Setenv(EnvPassword, "hunter2")
	t.Setenv(EnvSubreddit, "BAMTest")
}

func TestCredentialsFromEnv(t *testing.T) {
	setEnv(t)

	creds, err := CredentialsFromEnv()
	if err != nil {
		t.Fatalf("Failed to load credentials: %v", err)
	}
	if creds.Username != "bam_bot" {
		t.Errorf("Username = %q, want bam_bot", creds.Username)
	}
	if creds.Subreddit != "BAMTest" {
		t.Errorf("Subreddit = %q, want BAMTest", creds.Subreddit)
	}
}

func TestCredentialsFromEnv_MissingVars(t *testing.T) {
	setEnv(t)
	t.Setenv(EnvPassword, "")

	_, err := CredentialsFromEnv()
	if err == nil {
		t.Fatal("Expected an error for missing credentials")
	}
	if !strings.Contains(err.Error(), EnvPassword) {
		t.Errorf("Error should name the missing variable, got: %v", err)
	}
}

func TestParseTop(t *testing.T) {
	top, err := ParseTop("overwrite_automoderator: true\n")
	if err != nil {
		t.Fatalf("Failed to parse top config: %v", err)
	}
	if !top.OverwriteAutomoderator {
		t.Error("OverwriteAutomoderator should be true")
	}

	// An empty page keeps the default of false.
	top, err = ParseTop("")
	if err != nil {
		t.Fatalf("Failed to parse empty config: %v", err)
	}
	if top.OverwriteAutomoderator {
		t.Error("OverwriteAutomoderator should default to false")
	}
}

func TestStripWikiIndent(t *testing.T) {
	in := "    type: comment\n    body: hi\nno indent\n        nested: true"
	want := "type: comment\nbody: hi\nno indent\n    nested: true"
	if got := StripWikiIndent(in); got != want {
		t.Errorf("StripWikiIndent = %q, want %q", got, want)
	}
}
