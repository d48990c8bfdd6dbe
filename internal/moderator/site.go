// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"context"

	"github.com/josephwegner/better-auto-moderator/internal/reddit"
)

// Site is the slice of the Reddit client the engine needs: attribute lookups
// that round-trip to the API and the moderation effects actions invoke. The
// engine itself never touches the network outside this interface, which keeps
// evaluation testable against a fake.
type Site interface {
	// Lookups.
	AboutUser(ctx context.Context, name string) (*reddit.Profile, error)
	AboutSubreddit(ctx context.Context, name string) (*reddit.Subreddit, error)
	UserFlair(ctx context.Context, name string) (*reddit.UserFlair, error)
	UserFlairTemplate(ctx context.Context, name string) (string, error)
	IsContributor(ctx context.Context, name string) (bool, error)
	IsModerator(ctx context.Context, name string) (bool, error)
	IsBanned(ctx context.Context, name string) (bool, error)
	// UserModerates reports whether the user moderates the configured
	// subreddit.
	UserModerates(ctx context.Context, name string) (bool, error)
	// Fetch loads a thing (submission or comment) by fullname.
	Fetch(ctx context.Context, fullname string) (*reddit.Item, error)

	// Effects.
	Approve(ctx context.Context, fullname string) error
	Remove(ctx context.Context, fullname string, spam bool) error
	Report(ctx context.Context, fullname, reason string) error
	IgnoreReports(ctx context.Context, fullname string) error
	Reply(ctx context.Context, fullname, body string) (*reddit.Item, error)
	Lock(ctx context.Context, fullname string, locked bool) error
	DistinguishSticky(ctx context.Context, fullname string, sticky bool) error
	MarkNSFW(ctx context.Context, fullname string, nsfw bool) error
	Spoiler(ctx context.Context, fullname string, spoiler bool) error
	ContestMode(ctx context.Context, fullname string, enabled bool) error
	OriginalContent(ctx context.Context, fullname string, enabled bool) error
	SuggestedSort(ctx context.Context, fullname, sort string) error
	SetPostFlair(ctx context.Context, fullname, text, cssClass, templateID string) error
	SetUserFlair(ctx context.Context, name, text, cssClass, templateID string) error
	ModmailCreate(ctx context.Context, subject, body, author string) error
	SubredditMessage(ctx context.Context, subject, body string) error
}
