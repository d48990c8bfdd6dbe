// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josephwegner/better-auto-moderator/internal/reddit"
)

func TestPlaceholders_ItemTokens(t *testing.T) {
	site := newFakeSite()
	mod := NewComment(testComment(), site)
	ctx := context.Background()

	cases := []struct {
		in   string
		want string
	}{
		{"hi {{author}}", "hi test_user"},
		{"{{permalink}}", "https://www.reddit.com/r/BAMTest/comments/xyz/abcde/"},
		{"in /r/{{subreddit}}", "in /r/BAMTest"},
		{"a {{kind}}", "a comment"},
		{"{{body}}", "Hello, world!"},
		{"no tokens here", "no tokens here"},
		{"{{unknown_token}} stays", "{{unknown_token}} stays"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, mod.replacePlaceholders(ctx, tc.in))
	}
}

func TestPlaceholders_DomainToken(t *testing.T) {
	ctx := context.Background()

	post := NewPost(testPost(), newFakeSite())
	assert.Equal(t, "i.imgur.com", post.replacePlaceholders(ctx, "{{domain}}"))

	// Self posts and comments resolve to self.<subreddit>.
	selfPost := testPost()
	selfPost.URL = "https://www.reddit.com/r/BAMTest/comments/xyz/"
	post = NewPost(selfPost, newFakeSite())
	assert.Equal(t, "self.BAMTest", post.replacePlaceholders(ctx, "{{domain}}"))

	comment := NewComment(testComment(), newFakeSite())
	assert.Equal(t, "self.BAMTest", comment.replacePlaceholders(ctx, "{{domain}}"))
}

func TestPlaceholders_MatchTokens(t *testing.T) {
	ctx := context.Background()
	mod := NewComment(testComment(), newFakeSite())

	// Nothing recorded yet: match tokens stay untouched.
	assert.Equal(t, "{{match}}", mod.replacePlaceholders(ctx, "{{match}}"))

	mod.Matches().Set("body", "Hello, world!")
	mod.Matches().Set("id", "abcde")

	assert.Equal(t, "Hello, world!", mod.replacePlaceholders(ctx, "{{match}}"))
	assert.Equal(t, "abcde", mod.replacePlaceholders(ctx, "{{match-id}}"))
	assert.Equal(t, "{{match-nope}}", mod.replacePlaceholders(ctx, "{{match-nope}}"))
}

func TestPlaceholders_NonStringPassThrough(t *testing.T) {
	mod := NewComment(testComment(), newFakeSite())
	assert.Equal(t, 42, mod.replacePlaceholders(context.Background(), 42))
	assert.Equal(t, true, mod.replacePlaceholders(context.Background(), true))
}

func TestPlaceholders_AuthorFlair(t *testing.T) {
	site := newFakeSite()
	text := "Helper"
	site.flairs["test_user"] = &reddit.UserFlair{Text: &text}

	mod := NewComment(testComment(), site)
	assert.Equal(t, "flair: Helper", mod.replacePlaceholders(context.Background(), "flair: {{author_flair_text}}"))
}

func TestPlaceholders_MediaTokens(t *testing.T) {
	post := testPost()
	post.Media = &reddit.Media{AuthorName: "someone", Title: "a video"}

	mod := NewPost(post, newFakeSite())
	assert.Equal(t, "by someone", mod.replacePlaceholders(context.Background(), "by {{media_author}}"))
	assert.Equal(t, "a video", mod.replacePlaceholders(context.Background(), "{{media_title}}"))

	// No media: the token stays.
	mod = NewPost(testPost(), newFakeSite())
	assert.Equal(t, "{{media_title}}", mod.replacePlaceholders(context.Background(), "{{media_title}}"))
}
