// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/josephwegner/better-auto-moderator/internal/reddit"
)

// placeholderRe finds {{token}} occurrences inside rule strings.
var placeholderRe = regexp.MustCompile(`{{(.*?)}}`)

// placeholderFunc computes a token's substitution from the current item. A
// nil-equivalent result (ok=false) leaves the occurrence untouched.
type placeholderFunc func(ctx context.Context, m *Moderator) (string, bool)

// placeholders maps token names to their resolvers. The `match` family is
// handled separately because it carries an embedded key.
var placeholders = map[string]placeholderFunc{
	"author": func(ctx context.Context, m *Moderator) (string, bool) {
		return m.item.Author.Name, true
	},
	"author_flair_text": func(ctx context.Context, m *Moderator) (string, bool) {
		flair, err := m.authorFlair(ctx)
		if err != nil || flair.Text == nil {
			return "", false
		}
		return *flair.Text, true
	},
	"author_flair_css_class": func(ctx context.Context, m *Moderator) (string, bool) {
		flair, err := m.authorFlair(ctx)
		if err != nil || flair.CSSClass == nil {
			return "", false
		}
		return *flair.CSSClass, true
	},
	"author_flair_template_id": func(ctx context.Context, m *Moderator) (string, bool) {
		id, err := m.site.UserFlairTemplate(ctx, m.item.Author.Name)
		if err != nil {
			return "", false
		}
		return id, true
	},
	"body": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.Kind == reddit.KindSubmission && m.item.IsCrosspost() {
			parent, err := m.crosspostParent(ctx)
			if err != nil || parent == nil {
				return "", false
			}
			return parent.Body, true
		}
		return m.item.Body, true
	},
	"permalink": func(ctx context.Context, m *Moderator) (string, bool) {
		return "https://www.reddit.com" + m.item.Permalink, true
	},
	"subreddit": func(ctx context.Context, m *Moderator) (string, bool) {
		return m.item.Subreddit.Name, true
	},
	"kind": func(ctx context.Context, m *Moderator) (string, bool) {
		return string(m.item.Kind), true
	},
	"title": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.Kind != reddit.KindSubmission {
			return "", false
		}
		return m.item.Title, true
	},
	"domain": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.URL != "" {
			if parsed, err := url.Parse(m.item.URL); err == nil && parsed.Host != "" && parsed.Host != "www.reddit.com" {
				return parsed.Host, true
			}
		}
		return "self." + m.item.Subreddit.Name, true
	},
	"url": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.URL == "" {
			return "", false
		}
		return m.item.URL, true
	},
	"media_author": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.Media == nil {
			return "", false
		}
		return m.item.Media.AuthorName, true
	},
	"media_author_url": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.Media == nil {
			return "", false
		}
		return m.item.Media.AuthorURL, true
	},
	"media_title": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.Media == nil {
			return "", false
		}
		return m.item.Media.Title, true
	},
	"media_description": func(ctx context.Context, m *Moderator) (string, bool) {
		if m.item.Media == nil {
			return "", false
		}
		return m.item.Media.Description, true
	},
}

// replacePlaceholders substitutes {{token}} occurrences inside string values.
// Non-string values pass through untouched. Unknown tokens and tokens that
// resolve to nothing are left as-is.
func (m *Moderator) replacePlaceholders(ctx context.Context, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	tokens := placeholderRe.FindAllStringSubmatch(s, -1)
	if len(tokens) == 0 {
		return s
	}

	replaced := s
	for _, group := range tokens {
		token := group[1]

		var inject string
		found := false
		switch {
		case token == "match":
			if v, ok := m.matches.First(); ok && v != nil {
				inject, found = placeholderString(v), true
			}
		case strings.HasPrefix(token, "match-"):
			if v, ok := m.matches.Get(token[len("match-"):]); ok && v != nil {
				inject, found = placeholderString(v), true
			}
		default:
			if fn, ok := placeholders[token]; ok {
				inject, found = fn(ctx, m)
			}
		}

		if found {
			replaced = strings.ReplaceAll(replaced, "{{"+token+"}}", inject)
		}
	}

	return replaced
}

// placeholderString renders a match-record value for injection into text.
func placeholderString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return stringify(v)
}
