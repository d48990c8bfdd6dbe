// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"context"
	"regexp"

	"github.com/josephwegner/better-auto-moderator/internal/reddit"

	"github.com/josephwegner/better-auto-moderator/internal/rule"
)

// A CheckFunc fetches the attribute a named check compares. Getters may
// round-trip to the site; a getter error makes the containing rule fail
// without aborting evaluation of other rules.
type CheckFunc func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error)

// Check binds a getter to its comparison defaults.
type Check struct {
	Run CheckFunc
	// Default is the comparator tag used when no option overrides it.
	Default string
	// SkipIf is a sentinel: a getter returning it skips the check, which
	// fails the whole rule. Only honored when Skippable is set.
	SkipIf    any
	Skippable bool
	// Implied options are appended after comparator resolution; ordering
	// getters use them to force their inequality direction.
	Implied []string
}

// Checks is the named check table for one evaluation scope.
type Checks map[string]Check

var (
	tickBlockRe  = regexp.MustCompile(`(?s)` + "```" + `.*?` + "```")
	indentLineRe = regexp.MustCompile(`    [^\n]*\n`)
)

// stripBlockquotes removes triple-backtick blocks and four-space-indented
// lines, for rules with `ignore_blockquotes: true`.
func stripBlockquotes(body string) string {
	body = tickBlockRe.ReplaceAllString(body, "")
	return indentLineRe.ReplaceAllString(body, "")
}

func itemBody(ctx context.Context, m *Moderator, r *rule.Rule) (string, error) {
	body := m.item.Body
	if m.item.IsCrosspost() {
		parent, err := m.crosspostParent(ctx)
		if err != nil {
			return "", err
		}
		if parent != nil {
			body = parent.Body
		}
	}
	if v, ok := r.Config.Get("ignore_blockquotes"); ok && v == true {
		body = stripBlockquotes(body)
	}
	return body, nil
}

func trimmedBodyLength(ctx context.Context, m *Moderator, r *rule.Rule) (int, error) {
	body, err := itemBody(ctx, m, r)
	if err != nil {
		return 0, err
	}
	body = leadingJunkRe.ReplaceAllString(body, "")
	body = trailingJunkRe.ReplaceAllString(body, "")
	return len(body), nil
}

func reportReasons(m *Moderator, r *rule.Rule) []string {
	reports := m.item.UserReports
	if !m.moderatorsExempt(r) {
		reports = append(append([]reddit.Report{}, reports...), m.item.ModReports...)
	}
	reasons := make([]string, 0, len(reports))
	for _, report := range reports {
		reasons = append(reasons, report.Reason)
	}
	return reasons
}

// commonChecks apply to every item kind.
func commonChecks() Checks {
	return Checks{
		"id": {
			Default:   "full-exact",
			Skippable: true,
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.item.ID, nil
			},
		},
		"body": {
			Default: "includes-word",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return itemBody(ctx, m, r)
			},
		},
		"body_longer_than": {
			Default: "numeric",
			Implied: []string{"greater-than"},
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return trimmedBodyLength(ctx, m, r)
			},
		},
		"body_shorter_than": {
			Default: "numeric",
			Implied: []string{"less-than"},
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return trimmedBodyLength(ctx, m, r)
			},
		},
		"url": {
			Default: "includes",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				if m.item.IsCrosspost() {
					parent, err := m.crosspostParent(ctx)
					if err != nil {
						return nil, err
					}
					if parent != nil {
						return parent.URL, nil
					}
				}
				return m.item.URL, nil
			},
		},
		"report_reasons": {
			Default: "contains",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return reportReasons(m, r), nil
			},
		},
		// Compatibility alias; older rule pages used the singular spelling.
		"report_reason": {
			Default: "contains",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return reportReasons(m, r), nil
			},
		},
		"reports": {
			Default: "numeric",
			Implied: []string{"greater-than-equal"},
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return len(m.item.UserReports) + len(m.item.ModReports), nil
			},
		},
		"is_edited": {
			Default: "bool",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.item.Edited, nil
			},
		},
	}
}

// commentChecks extend the common set for comments.
func commentChecks() Checks {
	checks := commonChecks()
	checks["body"] = Check{
		Default: "includes-word",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			body := m.item.Body
			if v, ok := r.Config.Get("ignore_blockquotes"); ok && v == true {
				body = stripBlockquotes(body)
			}
			return body, nil
		},
	}
	checks["is_top_level"] = Check{
		Default: "bool",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return m.item.Depth == 0, nil
		},
	}
	return checks
}

// postChecks extend the common set for submissions. Crosspost-aware getters
// resolve through the parent submission.
func postChecks() Checks {
	checks := commonChecks()
	checks["title"] = Check{
		Default: "includes-word",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return m.item.Title, nil
		},
	}
	checks["domain"] = Check{
		Default: "domain",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			if m.item.IsCrosspost() {
				parent, err := m.crosspostParent(ctx)
				if err != nil {
					return nil, err
				}
				if parent != nil {
					return parent.Domain, nil
				}
			}
			return m.item.Domain, nil
		},
	}
	checks["flair_text"] = Check{
		Default: "full-exact",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return deref(m.item.LinkFlairText), nil
		},
	}
	checks["flair_css_class"] = Check{
		Default: "full-exact",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return deref(m.item.LinkFlairCSSClass), nil
		},
	}
	checks["flair_template_id"] = Check{
		Default: "full-exact",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return deref(m.item.LinkFlairTemplateID), nil
		},
	}
	checks["poll_option_text"] = Check{
		Default: "includes-word",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			if !m.item.HasPoll {
				return nil, nil
			}
			return m.item.PollOptions, nil
		},
	}
	checks["poll_option_count"] = Check{
		Default: "numeric",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return len(m.item.PollOptions), nil
		},
	}
	checks["crosspost_id"] = Check{
		Default:   "includes-word",
		Skippable: true,
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			if !m.item.IsCrosspost() {
				return nil, nil
			}
			return m.item.CrosspostParentID(), nil
		},
	}
	checks["crosspost_title"] = Check{
		Default:   "includes-word",
		Skippable: true,
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			if !m.item.IsCrosspost() {
				return nil, nil
			}
			parent, err := m.crosspostParent(ctx)
			if err != nil {
				return nil, err
			}
			return parent.Title, nil
		},
	}
	checks["media_author"] = mediaCheck("full-exact", func(media *reddit.Media) string { return media.AuthorName })
	checks["media_author_url"] = mediaCheck("includes", func(media *reddit.Media) string { return media.AuthorURL })
	checks["media_title"] = mediaCheck("includes-word", func(media *reddit.Media) string { return media.Title })
	checks["media_description"] = mediaCheck("includes-word", func(media *reddit.Media) string { return media.Description })
	checks["is_original_content"] = Check{
		Default: "bool",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return m.item.IsOriginalContent, nil
		},
	}
	checks["is_poll"] = Check{
		Default: "bool",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return m.item.HasPoll, nil
		},
	}
	checks["is_gallery"] = Check{
		Default: "bool",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			return m.item.IsGallery, nil
		},
	}
	return checks
}

func mediaCheck(def string, field func(*reddit.Media) string) Check {
	return Check{
		Default:   def,
		Skippable: true,
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			if m.item.Media == nil {
				return nil, nil
			}
			return field(m.item.Media), nil
		},
	}
}

// modqueueChecks are the common set; modqueue rules mostly match on report
// reasons and ids.
func modqueueChecks() Checks {
	return commonChecks()
}

// modmailChecks cover modmail conversations.
func modmailChecks() Checks {
	return Checks{
		"id": {
			Default:   "full-exact",
			Skippable: true,
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.item.ID, nil
			},
		},
		"body": {
			Default: "includes-word",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.item.Body, nil
			},
		},
		"subject": {
			Default: "includes-word",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.item.Subject, nil
			},
		},
	}
}

// authorChecks evaluate against the item's author.
func authorChecks() Checks {
	return Checks{
		"comment_karma": {
			Default: "numeric",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				profile, err := m.authorProfile(ctx)
				if err != nil {
					return nil, err
				}
				return profile.CommentKarma, nil
			},
		},
		"post_karma": {
			Default: "numeric",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				profile, err := m.authorProfile(ctx)
				if err != nil {
					return nil, err
				}
				return profile.LinkKarma, nil
			},
		},
		"combined_karma": {
			Default: "numeric",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				profile, err := m.authorProfile(ctx)
				if err != nil {
					return nil, err
				}
				return profile.LinkKarma + profile.CommentKarma, nil
			},
		},
		"id": {
			Default: "full-exact",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				if m.item.Author.ID != "" {
					return m.item.Author.ID, nil
				}
				profile, err := m.authorProfile(ctx)
				if err != nil {
					return nil, err
				}
				return profile.ID, nil
			},
		},
		"name": {
			Default: "includes-word",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.item.Author.Name, nil
			},
		},
		"flair_template_id": {
			Default: "full-exact",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.site.UserFlairTemplate(ctx, m.item.Author.Name)
			},
		},
		"flair_text": {
			Default: "full-exact",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				flair, err := m.authorFlair(ctx)
				if err != nil {
					return nil, err
				}
				return deref(flair.Text), nil
			},
		},
		"flair_css_class": {
			Default: "full-exact",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				flair, err := m.authorFlair(ctx)
				if err != nil {
					return nil, err
				}
				return deref(flair.CSSClass), nil
			},
		},
		"account_age": {
			Default: "time",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				profile, err := m.authorProfile(ctx)
				if err != nil {
					return nil, err
				}
				return profile.Created, nil
			},
		},
		"is_gold": {
			Default: "bool",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				profile, err := m.authorProfile(ctx)
				if err != nil {
					return nil, err
				}
				return profile.IsGold, nil
			},
		},
		"is_contributor": {
			Default: "bool",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.site.IsContributor(ctx, m.item.Author.Name)
			},
		},
		"is_moderator": {
			Default: "bool",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.site.IsModerator(ctx, m.item.Author.Name)
			},
		},
		"is_banned": {
			Default: "bool",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.site.IsBanned(ctx, m.item.Author.Name)
			},
		},
	}
}

// commentAuthorChecks extend the author set for comment authors.
func commentAuthorChecks() Checks {
	checks := authorChecks()
	checks["is_submitter"] = Check{
		Default: "bool",
		Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
			submission, err := m.parentSubmission(ctx)
			if err != nil {
				return nil, err
			}
			if submission == nil {
				return false, nil
			}
			if m.item.Author.ID != "" && submission.Author.ID != "" {
				return m.item.Author.ID == submission.Author.ID, nil
			}
			return m.item.Author.Name == submission.Author.Name, nil
		},
	}
	return checks
}

// crosspostSubredditChecks evaluate against the subreddit a crosspost came
// from. The sub-moderator's item is the crosspost parent submission.
func crosspostSubredditChecks() Checks {
	return Checks{
		"name": {
			Default: "full-exact",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				return m.item.Subreddit.Name, nil
			},
		},
		"is_nsfw": {
			Default: "bool",
			Run: func(ctx context.Context, m *Moderator, r *rule.Rule, opts []string) (any, error) {
				about, err := m.subredditAbout(ctx)
				if err != nil {
					return nil, err
				}
				return about.Over18, nil
			},
		},
	}
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
