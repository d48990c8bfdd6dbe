// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reddit

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Kind identifies what a moderated item is.
type Kind string

const (
	KindSubmission Kind = "submission"
	KindComment    Kind = "comment"
	KindModmail    Kind = "modmail"
)

// Redditor is the author snapshot carried on every streamed item. Karma,
// account age and gold status are not part of listing payloads; they load on
// demand through Client.AboutUser.
type Redditor struct {
	ID   string
	Name string
}

// Profile is the full user record from /user/<name>/about.
type Profile struct {
	ID           string
	Name         string
	CommentKarma int
	LinkKarma    int
	Created      time.Time
	IsGold       bool
}

// Subreddit is the community snapshot carried on an item.
type Subreddit struct {
	Name   string
	Over18 bool
}

// Report is one user or moderator report on an item.
type Report struct {
	Reason string
	Count  int
}

// Media is the oembed sub-object of a submission. Absent oembed fields stay
// empty strings, matching how Reddit serializes them.
type Media struct {
	AuthorName  string
	AuthorURL   string
	Title       string
	Description string
}

// UserFlair is a user's flair in the configured subreddit.
type UserFlair struct {
	Text       *string
	CSSClass   *string
	TemplateID string
}

// Item is the uniform facade over posts, comments, modqueue entries and
// modmail conversations that the rule engine evaluates. Fields that do not
// apply to a kind stay zero.
type Item struct {
	Kind      Kind
	ID        string
	Fullname  string
	Author    Redditor
	Subreddit Subreddit
	Permalink string

	// Submission fields.
	Title               string
	URL                 string
	Domain              string
	LinkFlairText       *string
	LinkFlairCSSClass   *string
	LinkFlairTemplateID *string
	IsOriginalContent   bool
	IsGallery           bool
	HasPoll             bool
	PollOptions         []string
	Media               *Media
	CrosspostParent     string

	// Comment fields.
	Depth    int
	ParentID string
	LinkID   string

	// Modmail fields.
	Subject string

	// Shared content and moderation state.
	Body        string
	UserReports []Report
	ModReports  []Report
	Approved    bool
	Removed     bool
	Edited      bool
}

// IsCrosspost reports whether the item is a crosspost of another submission.
func (i *Item) IsCrosspost() bool {
	return i.CrosspostParent != ""
}

// CrosspostParentID returns the bare id of the crosspost parent submission.
func (i *Item) CrosspostParentID() string {
	_, id := SplitFullname(i.CrosspostParent)
	return id
}

// SplitFullname splits a thing fullname like `t3_abcde` into its type prefix
// and id.
func SplitFullname(fullname string) (prefix, id string) {
	if idx := strings.IndexByte(fullname, '_'); idx >= 0 {
		return fullname[:idx], fullname[idx+1:]
	}
	return "", fullname
}

// parseThing builds an Item from one listing child. The child's `kind` field
// (t1/t3) picks comment vs submission; modqueue listings mix both.
func parseThing(thing gjson.Result) *Item {
	data := thing.Get("data")
	item := &Item{
		ID:        data.Get("id").String(),
		Fullname:  data.Get("name").String(),
		Permalink: data.Get("permalink").String(),
		Author: Redditor{
			Name: data.Get("author").String(),
		},
		Subreddit: Subreddit{
			Name:   data.Get("subreddit").String(),
			Over18: data.Get("subreddit_over_18").Bool(),
		},
	}
	if fullname := data.Get("author_fullname").String(); fullname != "" {
		_, item.Author.ID = SplitFullname(fullname)
	}

	switch thing.Get("kind").String() {
	case "t1":
		item.Kind = KindComment
		item.Body = data.Get("body").String()
		item.ParentID = data.Get("parent_id").String()
		item.LinkID = data.Get("link_id").String()
		// Listing children do not carry tree depth; top-level comments are
		// recognizable by their t3 parent.
		if prefix, _ := SplitFullname(item.ParentID); prefix == "t3" {
			item.Depth = 0
		} else {
			item.Depth = 1
		}
	default:
		item.Kind = KindSubmission
		item.Title = data.Get("title").String()
		item.Body = data.Get("selftext").String()
		item.URL = data.Get("url").String()
		item.Domain = data.Get("domain").String()
		item.IsOriginalContent = data.Get("is_original_content").Bool()
		item.IsGallery = data.Get("is_gallery").Bool()
		item.CrosspostParent = data.Get("crosspost_parent").String()

		if flair := data.Get("link_flair_text"); flair.Exists() && flair.Type != gjson.Null {
			s := flair.String()
			item.LinkFlairText = &s
		}
		if css := data.Get("link_flair_css_class"); css.Exists() && css.Type != gjson.Null {
			s := css.String()
			item.LinkFlairCSSClass = &s
		}
		if tmpl := data.Get("link_flair_template_id"); tmpl.Exists() && tmpl.Type != gjson.Null {
			s := tmpl.String()
			item.LinkFlairTemplateID = &s
		}
		if poll := data.Get("poll_data"); poll.Exists() {
			item.HasPoll = true
			for _, opt := range poll.Get("options").Array() {
				item.PollOptions = append(item.PollOptions, opt.Get("text").String())
			}
		}
		if media := data.Get("media"); media.Exists() && media.Type != gjson.Null {
			oembed := media.Get("oembed")
			item.Media = &Media{
				AuthorName:  oembed.Get("author_name").String(),
				AuthorURL:   oembed.Get("author_url").String(),
				Title:       oembed.Get("title").String(),
				Description: oembed.Get("description").String(),
			}
		}
	}

	item.UserReports = parseReports(data.Get("user_reports"))
	item.ModReports = parseReports(data.Get("mod_reports"))
	item.Approved = data.Get("approved").Bool() || data.Get("approved_by").Type == gjson.String
	item.Removed = data.Get("removed").Bool() || data.Get("banned_by").Type == gjson.String
	// `edited` is false or an edit timestamp.
	item.Edited = data.Get("edited").Type == gjson.Number

	return item
}

// parseReports decodes Reddit's `[["reason", count], ...]` report pairs.
func parseReports(raw gjson.Result) []Report {
	var reports []Report
	for _, pair := range raw.Array() {
		entries := pair.Array()
		if len(entries) == 0 {
			continue
		}
		report := Report{Reason: entries[0].String(), Count: 1}
		if len(entries) > 1 && entries[1].Type == gjson.Number {
			report.Count = int(entries[1].Int())
		}
		reports = append(reports, report)
	}
	return reports
}

// parseProfile decodes /user/<name>/about.
func parseProfile(data gjson.Result) *Profile {
	return &Profile{
		ID:           data.Get("id").String(),
		Name:         data.Get("name").String(),
		CommentKarma: int(data.Get("comment_karma").Int()),
		LinkKarma:    int(data.Get("link_karma").Int()),
		Created:      time.Unix(int64(data.Get("created_utc").Float()), 0).UTC(),
		IsGold:       data.Get("is_gold").Bool(),
	}
}

// parseSubreddit decodes /r/<name>/about.
func parseSubreddit(data gjson.Result) *Subreddit {
	return &Subreddit{
		Name:   data.Get("display_name").String(),
		Over18: data.Get("over18").Bool(),
	}
}
