// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reddit

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/sjson"
)

// Moderation effects. Each wraps one Reddit mod endpoint; the engine decides
// when to call them.

// Approve approves a thing.
func (c *Client) Approve(ctx context.Context, fullname string) error {
	_, err := c.postForm(ctx, "/api/approve", url.Values{"id": {fullname}})
	return err
}

// Remove removes a thing, optionally marking it as spam.
func (c *Client) Remove(ctx context.Context, fullname string, spam bool) error {
	form := url.Values{"id": {fullname}, "spam": {boolParam(spam)}}
	_, err := c.postForm(ctx, "/api/remove", form)
	return err
}

// Report files a report against a thing.
func (c *Client) Report(ctx context.Context, fullname, reason string) error {
	form := url.Values{"thing_id": {fullname}}
	if reason != "" {
		form.Set("reason", reason)
	}
	_, err := c.postForm(ctx, "/api/report", form)
	return err
}

// IgnoreReports suppresses report notifications on a thing.
func (c *Client) IgnoreReports(ctx context.Context, fullname string) error {
	_, err := c.postForm(ctx, "/api/ignore_reports", url.Values{"id": {fullname}})
	return err
}

// Reply posts a comment under a thing and returns the created comment.
func (c *Client) Reply(ctx context.Context, fullname, body string) (*Item, error) {
	form := url.Values{"thing_id": {fullname}, "text": {body}}
	res, err := c.postForm(ctx, "/api/comment", form)
	if err != nil {
		return nil, err
	}
	things := res.Get("json.data.things").Array()
	if len(things) == 0 {
		return nil, fmt.Errorf("reddit: reply to %s returned no comment", fullname)
	}
	return parseThing(things[0]), nil
}

// Lock locks or unlocks a thing.
func (c *Client) Lock(ctx context.Context, fullname string, locked bool) error {
	endpoint := "/api/lock"
	if !locked {
		endpoint = "/api/unlock"
	}
	_, err := c.postForm(ctx, endpoint, url.Values{"id": {fullname}})
	return err
}

// DistinguishSticky distinguishes a comment as a moderator and stickies or
// unstickies it.
func (c *Client) DistinguishSticky(ctx context.Context, fullname string, sticky bool) error {
	how := "yes"
	if !sticky {
		how = "no"
	}
	form := url.Values{"id": {fullname}, "how": {how}, "sticky": {boolParam(sticky)}}
	_, err := c.postForm(ctx, "/api/distinguish", form)
	return err
}

// MarkNSFW toggles the NSFW flag on a submission.
func (c *Client) MarkNSFW(ctx context.Context, fullname string, nsfw bool) error {
	endpoint := "/api/marknsfw"
	if !nsfw {
		endpoint = "/api/unmarknsfw"
	}
	_, err := c.postForm(ctx, endpoint, url.Values{"id": {fullname}})
	return err
}

// Spoiler toggles the spoiler flag on a submission.
func (c *Client) Spoiler(ctx context.Context, fullname string, spoiler bool) error {
	endpoint := "/api/spoiler"
	if !spoiler {
		endpoint = "/api/unspoiler"
	}
	_, err := c.postForm(ctx, endpoint, url.Values{"id": {fullname}})
	return err
}

// ContestMode toggles contest mode on a submission.
func (c *Client) ContestMode(ctx context.Context, fullname string, enabled bool) error {
	form := url.Values{"id": {fullname}, "state": {boolParam(enabled)}}
	_, err := c.postForm(ctx, "/api/set_contest_mode", form)
	return err
}

// OriginalContent toggles the OC tag on a submission.
func (c *Client) OriginalContent(ctx context.Context, fullname string, enabled bool) error {
	form := url.Values{
		"fullname":   {fullname},
		"should_set": {boolParam(enabled)},
	}
	_, err := c.postForm(ctx, "/api/set_original_content", form)
	return err
}

// SuggestedSort sets the suggested comment sort on a submission.
func (c *Client) SuggestedSort(ctx context.Context, fullname, sort string) error {
	form := url.Values{"id": {fullname}, "sort": {sort}}
	_, err := c.postForm(ctx, "/api/set_suggested_sort", form)
	return err
}

// SetPostFlair sets link flair, through the template selector when a
// template id is given.
func (c *Client) SetPostFlair(ctx context.Context, fullname, text, cssClass, templateID string) error {
	if templateID != "" {
		form := url.Values{
			"link":              {fullname},
			"flair_template_id": {templateID},
		}
		if text != "" {
			form.Set("text", text)
		}
		_, err := c.postForm(ctx, c.subPath("/api/selectflair"), form)
		return err
	}

	form := url.Values{"link": {fullname}, "text": {text}, "css_class": {cssClass}}
	_, err := c.postForm(ctx, c.subPath("/api/flair"), form)
	return err
}

// SetUserFlair sets a user's flair in the session subreddit.
func (c *Client) SetUserFlair(ctx context.Context, name, text, cssClass, templateID string) error {
	if templateID != "" {
		form := url.Values{
			"name":              {name},
			"flair_template_id": {templateID},
		}
		if text != "" {
			form.Set("text", text)
		}
		_, err := c.postForm(ctx, c.subPath("/api/selectflair"), form)
		return err
	}

	form := url.Values{"name": {name}, "text": {text}, "css_class": {cssClass}}
	_, err := c.postForm(ctx, c.subPath("/api/flair"), form)
	return err
}

// ModmailCreate opens a modmail conversation with the user as participant.
func (c *Client) ModmailCreate(ctx context.Context, subject, body, author string) error {
	payload := "{}"
	payload, _ = sjson.Set(payload, "subject", subject)
	payload, _ = sjson.Set(payload, "body", body)
	payload, _ = sjson.Set(payload, "srName", c.Subreddit)
	payload, _ = sjson.Set(payload, "to", author)
	payload, _ = sjson.Set(payload, "isAuthorHidden", false)

	_, err := c.postJSON(ctx, "/api/mod/conversations", payload)
	return err
}

// SubredditMessage sends a message to the subreddit, which lands in its own
// modmail.
func (c *Client) SubredditMessage(ctx context.Context, subject, body string) error {
	form := url.Values{
		"to":      {"/r/" + c.Subreddit},
		"subject": {subject},
		"text":    {body},
	}
	_, err := c.postForm(ctx, "/api/compose", form)
	return err
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
