// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reddit

import (
	"context"
	"errors"
	"net/url"
)

// ErrWikiPageNotFound reports a wiki page that has not been created yet.
var ErrWikiPageNotFound = errors.New("wiki page not found")

// WikiPage is one revision of a subreddit wiki page.
type WikiPage struct {
	Name         string
	Content      string
	RevisionDate float64
}

// WikiPage fetches a wiki page of the session subreddit.
func (c *Client) WikiPage(ctx context.Context, name string) (*WikiPage, error) {
	res, err := c.get(ctx, c.subPath("/wiki/"+name), nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, ErrWikiPageNotFound
		}
		return nil, err
	}
	if res.Get("reason").String() == "PAGE_NOT_CREATED" {
		return nil, ErrWikiPageNotFound
	}

	return &WikiPage{
		Name:         name,
		Content:      res.Get("data.content_md").String(),
		RevisionDate: res.Get("data.revision_date").Float(),
	}, nil
}

// WikiEdit writes a wiki page, creating it when missing.
func (c *Client) WikiEdit(ctx context.Context, name, content, reason string) error {
	form := url.Values{
		"page":    {name},
		"content": {content},
		"reason":  {reason},
	}
	_, err := c.postForm(ctx, c.subPath("/api/wiki/edit"), form)
	return err
}

// WikiLock restricts editing of a wiki page to moderators only.
func (c *Client) WikiLock(ctx context.Context, name string) error {
	form := url.Values{
		"permlevel": {"2"},
		"listed":    {"on"},
	}
	_, err := c.postForm(ctx, c.subPath("/wiki/settings/"+name), form)
	return err
}
