// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reddit

import (
	"context"
	"net/url"
)

// maxSeen bounds the dedup window of a stream. Listings return at most 100
// children per poll, so a window an order of magnitude wider is plenty.
const maxSeen = 1000

// Stream polls one listing endpoint non-blockingly and yields only items it
// has not seen before. The first poll primes the seen set without yielding,
// so a fresh stream skips everything that existed before the bot started.
type Stream struct {
	client *Client
	path   string
	params url.Values

	seen   map[string]bool
	order  []string
	primed bool
}

func (c *Client) newStream(path string, params url.Values) *Stream {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", "100")
	return &Stream{
		client: c,
		path:   path,
		params: params,
		seen:   make(map[string]bool),
	}
}

// Submissions streams new submissions.
func (c *Client) Submissions() *Stream {
	return c.newStream(c.subPath("/new"), nil)
}

// Comments streams new comments.
func (c *Client) Comments() *Stream {
	return c.newStream(c.subPath("/comments"), nil)
}

// Modqueue streams modqueue entries.
func (c *Client) Modqueue() *Stream {
	return c.newStream(c.subPath("/about/modqueue"), nil)
}

// Reports streams reported items.
func (c *Client) Reports() *Stream {
	return c.newStream(c.subPath("/about/reports"), nil)
}

// EditedSubmissions streams submissions that were edited.
func (c *Client) EditedSubmissions() *Stream {
	return c.newStream(c.subPath("/about/edited"), url.Values{"only": {"links"}})
}

// EditedComments streams comments that were edited.
func (c *Client) EditedComments() *Stream {
	return c.newStream(c.subPath("/about/edited"), url.Values{"only": {"comments"}})
}

// Poll fetches the listing once and returns unseen items oldest-first. An
// empty slice means nothing new this round.
func (s *Stream) Poll(ctx context.Context) ([]*Item, error) {
	params := url.Values{}
	for k, v := range s.params {
		params[k] = v
	}
	res, err := s.client.get(ctx, s.path, params)
	if err != nil {
		return nil, err
	}

	children := res.Get("data.children").Array()

	var fresh []*Item
	// Listings are newest-first; walk backwards so callers see items in the
	// order they appeared.
	for i := len(children) - 1; i >= 0; i-- {
		item := parseThing(children[i])
		key := item.Fullname
		if key == "" {
			key = item.ID
		}
		if s.seen[key] {
			continue
		}
		s.mark(key)
		if s.primed {
			fresh = append(fresh, item)
		}
	}

	s.primed = true
	return fresh, nil
}

// ModmailStream polls the subreddit's modmail conversations.
type ModmailStream struct {
	client *Client
	seen   map[string]bool
	order  []string
	primed bool
}

// Modmail streams new modmail conversations.
func (c *Client) Modmail() *ModmailStream {
	return &ModmailStream{client: c, seen: make(map[string]bool)}
}

// Poll fetches recent conversations and returns the unseen ones as items.
func (s *ModmailStream) Poll(ctx context.Context) ([]*Item, error) {
	params := url.Values{
		"entity": {s.client.Subreddit},
		"state":  {"all"},
		"limit":  {"100"},
	}
	res, err := s.client.get(ctx, "/api/mod/conversations", params)
	if err != nil {
		return nil, err
	}

	var fresh []*Item
	for _, id := range res.Get("conversationIds").Array() {
		key := id.String()
		if s.seen[key] {
			continue
		}
		s.markConv(key)
		if !s.primed {
			continue
		}

		conv := res.Get("conversations." + key)
		item := &Item{
			Kind:     KindModmail,
			ID:       key,
			Fullname: key,
			Subject:  conv.Get("subject").String(),
			Subreddit: Subreddit{
				Name: conv.Get("owner.displayName").String(),
			},
		}
		for _, participant := range conv.Get("authors").Array() {
			if !participant.Get("isMod").Bool() {
				item.Author.Name = participant.Get("name").String()
				break
			}
		}
		// The newest message body rides along in the messages blob.
		if msgIDs := conv.Get("objIds").Array(); len(msgIDs) > 0 {
			last := msgIDs[len(msgIDs)-1].Get("id").String()
			item.Body = res.Get("messages." + last + ".bodyMarkdown").String()
		}
		fresh = append(fresh, item)
	}

	s.primed = true
	return fresh, nil
}

func (s *Stream) mark(key string) {
	s.seen[key] = true
	s.order = append(s.order, key)
	if len(s.order) > maxSeen {
		delete(s.seen, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *ModmailStream) markConv(key string) {
	s.seen[key] = true
	s.order = append(s.order, key)
	if len(s.order) > maxSeen {
		delete(s.seen, s.order[0])
		s.order = s.order[1:]
	}
}
