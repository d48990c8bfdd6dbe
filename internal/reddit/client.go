// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reddit is the site API collaborator: an OAuth2 script-app session
// over Reddit's JSON API, with retrying transport, listing streams, wiki
// access and the moderation endpoints the action dispatcher needs.
package reddit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	tokenURL = "https://www.reddit.com/api/v1/access_token"
	oauthAPI = "https://oauth.reddit.com"
)

// Credentials identify a Reddit script app and the account it runs as.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Subreddit    string
}

// Client is a session against one subreddit. All methods are safe for use
// from the single supervisor goroutine; the underlying transport handles
// retries with exponential backoff.
type Client struct {
	http      *httpclient.Client
	base      string
	userAgent string

	// Subreddit is the community this session moderates.
	Subreddit string
	// Username is the account the bot runs as.
	Username string
}

// passwordTokenSource re-runs the password grant when the access token
// expires; script-app tokens have no refresh token.
type passwordTokenSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	return s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

// userAgentTransport stamps every request with the bot's user agent, which
// Reddit requires for rate-limit accounting.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}

// NewClient authenticates with the password grant and returns a session for
// the credential's subreddit.
func NewClient(ctx context.Context, creds Credentials, userAgent string) (*Client, error) {
	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	source := &passwordTokenSource{ctx: ctx, conf: conf, username: creds.Username, password: creds.Password}
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("authenticating as %s: %w", creds.Username, err)
	}

	authed := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(token, source),
			Base:   &userAgentTransport{agent: userAgent, next: http.DefaultTransport},
		},
		Timeout: 30 * time.Second,
	}

	backoff := heimdall.NewExponentialBackoff(500*time.Millisecond, 25*time.Second, 2.0, 2*time.Millisecond)
	retrying := httpclient.NewClient(
		httpclient.WithHTTPClient(authed),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(2),
	)

	return &Client{
		http:      retrying,
		base:      oauthAPI,
		userAgent: userAgent,
		Subreddit: creds.Subreddit,
		Username:  creds.Username,
	}, nil
}

// APIError is a non-2xx response from Reddit.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("raw_json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+params.Encode(), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.do(req)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (gjson.Result, error) {
	form.Set("api_type", "json")
	form.Set("raw_json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, body string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, strings.NewReader(body))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (gjson.Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reddit: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reddit: reading %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(payload)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return gjson.Result{}, &APIError{StatusCode: resp.StatusCode, Path: req.URL.Path, Body: snippet}
	}

	return gjson.ParseBytes(payload), nil
}

// subPath prefixes a path with the session's subreddit.
func (c *Client) subPath(rest string) string {
	return "/r/" + c.Subreddit + rest
}

// --- Lookups ---------------------------------------------------------------

// AboutUser loads a user's profile.
func (c *Client) AboutUser(ctx context.Context, name string) (*Profile, error) {
	res, err := c.get(ctx, "/user/"+url.PathEscape(name)+"/about", nil)
	if err != nil {
		return nil, err
	}
	return parseProfile(res.Get("data")), nil
}

// AboutSubreddit loads a subreddit's metadata.
func (c *Client) AboutSubreddit(ctx context.Context, name string) (*Subreddit, error) {
	res, err := c.get(ctx, "/r/"+url.PathEscape(name)+"/about", nil)
	if err != nil {
		return nil, err
	}
	return parseSubreddit(res.Get("data")), nil
}

// UserFlair returns the user's flair in the session subreddit.
func (c *Client) UserFlair(ctx context.Context, name string) (*UserFlair, error) {
	params := url.Values{"name": {name}}
	res, err := c.get(ctx, c.subPath("/api/flairlist"), params)
	if err != nil {
		return nil, err
	}

	flair := &UserFlair{}
	user := res.Get("users.0")
	if text := user.Get("flair_text"); text.Exists() && text.Type != gjson.Null {
		s := text.String()
		flair.Text = &s
	}
	if css := user.Get("flair_css_class"); css.Exists() && css.Type != gjson.Null {
		s := css.String()
		flair.CSSClass = &s
	}
	return flair, nil
}

// UserFlairTemplate returns the id of the user's current flair template, or
// an empty string when none is selected.
func (c *Client) UserFlairTemplate(ctx context.Context, name string) (string, error) {
	form := url.Values{"name": {name}}
	res, err := c.postForm(ctx, c.subPath("/api/flairselector"), form)
	if err != nil {
		return "", err
	}
	return res.Get("current.flair_template_id").String(), nil
}

// relationship checks one of the subreddit's user lists for a name.
func (c *Client) relationship(ctx context.Context, list, name string) (bool, error) {
	params := url.Values{"user": {name}}
	res, err := c.get(ctx, c.subPath("/about/"+list), params)
	if err != nil {
		return false, err
	}
	return len(res.Get("data.children").Array()) > 0, nil
}

// IsContributor reports whether the user is an approved submitter.
func (c *Client) IsContributor(ctx context.Context, name string) (bool, error) {
	return c.relationship(ctx, "contributors", name)
}

// IsModerator reports whether the user moderates the session subreddit.
func (c *Client) IsModerator(ctx context.Context, name string) (bool, error) {
	return c.relationship(ctx, "moderators", name)
}

// IsBanned reports whether the user is banned from the session subreddit.
func (c *Client) IsBanned(ctx context.Context, name string) (bool, error) {
	return c.relationship(ctx, "banned", name)
}

// UserModerates reports whether the user moderates the session subreddit,
// resolved from the user's side so it also works for moderators with hidden
// list entries.
func (c *Client) UserModerates(ctx context.Context, name string) (bool, error) {
	res, err := c.get(ctx, "/user/"+url.PathEscape(name)+"/moderated_subreddits", nil)
	if err != nil {
		return false, err
	}
	for _, sr := range res.Get("data").Array() {
		if strings.EqualFold(sr.Get("sr_display_name").String(), c.Subreddit) {
			return true, nil
		}
	}
	return false, nil
}

// Fetch loads a thing by fullname through /api/info.
func (c *Client) Fetch(ctx context.Context, fullname string) (*Item, error) {
	params := url.Values{"id": {fullname}}
	res, err := c.get(ctx, "/api/info", params)
	if err != nil {
		return nil, err
	}
	children := res.Get("data.children").Array()
	if len(children) == 0 {
		return nil, fmt.Errorf("reddit: no such thing %s", fullname)
	}
	return parseThing(children[0]), nil
}
