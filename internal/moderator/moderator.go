// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package moderator is the rule evaluation engine. A Moderator wraps one
// streamed item and decides, rule by rule, whether the item matches and what
// effects to apply. Checks and actions are looked up in per-kind registries;
// comparators are pure predicates; all site access goes through the Site
// interface.
package moderator

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/josephwegner/better-auto-moderator/internal/logging"
	"github.com/josephwegner/better-auto-moderator/internal/reddit"
	"github.com/josephwegner/better-auto-moderator/internal/rule"
)

// moderatorsExemptActions are the actions that exempt subreddit moderators
// by default. A rule can override with an explicit `moderators_exempt` key.
var moderatorsExemptActions = map[string]bool{
	"remove": true,
	"report": true,
	"spam":   true,
	"filter": true,
}

// thresholdChecks are the key names eligible for `satisfy_any_threshold`
// OR-grouping.
var thresholdChecks = map[string]bool{
	"comment_karma":         true,
	"post_karma":            true,
	"combined_karma":        true,
	"account_age":           true,
	"satisfy_any_threshold": true,
}

// Moderator evaluates rules against one item. Evaluation is side-effect-free
// apart from populating the match record; Act applies the matched rule's
// effects through the Site.
type Moderator struct {
	item    *reddit.Item
	site    Site
	checks  Checks
	actions Actions
	// authorScope is the author check table sub-rules under `author` use;
	// comments widen it with is_submitter.
	authorScope Checks
	// defaultExempt controls whether remove/report/spam/filter actions imply
	// moderator exemption. Modqueue rules only exempt explicitly.
	defaultExempt bool

	matches *MatchRecord
	log     *log.Entry

	// Memoized site lookups, valid for the lifetime of this evaluation set.
	profile        *reddit.Profile
	flair          *reddit.UserFlair
	crosspost      *reddit.Item
	crosspostDone  bool
	submission     *reddit.Item
	submissionDone bool
	parent         *reddit.Item
	parentDone     bool
	srAbout        *reddit.Subreddit
}

// NewPost builds a moderator for a submission.
func NewPost(item *reddit.Item, site Site) *Moderator {
	return newModerator(item, site, postChecks(), postActions(), authorChecks(), true)
}

// NewComment builds a moderator for a comment.
func NewComment(item *reddit.Item, site Site) *Moderator {
	return newModerator(item, site, commentChecks(), commentActions(), commentAuthorChecks(), true)
}

// NewModqueue builds a moderator for a modqueue entry. Modqueue rules have no
// default moderator exemption and match mostly on report reasons.
func NewModqueue(item *reddit.Item, site Site) *Moderator {
	return newModerator(item, site, modqueueChecks(), commonActions(), authorChecks(), false)
}

// NewModmail builds a moderator for a modmail conversation.
func NewModmail(item *reddit.Item, site Site) *Moderator {
	return newModerator(item, site, modmailChecks(), modmailActions(), authorChecks(), true)
}

// ForItem picks the moderator dialect matching the item's kind, for streams
// that mix kinds (modqueue uses NewModqueue instead).
func ForItem(item *reddit.Item, site Site) *Moderator {
	switch item.Kind {
	case reddit.KindComment:
		return NewComment(item, site)
	case reddit.KindModmail:
		return NewModmail(item, site)
	}
	return NewPost(item, site)
}

func newModerator(item *reddit.Item, site Site, checks Checks, actions Actions, author Checks, defaultExempt bool) *Moderator {
	return &Moderator{
		item:          item,
		site:          site,
		checks:        checks,
		actions:       actions,
		authorScope:   author,
		defaultExempt: defaultExempt,
		matches:       NewMatchRecord(),
		log:           log.NewEntry(log.StandardLogger()),
	}
}

// WithEvalID tags every log line of this evaluation with a trace id.
func (m *Moderator) WithEvalID(id string) *Moderator {
	m.log = log.WithField(logging.EvalIDKey, id)
	return m
}

// Item returns the wrapped item.
func (m *Moderator) Item() *reddit.Item {
	return m.item
}

// Matches exposes the match record, mostly for placeholders and tests.
func (m *Moderator) Matches() *MatchRecord {
	return m.matches
}

// moderatorsExempt reports whether the rule exempts subreddit moderators:
// implied by the remove/report/spam/filter actions, overridden by an explicit
// key.
func (m *Moderator) moderatorsExempt(r *rule.Rule) bool {
	exempt := false
	if action, ok := r.Config.Get("action"); ok {
		if s, isStr := action.(string); isStr && m.defaultExempt && moderatorsExemptActions[s] {
			exempt = true
		}
	}
	if v, ok := r.Config.Get("moderators_exempt"); ok {
		exempt = v == true
	}
	return exempt
}

// Moderate runs one rule against the item: the moderator-exemption gate, the
// checks, and on match the actions. It returns whether the rule matched and
// whether any action ran.
func (m *Moderator) Moderate(ctx context.Context, r *rule.Rule) (matched, ran bool) {
	if m.moderatorsExempt(r) {
		mods, err := m.site.UserModerates(ctx, m.item.Author.Name)
		if err != nil {
			m.log.Warnf("moderator lookup for %s failed, skipping rule: %v", m.item.Author.Name, err)
			return false, false
		}
		if mods {
			return false, false
		}
	}

	if !m.Check(ctx, r) {
		return false, false
	}

	return true, m.Act(ctx, r)
}

// Check evaluates the rule's check keys against the item.
func (m *Moderator) Check(ctx context.Context, r *rule.Rule) bool {
	return m.checkWith(ctx, r, m.checks)
}

// checkWith walks the rule's keys in declared order against a specific check
// table. Sub-scope keys recurse with the scope's own table.
func (m *Moderator) checkWith(ctx context.Context, r *rule.Rule, checks Checks) bool {
	satisfyAny := false
	if v, ok := r.Config.Get("satisfy_any_threshold"); ok {
		satisfyAny = v == true
	}
	satisfiedThreshold := false

	for _, key := range r.Config.Keys() {
		value, _ := r.Config.Get(key)
		parsed := rule.ParseKey(key)
		// Threshold eligibility is decided on the whole (un-split) name.
		joined := strings.Join(parsed.Names, "+")

		// Keep only names this scope knows: declared checks and scope
		// selectors. Unknown names inside an OR group are ignored; a key
		// with no known names is skipped entirely.
		var names []string
		for _, name := range parsed.Names {
			if _, ok := checks[name]; ok {
				names = append(names, name)
				continue
			}
			if _, ok := scopeKinds[name]; ok {
				names = append(names, name)
			}
		}
		if len(names) == 0 && joined != "satisfy_any_threshold" {
			continue
		}

		matched := false
		forcedFail := false
		for _, name := range names {
			if _, isScope := scopeKinds[name]; isScope {
				res, ok := m.checkScope(ctx, name, value)
				if !ok {
					// Inapplicable sub-scope: the key fails regardless of
					// negation.
					forcedFail = true
					continue
				}
				if res {
					matched = true
				}
				continue
			}

			chk := checks[name]
			values, isList := listValues(value)
			if !isList {
				values = []any{value}
			}

			for _, v := range values {
				v = m.replacePlaceholders(ctx, v)

				got, err := chk.Run(ctx, m, r, parsed.Options)
				m.matches.Set(name, got)
				if err != nil {
					m.log.Warnf("check %s failed, rule does not match: %v", name, err)
					return false
				}
				if chk.Skippable && got == chk.SkipIf {
					return false
				}

				cmp, err := resolveComparator(chk.Default, parsed.Options)
				if err != nil {
					m.log.Errorf("check %s: %v", name, err)
					return false
				}
				opts := parsed.Options
				if len(chk.Implied) > 0 {
					opts = append(append([]string{}, opts...), chk.Implied...)
				}
				ok, err := cmp(got, v, opts)
				if err != nil {
					m.log.Errorf("check %s: %v", name, err)
					return false
				}
				if ok {
					matched = true
				}
			}
		}

		passed := !forcedFail && matched == !parsed.Negate
		if !passed && (!satisfyAny || !thresholdChecks[joined]) {
			return false
		}
		if passed && satisfyAny && thresholdChecks[joined] {
			satisfiedThreshold = true
		}
	}

	if satisfyAny {
		return satisfiedThreshold
	}
	return true
}

// Act runs the matched rule's action keys in declared order and reports
// whether any action ran.
func (m *Moderator) Act(ctx context.Context, r *rule.Rule) bool {
	return m.actWith(ctx, r, m.actions)
}

func (m *Moderator) actWith(ctx context.Context, r *rule.Rule, actions Actions) bool {
	ran := false
	for _, key := range r.Config.Keys() {
		action, ok := actions[key]
		if !ok {
			continue
		}
		value, _ := r.Config.Get(key)
		value = m.replacePlaceholders(ctx, value)

		did, err := action(ctx, m, r, value)
		if err != nil {
			m.log.Errorf("action %s failed: %v", key, err)
			continue
		}
		if did {
			ran = true
		}
	}
	return ran
}

// scopeKinds names the sub-scope selectors; scopeTarget resolves each one.
var scopeKinds = map[string]struct{}{
	rule.ScopeAuthor:             {},
	rule.ScopeParentSubmission:   {},
	rule.ScopeParentComment:      {},
	rule.ScopeCrosspostAuthor:    {},
	rule.ScopeCrosspostSubreddit: {},
}

// checkScope evaluates a dict-valued scope key as a sub-rule. ok=false means
// the scope does not apply to this item (for example parent_comment on a
// top-level comment) and the key must fail.
func (m *Moderator) checkScope(ctx context.Context, name string, value any) (result, ok bool) {
	cfg, isCfg := value.(*rule.Config)
	if !isCfg {
		return false, false
	}
	sub, err := rule.New(cfg)
	if err != nil {
		m.log.Warnf("scope %s: %v", name, err)
		return false, false
	}

	target, checks, ok := m.scopeTarget(ctx, name)
	if !ok {
		return false, false
	}
	return target.checkWith(ctx, sub, checks), true
}

// scopeTarget resolves the sub-moderator and check table for a scope
// selector. The author scope reuses the current item; the parent and
// crosspost scopes wrap the related item.
func (m *Moderator) scopeTarget(ctx context.Context, name string) (*Moderator, Checks, bool) {
	switch name {
	case rule.ScopeAuthor:
		return m, m.authorScope, true

	case rule.ScopeParentSubmission:
		parent, err := m.parentSubmission(ctx)
		if err != nil {
			m.log.Warnf("parent_submission lookup failed: %v", err)
			return nil, nil, false
		}
		if parent == nil {
			return nil, nil, false
		}
		sub := m.derive(parent, postChecks(), postActions(), authorChecks())
		return sub, sub.checks, true

	case rule.ScopeParentComment:
		parent, err := m.parentComment(ctx)
		if err != nil {
			m.log.Warnf("parent_comment lookup failed: %v", err)
			return nil, nil, false
		}
		if parent == nil {
			return nil, nil, false
		}
		sub := m.derive(parent, commentChecks(), commentActions(), commentAuthorChecks())
		return sub, sub.checks, true

	case rule.ScopeCrosspostAuthor:
		parent, err := m.crosspostParent(ctx)
		if err != nil {
			m.log.Warnf("crosspost parent lookup failed: %v", err)
			return nil, nil, false
		}
		if parent == nil {
			return nil, nil, false
		}
		sub := m.derive(parent, postChecks(), postActions(), authorChecks())
		return sub, sub.authorScope, true

	case rule.ScopeCrosspostSubreddit:
		parent, err := m.crosspostParent(ctx)
		if err != nil {
			m.log.Warnf("crosspost parent lookup failed: %v", err)
			return nil, nil, false
		}
		if parent == nil {
			return nil, nil, false
		}
		sub := m.derive(parent, crosspostSubredditChecks(), Actions{}, authorChecks())
		return sub, sub.checks, true
	}
	return nil, nil, false
}

// derive builds a sub-moderator over a related item, sharing the site, the
// match record and the evaluation logger.
func (m *Moderator) derive(item *reddit.Item, checks Checks, actions Actions, author Checks) *Moderator {
	return &Moderator{
		item:          item,
		site:          m.site,
		checks:        checks,
		actions:       actions,
		authorScope:   author,
		defaultExempt: m.defaultExempt,
		matches:       m.matches,
		log:           m.log,
	}
}

// --- Memoized site lookups -------------------------------------------------

func (m *Moderator) authorProfile(ctx context.Context) (*reddit.Profile, error) {
	if m.profile != nil {
		return m.profile, nil
	}
	profile, err := m.site.AboutUser(ctx, m.item.Author.Name)
	if err != nil {
		return nil, err
	}
	m.profile = profile
	return profile, nil
}

func (m *Moderator) authorFlair(ctx context.Context) (*reddit.UserFlair, error) {
	if m.flair != nil {
		return m.flair, nil
	}
	flair, err := m.site.UserFlair(ctx, m.item.Author.Name)
	if err != nil {
		return nil, err
	}
	m.flair = flair
	return flair, nil
}

// crosspostParent fetches the submission this item is a crosspost of, or nil.
func (m *Moderator) crosspostParent(ctx context.Context) (*reddit.Item, error) {
	if m.crosspostDone {
		return m.crosspost, nil
	}
	if !m.item.IsCrosspost() {
		m.crosspostDone = true
		return nil, nil
	}
	parent, err := m.site.Fetch(ctx, m.item.CrosspostParent)
	if err != nil {
		return nil, err
	}
	m.crosspost = parent
	m.crosspostDone = true
	return parent, nil
}

// parentSubmission fetches the submission a comment belongs to, or nil for
// non-comments.
func (m *Moderator) parentSubmission(ctx context.Context) (*reddit.Item, error) {
	if m.submissionDone {
		return m.submission, nil
	}
	if m.item.Kind != reddit.KindComment || m.item.LinkID == "" {
		m.submissionDone = true
		return nil, nil
	}
	parent, err := m.site.Fetch(ctx, m.item.LinkID)
	if err != nil {
		return nil, err
	}
	m.submission = parent
	m.submissionDone = true
	return parent, nil
}

// parentComment fetches the comment a reply answers, or nil at the top
// level.
func (m *Moderator) parentComment(ctx context.Context) (*reddit.Item, error) {
	if m.parentDone {
		return m.parent, nil
	}
	prefix, _ := reddit.SplitFullname(m.item.ParentID)
	if m.item.Kind != reddit.KindComment || prefix != "t1" {
		m.parentDone = true
		return nil, nil
	}
	parent, err := m.site.Fetch(ctx, m.item.ParentID)
	if err != nil {
		return nil, err
	}
	m.parent = parent
	m.parentDone = true
	return parent, nil
}

func (m *Moderator) subredditAbout(ctx context.Context) (*reddit.Subreddit, error) {
	if m.srAbout != nil {
		return m.srAbout, nil
	}
	about, err := m.site.AboutSubreddit(ctx, m.item.Subreddit.Name)
	if err != nil {
		return nil, err
	}
	m.srAbout = about
	return about, nil
}
