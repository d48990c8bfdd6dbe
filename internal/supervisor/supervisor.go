// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package supervisor owns the polling loop: it keeps the rule set fresh from
// the subreddit wiki (or a local file), multiplexes the item streams, and
// hands each drained item to the evaluation engine. Concurrency lives here;
// the engine below it is synchronous.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/josephwegner/better-auto-moderator/internal/config"
	"github.com/josephwegner/better-auto-moderator/internal/logging"
	"github.com/josephwegner/better-auto-moderator/internal/moderator"
	"github.com/josephwegner/better-auto-moderator/internal/reddit"
	"github.com/josephwegner/better-auto-moderator/internal/rule"
	"github.com/josephwegner/better-auto-moderator/internal/status"
)

// Wiki page names.
const (
	ConfigPage    = "better_auto_moderator"
	RulesPage     = "better_auto_moderator/rules"
	AutomodPage   = "config/automoderator"
	reloadEvery   = 5
	defaultPeriod = 2500 * time.Millisecond
)

const banner = `
Good day, dear reddit moderator! I hope that your day is filled with ample updoots and gold!
If you're not already aware, the configuration for BetterAutoModerator can be found in your
subreddit's wiki, under the /better_auto_moderator path. Have a good one!
`

const configPageContent = `    # This is a page created by [BetterAutoModerator](https://github.com/josephwegner/better-auto-moderator)
    # This page contains top-level configurations for BAM - editing this page will modify how BAM behaves
    # If you want to edit a specific rule, check out the better_auto_moderator/rules wiki page

    # If set to true, BAM will overwrite /config/automoderator with any rules that can be run by
    # Reddit's AutoModerator. BAM will *not* run those rules, and instead let AutoModerator handle them entirely
    #
    # NOTE: Backup your automoderator config before turning this on, as it will be lost.
    # It should be saved in revisions, but be safe.
    overwrite_automoderator: true
`

const rulesPageContent = `    # This is a page created by [BetterAutoModerator](https://github.com/josephwegner/better-auto-moderator)
    # This page contains all of the BetterAutoModerator rules. If you need to edit top-level
    # BAM configurations, check out the wiki page above this one.


    # This is an example rule, it doesn't really do anything
    type: modqueue
    report_reason (includes): BAM
    log: "Got a BAM report!"

    ---
`

const automodPageBanner = `# This subreddit is using BetterAutoModerator, which means that this auto_moderator config has been automatically generated.
# It is NOT a good idea to edit this page directly - it will just get overwritten by BAM later. If you want to add or edit
# existing rules, please go to the better_auto_moderator/rules wiki page and work there. Changes will get moved here automatically.

`

// streamBinding joins one item stream to the sorted rules it applies and the
// moderator dialect for its items.
type streamBinding struct {
	name  string
	poll  func(ctx context.Context) ([]*reddit.Item, error)
	build func(item *reddit.Item, site moderator.Site) *moderator.Moderator
	rules []*rule.Rule
}

// Supervisor drives the poll/evaluate/dispatch loop for one subreddit.
type Supervisor struct {
	client *reddit.Client
	site   moderator.Site
	status *status.Server

	// RulesFile switches the supervisor into local mode: rules load from
	// this YAML file (hot-reloaded via fsnotify) instead of the wiki.
	RulesFile string
	// Period is the sleep between polling rounds.
	Period time.Duration

	streams       []streamBinding
	lastRulesRev  float64
	lastConfigRev float64
	round         int
	fileDirty     chan struct{}
}

// New builds a supervisor over an authenticated client.
func New(client *reddit.Client, statusSrv *status.Server) *Supervisor {
	return &Supervisor{
		client:    client,
		site:      client,
		status:    statusSrv,
		Period:    defaultPeriod,
		fileDirty: make(chan struct{}, 1),
	}
}

// Run loops until the context is canceled. Every fifth round the rule set is
// re-checked; a changed local rules file triggers an immediate reload.
func (s *Supervisor) Run(ctx context.Context) error {
	log.Info(banner)

	if s.RulesFile != "" {
		watcher, err := s.watchRulesFile(ctx)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	for {
		if s.round == 0 {
			if err := s.reload(ctx); err != nil {
				if s.streams == nil {
					// The very first load failing is a startup error; with a
					// working rule set already installed it is just a round
					// to retry later.
					return err
				}
				log.Warnf("Rule reload failed, keeping previous rules: %v", err)
			}
		}

		s.drain(ctx)
		s.round = (s.round + 1) % reloadEvery

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.fileDirty:
			s.round = 0
		case <-time.After(s.Period):
		}
	}
}

// watchRulesFile wires fsnotify so edits to the local rules file wake the
// loop for a reload.
func (s *Supervisor) watchRulesFile(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watching rules file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.RulesFile)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching rules file: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.RulesFile {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case s.fileDirty <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("Rules file watcher: %v", err)
			}
		}
	}()

	return watcher, nil
}

// reload refreshes the rule set from the wiki or the local file.
func (s *Supervisor) reload(ctx context.Context) error {
	if s.RulesFile != "" {
		return s.reloadFromFile()
	}
	return s.reloadFromWiki(ctx)
}

func (s *Supervisor) reloadFromFile() error {
	raw, err := os.ReadFile(s.RulesFile)
	if err != nil {
		return fmt.Errorf("reading rules file: %w", err)
	}

	rules, errs := rule.Load(string(raw))
	for _, e := range errs {
		log.Errorf("Skipping bad rule: %v", e)
	}
	if len(rules) == 0 && len(errs) > 0 {
		return fmt.Errorf("rules file %s contains no loadable rules", s.RulesFile)
	}

	log.Infof("Applying %d rules from %s", len(rules), s.RulesFile)
	s.installRules(rules)
	return nil
}

func (s *Supervisor) reloadFromWiki(ctx context.Context) error {
	log.Info("Checking for new rules...")

	rulesPage, configPage, err := s.fetchPages(ctx)
	if err != nil {
		return err
	}

	if rulesPage.RevisionDate <= s.lastRulesRev && configPage.RevisionDate <= s.lastConfigRev {
		log.Info("Old rules still apply!")
		return nil
	}
	s.lastRulesRev = rulesPage.RevisionDate
	s.lastConfigRev = configPage.RevisionDate

	top, err := config.ParseTop(config.StripWikiIndent(configPage.Content))
	if err != nil {
		return err
	}

	rules, errs := rule.Load(config.StripWikiIndent(rulesPage.Content))
	for _, e := range errs {
		log.Errorf("Skipping bad rule: %v", e)
	}

	log.Info("Applying new rules...")
	if top.OverwriteAutomoderator {
		if err := s.pushAutomod(ctx, rules); err != nil {
			log.Errorf("Pushing AutoModerator config failed: %v", err)
		} else {
			rules = BAMOnly(rules)
		}
	}

	s.installRules(rules)
	return nil
}

// fetchPages loads both wiki pages, creating and locking them on first use.
func (s *Supervisor) fetchPages(ctx context.Context) (rulesPage, configPage *reddit.WikiPage, err error) {
	configPage, err = s.client.WikiPage(ctx, ConfigPage)
	if errors.Is(err, reddit.ErrWikiPageNotFound) {
		log.Info("Creating BAM config page")
		if err = s.createPage(ctx, ConfigPage, configPageContent); err != nil {
			return nil, nil, err
		}
		configPage, err = s.client.WikiPage(ctx, ConfigPage)
	}
	if err != nil {
		return nil, nil, err
	}

	rulesPage, err = s.client.WikiPage(ctx, RulesPage)
	if errors.Is(err, reddit.ErrWikiPageNotFound) {
		log.Info("Creating BAM rules page")
		if err = s.createPage(ctx, RulesPage, rulesPageContent); err != nil {
			return nil, nil, err
		}
		rulesPage, err = s.client.WikiPage(ctx, RulesPage)
	}
	if err != nil {
		return nil, nil, err
	}

	return rulesPage, configPage, nil
}

func (s *Supervisor) createPage(ctx context.Context, name, content string) error {
	if err := s.client.WikiEdit(ctx, name, content, "BAM Setup"); err != nil {
		return err
	}
	return s.client.WikiLock(ctx, name)
}

// pushAutomod renders every rule AutoModerator can run and writes the result
// to config/automoderator.
func (s *Supervisor) pushAutomod(ctx context.Context, rules []*rule.Rule) error {
	content, err := RenderAutomodPage(rules)
	if err != nil {
		return err
	}
	log.Info("Updating automod config...")
	return s.client.WikiEdit(ctx, AutomodPage, content, "BetterAutoModerator push")
}

// RenderAutomodPage dumps the non-BAM rules in AutoModerator's YAML dialect,
// joined by document separators, under the generated-page banner.
func RenderAutomodPage(rules []*rule.Rule) (string, error) {
	var rendered []string
	for _, r := range rules {
		if r.RequiresBAM {
			continue
		}
		doc, err := r.ToAutoModerator()
		if err != nil {
			return "", err
		}
		rendered = append(rendered, doc)
	}
	return automodPageBanner + strings.Join(rendered, "\n---\n\n"), nil
}

// BAMOnly filters to the rules this engine must enforce itself.
func BAMOnly(rules []*rule.Rule) []*rule.Rule {
	var out []*rule.Rule
	for _, r := range rules {
		if r.RequiresBAM {
			out = append(out, r)
		}
	}
	return out
}

// BucketByType groups rules per stream type. `any` rules apply to both the
// submission and the comment streams.
func BucketByType(rules []*rule.Rule) map[string][]*rule.Rule {
	buckets := make(map[string][]*rule.Rule)
	for _, r := range rules {
		switch r.Type {
		case rule.TypeAny:
			buckets[rule.TypeSubmission] = append(buckets[rule.TypeSubmission], r)
			buckets[rule.TypeComment] = append(buckets[rule.TypeComment], r)
		default:
			buckets[r.Type] = append(buckets[r.Type], r)
		}
	}
	return buckets
}

// installRules swaps in a fresh rule snapshot and rebuilds the streams.
func (s *Supervisor) installRules(rules []*rule.Rule) {
	if s.status != nil {
		s.status.SetRules(rules)
	}

	buckets := BucketByType(rules)
	var streams []streamBinding

	if byType := rule.Sort(buckets[rule.TypeSubmission]); len(byType) > 0 {
		log.Info("Listening to submission stream...")
		streams = append(streams,
			streamBinding{name: "submissions", poll: s.client.Submissions().Poll, build: moderator.NewPost, rules: byType},
			streamBinding{name: "edited submissions", poll: s.client.EditedSubmissions().Poll, build: moderator.NewPost, rules: byType},
		)
	}
	if byType := rule.Sort(buckets[rule.TypeComment]); len(byType) > 0 {
		log.Info("Listening to comment stream...")
		streams = append(streams,
			streamBinding{name: "comments", poll: s.client.Comments().Poll, build: moderator.NewComment, rules: byType},
			streamBinding{name: "edited comments", poll: s.client.EditedComments().Poll, build: moderator.NewComment, rules: byType},
		)
	}
	if byType := rule.Sort(buckets[rule.TypeModqueue]); len(byType) > 0 {
		log.Info("Listening to modqueue stream...")
		streams = append(streams, streamBinding{name: "modqueue", poll: s.client.Modqueue().Poll, build: moderator.NewModqueue, rules: byType})
	}
	if byType := rule.Sort(buckets[rule.TypeReport]); len(byType) > 0 {
		log.Info("Listening to reports stream...")
		streams = append(streams, streamBinding{name: "reports", poll: s.client.Reports().Poll, build: moderator.NewModqueue, rules: byType})
	}
	if byType := rule.Sort(buckets[rule.TypeModmail]); len(byType) > 0 {
		log.Info("Listening to modmail stream...")
		streams = append(streams, streamBinding{name: "modmail", poll: s.client.Modmail().Poll, build: moderator.NewModmail, rules: byType})
	}

	s.streams = streams
}

// drain polls every stream once and evaluates whatever came out.
func (s *Supervisor) drain(ctx context.Context) {
	for i := range s.streams {
		binding := &s.streams[i]
		items, err := binding.poll(ctx)
		if err != nil {
			log.Warnf("Polling %s failed: %v", binding.name, err)
			continue
		}
		for _, item := range items {
			s.process(ctx, binding, item)
		}
	}
}

// process evaluates the stream's rules against one item, stopping at the
// first match.
func (s *Supervisor) process(ctx context.Context, binding *streamBinding, item *reddit.Item) {
	evalID := uuid.NewString()[:8]
	entry := log.WithField(logging.EvalIDKey, evalID)
	entry.Infof("Processing %s %s", item.Kind, item.ID)

	mod := binding.build(item, s.site).WithEvalID(evalID)
	for _, r := range binding.rules {
		matched, _ := mod.Moderate(ctx, r)
		if matched {
			break
		}
	}
}
