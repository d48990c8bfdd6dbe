// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rule parses declarative moderation rule documents into normalized
// predicate+action programs. A rule document is a YAML mapping whose keys are
// either meta settings (type, priority, ...), named checks with optional
// comparator options, actions, or scope sub-mappings. Parsing tags every rule
// that relies on a BetterAutoModerator extension with RequiresBAM so the
// supervisor knows which rules it must enforce itself and which ones can be
// handed back to Reddit's built-in AutoModerator.
package rule

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule types understood by the engine.
const (
	TypeAny        = "any"
	TypeSubmission = "submission"
	TypeComment    = "comment"
	TypeModqueue   = "modqueue"
	TypeModmail    = "modmail"
	TypeReport     = "report"
)

// Scope sub-mapping keys. Their dict values become sub-rules at evaluation
// time.
const (
	ScopeAuthor             = "author"
	ScopeParentSubmission   = "parent_submission"
	ScopeParentComment      = "parent_comment"
	ScopeCrosspostAuthor    = "crosspost_author"
	ScopeCrosspostSubreddit = "crosspost_subreddit"
)

var (
	// ErrUnknownStandard reports a `standard:` value outside the canned set.
	ErrUnknownStandard = errors.New("unknown standard")

	// ErrFilterRequiresBAM reports `action: filter` on a rule that only this
	// engine can run. Filtering is something only Reddit's AutoModerator can do.
	ErrFilterRequiresBAM = errors.New("filter actions cannot be run by BAM")

	// ErrStandardRequiresBAM reports a `standard:` key on a rule that only
	// this engine can run. Standards are not supported by BAM.
	ErrStandardRequiresBAM = errors.New("standards are not supported by BAM")
)

// ParseError is a rule-parse failure carrying the offending document. The
// remaining documents of a rule page still load.
type ParseError struct {
	Doc *Config
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing rule: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Rule is one parsed moderation rule. Immutable after New returns.
type Rule struct {
	// Raw is the source mapping as decoded from YAML.
	Raw *Config
	// Config is the normalized mapping after meta-key extraction and
	// standards expansion.
	Config *Config
	// Type selects which item streams the rule applies to.
	Type string
	// Priority orders rules within a type; higher runs first.
	Priority int
	// RequiresBAM is true when the rule uses any check, action or option
	// Reddit's AutoModerator does not support. Monotonic: parsing only ever
	// flips it to true.
	RequiresBAM bool
}

// bamChecks are check names only this engine implements.
var bamChecks = map[string]bool{
	"is_banned":         true,
	"combined_karma":    true,
	"reports":           true,
	"is_edited":         true,
	"crosspost_id":      true,
	"crosspost_title":   true,
	"media_author":      true,
	"media_author_url":  true,
	"media_title":       true,
	"media_description": true,
}

// bamActions are action keys only this engine implements.
var bamActions = map[string]bool{
	"log":                  true,
	"comment":              true,
	"reply":                true,
	"message":              true,
	"modmail":              true,
	"set_flair":            true,
	"set_sticky":           true,
	"set_locked":           true,
	"set_nsfw":             true,
	"set_spoiler":          true,
	"set_contest_mode":     true,
	"set_original_content": true,
	"set_suggested_sort":   true,
}

// bamScopes are scope sub-mappings only this engine evaluates. `author` and
// `parent_submission` exist upstream and are excluded.
var bamScopes = map[string]bool{
	ScopeParentComment:      true,
	ScopeCrosspostAuthor:    true,
	ScopeCrosspostSubreddit: true,
}

// scopeKeys is the full scope selector set.
var scopeKeys = map[string]bool{
	ScopeAuthor:             true,
	ScopeParentSubmission:   true,
	ScopeParentComment:      true,
	ScopeCrosspostAuthor:    true,
	ScopeCrosspostSubreddit: true,
}

// New builds a Rule from a decoded mapping.
func New(raw *Config) (*Rule, error) {
	r := &Rule{
		Raw:    raw,
		Config: NewConfig(),
		Type:   TypeAny,
	}
	if err := r.parse(raw); err != nil {
		return nil, &ParseError{Doc: raw, Err: err}
	}
	return r, nil
}

// Parse builds a Rule from a single YAML document.
func Parse(doc []byte) (*Rule, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(doc, &node); err != nil {
		return nil, fmt.Errorf("decoding rule document: %w", err)
	}
	cfg, err := configFromNode(&node)
	if err != nil {
		return nil, fmt.Errorf("decoding rule document: %w", err)
	}
	return New(cfg)
}

// Load splits a rules page into `---`-separated documents and parses each
// one. A failing document is reported through errs without stopping the rest
// of the page from loading.
func Load(src string) (rules []*Rule, errs []error) {
	for _, raw := range strings.Split(src, "---") {
		raw = strings.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		r, err := Parse([]byte(raw))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, r)
	}
	return rules, errs
}

func (r *Rule) parse(raw *Config) error {
	for _, key := range raw.Keys() {
		value, _ := raw.Get(key)

		// Meta keys with dedicated parsers mutate the rule directly; every
		// other key lands in Config verbatim.
		switch key {
		case "type":
			if s, ok := value.(string); ok {
				r.Type = s
			}
			if r.Type == TypeModmail || r.Type == TypeReport {
				r.flagBAM()
			}
			continue
		case "priority":
			r.Priority = toInt(value)
			continue
		case "ignore_reports":
			if isTrue(value) {
				r.Config.Set("ignore_reports", true)
				r.flagBAM()
			}
			continue
		case "log":
			r.Config.Set("log", value)
			r.flagBAM()
			continue
		case "is_banned":
			r.Config.Set("is_banned", value)
			r.flagBAM()
			continue
		case "bam":
			// `bam: true` forces a rule to be run by this engine, which is
			// handy for testing. The flag never clears once set.
			if isTrue(value) {
				r.flagBAM()
			}
			continue
		}

		if scopeKeys[key] {
			if bamScopes[key] {
				r.flagBAM()
			}
			if sub, ok := value.(*Config); ok {
				// Parse the sub-mapping as its own rule so extensions inside
				// a scope propagate RequiresBAM, then keep the raw mapping:
				// evaluation builds a fresh sub-rule from it each time.
				nested, err := New(sub)
				if err != nil {
					return err
				}
				if nested.RequiresBAM {
					r.flagBAM()
				}
			}
			r.Config.Set(key, value)
			continue
		}

		parsed := ParseKey(key)
		for _, name := range parsed.Names {
			if bamChecks[name] || bamActions[name] {
				r.flagBAM()
			}
		}
		r.Config.Set(key, value)
	}

	if err := r.setStandards(); err != nil {
		return err
	}

	if action, ok := r.Config.Get("action"); r.RequiresBAM && ok && action == "filter" {
		return ErrFilterRequiresBAM
	}

	return nil
}

// setStandards expands the `standard:` key into its canned check entries.
func (r *Rule) setStandards() error {
	value, ok := r.Config.Get("standard")
	if !ok {
		return nil
	}
	name, _ := value.(string)

	if r.RequiresBAM {
		return fmt.Errorf("%w: %q", ErrStandardRequiresBAM, name)
	}

	entries, ok := standards[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStandard, name)
	}
	for _, entry := range entries {
		r.Config.Set(entry.key, entry.value)
	}
	return nil
}

// flagBAM marks the rule as one only this engine can run. Monotonic.
func (r *Rule) flagBAM() {
	r.RequiresBAM = true
}

// IsPriority reports whether the rule's action puts it in the run-first
// group.
func (r *Rule) IsPriority() bool {
	action, ok := r.Config.Get("action")
	if !ok {
		return false
	}
	switch action {
	case "remove", "spam", "filter":
		return true
	}
	return false
}

// Sort orders rules for evaluation: priority-action rules first, then by
// descending numeric priority. The sort is stable so declaration order breaks
// ties.
func Sort(rules []*Rule) []*Rule {
	sorted := make([]*Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].IsPriority(), sorted[j].IsPriority()
		if pi != pj {
			return pi
		}
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}

// ToAutoModerator renders the rule in the YAML dialect Reddit's AutoModerator
// understands: the normalized config plus the derived priority and type keys,
// in block style.
func (r *Rule) ToAutoModerator() (string, error) {
	out := r.Config.Clone()
	out.Set("priority", r.Priority)
	out.Set("type", r.Type)

	data, err := yaml.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("rendering rule: %w", err)
	}
	return string(data), nil
}

// isTrue is YAML-ish truthiness for meta flags.
func isTrue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	}
	return false
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return 0
}
