// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rule

import (
	"regexp"
	"strings"
)

// Key is a parsed rule key of the form `[~]name[+name...] [(opt[, opt]...)]`.
// Names joined by `+` form an OR group; the `~` prefix negates the whole key.
type Key struct {
	Negate  bool
	Names   []string
	Options []string
}

var (
	// Options live in the last parenthesized group of lowercase tokens.
	optionsRe = regexp.MustCompile(`.*\(([a-z, \-]+)\)`)
	// The check name is everything before the opening parenthesis.
	nameRe = regexp.MustCompile(`([^\s]*)\s?\(`)
)

// ParseKey splits a rule key into its negation flag, OR-group names and
// option list. The result is deterministic for a given key string.
func ParseKey(key string) Key {
	name := key
	var options []string

	if m := optionsRe.FindStringSubmatch(key); m != nil {
		for _, opt := range strings.Split(m[1], ",") {
			options = append(options, strings.TrimSpace(opt))
		}
		if nm := nameRe.FindStringSubmatch(key); nm != nil {
			name = nm[1]
		}
	}

	parsed := Key{Options: options}
	if strings.HasPrefix(name, "~") {
		parsed.Negate = true
		name = name[1:]
	}
	parsed.Names = strings.Split(name, "+")
	return parsed
}

// HasOption reports whether the key carries the given option.
func (k Key) HasOption(opt string) bool {
	for _, o := range k.Options {
		if o == opt {
			return true
		}
	}
	return false
}
