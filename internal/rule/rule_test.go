// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *Rule {
	t.Helper()
	r, err := Parse([]byte(doc))
	require.NoError(t, err)
	return r
}

func TestParse_Defaults(t *testing.T) {
	r := mustParse(t, `body: hello`)

	assert.Equal(t, TypeAny, r.Type)
	assert.Equal(t, 0, r.Priority)
	assert.False(t, r.RequiresBAM)

	v, ok := r.Config.Get("body")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestParse_MetaKeys(t *testing.T) {
	r := mustParse(t, "type: submission\npriority: 3\nbody: hi")

	assert.Equal(t, TypeSubmission, r.Type)
	assert.Equal(t, 3, r.Priority)
	assert.False(t, r.Config.Has("type"))
	assert.False(t, r.Config.Has("priority"))
}

func TestParse_RequiresBAM(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want bool
	}{
		{"plain", "body: hi\naction: remove", false},
		{"modmail type", "type: modmail\nbody: hi", true},
		{"report type", "type: report\nbody: hi", true},
		{"ignore_reports", "ignore_reports: true", true},
		{"forced bam", "bam: true\nbody: hi", true},
		{"bam false is not a clear", "bam: false\nlog: hi", true},
		{"log action", "log: matched", true},
		{"reports check", "reports: '>= 2'", true},
		{"is_edited check", "is_edited: true", true},
		{"combined karma in author scope", "author:\n  combined_karma: '> 10'", true},
		{"media check", "media_title (includes): cats", true},
		{"or-group with extension", "body+media_title: cats", true},
		{"parent_comment scope", "parent_comment:\n  body: hi", true},
		{"crosspost scope", "crosspost_subreddit:\n  is_nsfw: true", true},
		{"set_flair action", "body: hi\nset_flair: Helper", true},
		{"author scope alone", "author:\n  comment_karma: '> 10'", false},
		{"parent_submission scope alone", "parent_submission:\n  title: hi", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := mustParse(t, tc.doc)
			assert.Equal(t, tc.want, r.RequiresBAM)
		})
	}
}

func TestParse_FilterRejectedForBAM(t *testing.T) {
	_, err := Parse([]byte("bam: true\naction: filter"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFilterRequiresBAM)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)

	// Plain filter rules are AutoModerator's business and parse fine.
	r := mustParse(t, "action: filter\nbody: hi")
	assert.False(t, r.RequiresBAM)
}

func TestStandards(t *testing.T) {
	r := mustParse(t, "standard: image hosting sites")

	v, ok := r.Config.Get("domain")
	require.True(t, ok)
	domains, ok := v.([]any)
	require.True(t, ok)
	assert.Contains(t, domains, "imgur.com")

	t.Run("regex standard", func(t *testing.T) {
		r := mustParse(t, "standard: direct image links")
		v, ok := r.Config.Get("url (regex)")
		require.True(t, ok)
		assert.Equal(t, `\.(jpe?g|png|gifv?)(\?\S*)?$`, v)
	})

	t.Run("streaming sites exclusion entry", func(t *testing.T) {
		r := mustParse(t, "standard: streaming sites")
		v, ok := r.Config.Get("~domain")
		require.True(t, ok)
		assert.Equal(t, "content.azubu.tv", v)
	})

	t.Run("unknown standard", func(t *testing.T) {
		_, err := Parse([]byte("standard: suspicious sites"))
		assert.ErrorIs(t, err, ErrUnknownStandard)
	})

	t.Run("standards forbidden for BAM rules", func(t *testing.T) {
		_, err := Parse([]byte("bam: true\nstandard: image hosting sites"))
		assert.ErrorIs(t, err, ErrStandardRequiresBAM)
	})
}

func TestSort(t *testing.T) {
	first := Sort([]*Rule{
		mustParse(t, "name: two\npriority: 2"),
		mustParse(t, "name: three\npriority: 1"),
		mustParse(t, "name: one\npriority: 3"),
	})
	assert.Equal(t, "one", configString(first[0], "name"))
	assert.Equal(t, "two", configString(first[1], "name"))
	assert.Equal(t, "three", configString(first[2], "name"))

	second := Sort([]*Rule{
		mustParse(t, "name: four\npriority: 2"),
		mustParse(t, "name: two\npriority: 1\naction: remove"),
		mustParse(t, "name: three\npriority: 5"),
		mustParse(t, "name: one\npriority: 3\naction: remove"),
	})
	assert.Equal(t, "one", configString(second[0], "name"))
	assert.Equal(t, "two", configString(second[1], "name"))
	assert.Equal(t, "three", configString(second[2], "name"))
	assert.Equal(t, "four", configString(second[3], "name"))
}

func configString(r *Rule, key string) string {
	v, _ := r.Config.Get(key)
	s, _ := v.(string)
	return s
}

func TestLoad_SplitsDocumentsAndKeepsGoodRules(t *testing.T) {
	src := `
type: comment
body: hello
action: remove

---

bam: true
action: filter

---

type: submission
title: goodbye
`
	rules, errs := Load(src)
	require.Len(t, rules, 2)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrFilterRequiresBAM)
	assert.Equal(t, TypeComment, rules[0].Type)
	assert.Equal(t, TypeSubmission, rules[1].Type)
}

func TestToAutoModerator_RoundTrip(t *testing.T) {
	docs := []string{
		"type: submission\npriority: 2\ntitle (includes): 'buy now'\naction: remove\naction_reason: spam",
		"body+title: hello\naction: report",
		"standard: image hosting sites\naction: remove",
	}

	for _, doc := range docs {
		r := mustParse(t, doc)
		require.False(t, r.RequiresBAM)

		rendered, err := r.ToAutoModerator()
		require.NoError(t, err)

		again, err := Parse([]byte(rendered))
		require.NoError(t, err)

		assert.Equal(t, r.Type, again.Type)
		assert.Equal(t, r.Priority, again.Priority)
		require.Equal(t, r.Config.Keys(), again.Config.Keys())
		for _, key := range r.Config.Keys() {
			want, _ := r.Config.Get(key)
			got, _ := again.Config.Get(key)
			assert.Equal(t, want, got, "key %s", key)
		}
	}
}

func TestConfig_PreservesOrder(t *testing.T) {
	r := mustParse(t, "zebra: 1\napple: 2\nmango: 3")
	assert.Equal(t, []string{"zebra", "apple", "mango"}, r.Config.Keys())

	// Nested scope mappings keep their order too.
	r = mustParse(t, "author:\n  zzz: 1\n  aaa: 2")
	v, _ := r.Config.Get("author")
	sub, ok := v.(*Config)
	require.True(t, ok)
	assert.Equal(t, []string{"zzz", "aaa"}, sub.Keys())
}

func TestParseKey(t *testing.T) {
	cases := []struct {
		key     string
		negate  bool
		names   []string
		options []string
	}{
		{"body", false, []string{"body"}, nil},
		{"~id", true, []string{"id"}, nil},
		{"body (includes)", false, []string{"body"}, []string{"includes"}},
		{"body+title (includes, case-sensitive)", false, []string{"body", "title"}, []string{"includes", "case-sensitive"}},
		{"~body+url (regex)", true, []string{"body", "url"}, []string{"regex"}},
		{"url (regex)", false, []string{"url"}, []string{"regex"}},
		{"account_age (time, greater-than)", false, []string{"account_age"}, []string{"time", "greater-than"}},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			parsed := ParseKey(tc.key)
			assert.Equal(t, tc.negate, parsed.Negate)
			assert.Equal(t, tc.names, parsed.Names)
			assert.Equal(t, tc.options, parsed.Options)
		})
	}
}

func TestParseError_CarriesDocument(t *testing.T) {
	_, err := Parse([]byte("bam: true\nstandard: image hosting sites"))
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.True(t, parseErr.Doc.Has("standard"))
}
