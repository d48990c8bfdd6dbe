// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package supervisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephwegner/better-auto-moderator/internal/rule"
)

func loadRules(t *testing.T, src string) []*rule.Rule {
	t.Helper()
	rules, errs := rule.Load(src)
	require.Empty(t, errs)
	return rules
}

func TestBucketByType(t *testing.T) {
	rules := loadRules(t, `
type: comment
body: one
---
type: submission
title: two
---
body: three
---
type: modqueue
report_reason (includes): BAM
log: hit
`)

	buckets := BucketByType(rules)

	// The `any` rule lands in both content buckets.
	assert.Len(t, buckets[rule.TypeComment], 2)
	assert.Len(t, buckets[rule.TypeSubmission], 2)
	assert.Len(t, buckets[rule.TypeModqueue], 1)
	assert.Empty(t, buckets[rule.TypeModmail])
}

func TestBAMOnly(t *testing.T) {
	rules := loadRules(t, `
body: plain
---
log: extension rule
`)

	filtered := BAMOnly(rules)
	require.Len(t, filtered, 1)
	assert.True(t, filtered[0].RequiresBAM)
}

func TestRenderAutomodPage(t *testing.T) {
	rules := loadRules(t, `
type: comment
priority: 1
body: hello
action: remove
---
log: bam only, not pushed
---
type: submission
title: goodbye
`)

	page, err := RenderAutomodPage(rules)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "# This subreddit is using BetterAutoModerator"))
	assert.Contains(t, page, "body: hello")
	assert.Contains(t, page, "type: comment")
	assert.Contains(t, page, "title: goodbye")
	assert.NotContains(t, page, "bam only")
	assert.Contains(t, page, "\n---\n\n", "documents are joined with separators")

	// The rendered page parses back into the same number of rules.
	again, errs := rule.Load(strings.TrimPrefix(page, automodPageBanner))
	require.Empty(t, errs)
	assert.Len(t, again, 2)
}
