// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephwegner/better-auto-moderator/internal/reddit"
)

func TestAction_ApproveGating(t *testing.T) {
	ctx := context.Background()

	// Removed items are never approved.
	site := newFakeSite()
	item := testComment()
	item.Removed = true
	ran := NewComment(item, site).Act(ctx, mustRule(t, "action: approve"))
	assert.False(t, ran)
	assert.Empty(t, site.calls)

	// Already-approved items are skipped unless the rule references reports.
	site = newFakeSite()
	item = testComment()
	item.Approved = true
	ran = NewComment(item, site).Act(ctx, mustRule(t, "action: approve"))
	assert.False(t, ran)

	site = newFakeSite()
	item = testComment()
	item.Approved = true
	ran = NewComment(item, site).Act(ctx, mustRule(t, "reports: '>= 1'\naction: approve"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "approve t1_abcde")
}

func TestAction_RemoveGating(t *testing.T) {
	ctx := context.Background()

	site := newFakeSite()
	item := testComment()
	item.Approved = true
	ran := NewComment(item, site).Act(ctx, mustRule(t, "action: remove"))
	assert.False(t, ran)
	assert.Empty(t, site.calls)

	site = newFakeSite()
	ran = NewComment(testComment(), site).Act(ctx, mustRule(t, "action: spam"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "remove t1_abcde spam=true")
}

func TestAction_ReportReason(t *testing.T) {
	ctx := context.Background()

	site := newFakeSite()
	ran := NewComment(testComment(), site).Act(ctx,
		mustRule(t, "action: report\nreport_reason: 'rule broken by {{author}}'"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "report t1_abcde reason=rule broken by test_user")

	// action_reason backs up report_reason.
	site = newFakeSite()
	ran = NewComment(testComment(), site).Act(ctx,
		mustRule(t, "action: report\naction_reason: spam maybe"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "report t1_abcde reason=spam maybe")
}

func TestAction_UnknownActionSkipped(t *testing.T) {
	site := newFakeSite()
	ran := NewComment(testComment(), site).Act(context.Background(), mustRule(t, "action: filter"))
	assert.False(t, ran)
	assert.Empty(t, site.calls)
}

func TestAction_IgnoreReportsAndLog(t *testing.T) {
	site := newFakeSite()
	ran := NewComment(testComment(), site).Act(context.Background(),
		mustRule(t, "ignore_reports: true\nlog: 'matched {{author}}'"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "ignore_reports t1_abcde")
}

func TestAction_CommentWithLockAndSticky(t *testing.T) {
	site := newFakeSite()
	ran := NewComment(testComment(), site).Act(context.Background(),
		mustRule(t, "comment: 'please read the rules'\ncomment_locked: true\ncomment_stickied: true"))
	require.True(t, ran)

	assert.Contains(t, site.calls, "reply t1_abcde body=please read the rules")
	assert.Contains(t, site.calls, "lock t1_reply1 locked=true")
	assert.Contains(t, site.calls, "distinguish t1_reply1 sticky=true")
}

func TestAction_MessageAndModmail(t *testing.T) {
	site := newFakeSite()
	ran := NewComment(testComment(), site).Act(context.Background(),
		mustRule(t, "message: 'your comment was flagged'\nmessage_subject: 'heads up'"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "modmail_create subject=heads up author=test_user")

	site = newFakeSite()
	ran = NewComment(testComment(), site).Act(context.Background(),
		mustRule(t, "modmail: 'somebody broke rule 3'"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "subreddit_message subject=BetterAutoModerator notification")
}

func TestAction_PostToggles(t *testing.T) {
	ctx := context.Background()

	site := newFakeSite()
	ran := NewPost(testPost(), site).Act(ctx, mustRule(t, "set_nsfw: true\nset_locked: true\nset_spoiler: false"))
	require.True(t, ran)
	assert.Contains(t, site.calls, "nsfw t3_xyz nsfw=true")
	assert.Contains(t, site.calls, "lock t3_xyz locked=true")
	assert.Contains(t, site.calls, "spoiler t3_xyz spoiler=false")

	site = newFakeSite()
	ran = NewPost(testPost(), site).Act(ctx, mustRule(t, "set_suggested_sort: new\nset_contest_mode: true\nset_original_content: true"))
	require.True(t, ran)
	assert.Contains(t, site.calls, "suggested_sort t3_xyz sort=new")
	assert.Contains(t, site.calls, "contest_mode t3_xyz enabled=true")
	assert.Contains(t, site.calls, "original_content t3_xyz enabled=true")
}

func TestAction_SetPostFlair(t *testing.T) {
	ctx := context.Background()

	// Plain string sets text only.
	site := newFakeSite()
	ran := NewPost(testPost(), site).Act(ctx, mustRule(t, "set_flair: Discussion"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "post_flair t3_xyz text=Discussion css= template=")

	// Two-element list sets text and css class.
	site = newFakeSite()
	ran = NewPost(testPost(), site).Act(ctx, mustRule(t, "set_flair:\n  - Discussion\n  - blue"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "post_flair t3_xyz text=Discussion css=blue template=")

	// Mapping requires template_id.
	site = newFakeSite()
	ran = NewPost(testPost(), site).Act(ctx, mustRule(t, "set_flair:\n  template_id: tmpl-1\n  text: Discussion"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "post_flair t3_xyz text=Discussion css= template=tmpl-1")

	site = newFakeSite()
	ran = NewPost(testPost(), site).Act(ctx, mustRule(t, "set_flair:\n  text: Discussion"))
	assert.False(t, ran, "mapping without template_id is an error")
	assert.Empty(t, site.calls)
}

func TestAction_FlairOnlyOverEmpty(t *testing.T) {
	ctx := context.Background()

	flaired := testPost()
	existing := "Meta"
	flaired.LinkFlairText = &existing

	site := newFakeSite()
	ran := NewPost(flaired, site).Act(ctx, mustRule(t, "set_flair: Discussion"))
	assert.False(t, ran)
	assert.Empty(t, site.calls)

	site = newFakeSite()
	ran = NewPost(flaired, site).Act(ctx, mustRule(t, "set_flair: Discussion\noverwrite_flair: true"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "post_flair t3_xyz text=Discussion css= template=")
}

func TestAction_AuthorScopeSetFlair(t *testing.T) {
	site := newFakeSite()
	ran := NewComment(testComment(), site).Act(context.Background(),
		mustRule(t, "author:\n  set_flair: 'Verified'"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "user_flair test_user text=Verified css= template=")

	// Existing flair blocks the set without overwrite_flair.
	site = newFakeSite()
	text := "Old"
	site.flairs["test_user"] = &reddit.UserFlair{Text: &text}
	ran = NewComment(testComment(), site).Act(context.Background(),
		mustRule(t, "author:\n  set_flair: 'Verified'"))
	assert.False(t, ran)
}

func TestAction_CrosspostAuthorScope(t *testing.T) {
	// Inapplicable on non-crossposts: a silent no-op.
	site := newFakeSite()
	ran := NewPost(testPost(), site).Act(context.Background(),
		mustRule(t, "crosspost_author:\n  set_flair: 'OP'"))
	assert.False(t, ran)
	assert.Empty(t, site.calls)

	site = newFakeSite()
	site.things["t3_parent"] = &reddit.Item{
		Kind:     reddit.KindSubmission,
		ID:       "parent",
		Fullname: "t3_parent",
		Author:   reddit.Redditor{ID: "u9", Name: "original_poster"},
	}
	crosspost := testPost()
	crosspost.CrosspostParent = "t3_parent"
	ran = NewPost(crosspost, site).Act(context.Background(),
		mustRule(t, "crosspost_author:\n  set_flair: 'OP'"))
	assert.True(t, ran)
	assert.Contains(t, site.calls, "user_flair original_poster text=OP css= template=")
}
