// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"context"
	"fmt"

	"github.com/josephwegner/better-auto-moderator/internal/rule"
)

// An ActionFunc applies one effect of a matched rule. The value arrives
// placeholder-substituted. The boolean result reports whether the action
// actually ran; gated actions (approve on an already-approved item, set_flair
// over existing flair) return false without error.
type ActionFunc func(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error)

// Actions is the action table for one scope.
type Actions map[string]ActionFunc

const botSignature = "*I am a bot, and this action was performed automatically.*"

// commonActions apply to every moderated item kind.
func commonActions() Actions {
	return Actions{
		"action":         runAction,
		"ignore_reports": runIgnoreReports,
		"log":            runLog,
		"comment":        runComment,
		"reply":          runComment,
		"message":        runMessage,
		"modmail":        runModmail,
		"set_sticky":     runSetSticky,
		"set_locked":     runSetLocked,

		rule.ScopeAuthor:           runAuthorScope,
		rule.ScopeParentSubmission: scopeAction(rule.ScopeParentSubmission),
		rule.ScopeParentComment:    scopeAction(rule.ScopeParentComment),
		rule.ScopeCrosspostAuthor:  runCrosspostAuthorScope,
	}
}

// commentActions are the common set; comments have no flair or NSFW toggles.
func commentActions() Actions {
	return commonActions()
}

// postActions extend the common set with submission-only toggles.
func postActions() Actions {
	actions := commonActions()
	actions["set_flair"] = runSetPostFlair
	actions["set_nsfw"] = runSetNSFW
	actions["set_spoiler"] = runSetSpoiler
	actions["set_contest_mode"] = runSetContestMode
	actions["set_original_content"] = runSetOriginalContent
	actions["set_suggested_sort"] = runSetSuggestedSort
	return actions
}

// authorActions apply under the `author` scope of a matched rule.
func authorActions() Actions {
	return Actions{
		"set_flair": runSetUserFlair,
	}
}

// modmailActions are the few effects that make sense on a conversation.
func modmailActions() Actions {
	return Actions{
		"log":     runLog,
		"message": runMessage,
		"modmail": runModmail,
	}
}

// runAction executes the `action:` key: approve, remove, spam or report. The
// upstream-only `filter` value (and anything unknown) logs and does nothing.
func runAction(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	name, _ := value.(string)

	if reason, ok := r.Config.Get("action_reason"); ok && name != "report" {
		m.log.Infof("Note: action_reason cannot be attached to rules enforced by BAM. Logging instead: %v", reason)
	}

	switch name {
	case "approve":
		if m.item.Removed {
			return false, nil
		}
		if m.item.Approved && !r.Config.Has("reports") {
			return false, nil
		}
		m.log.Infof("Approving %s %s", m.item.Kind, m.item.ID)
		if err := m.site.Approve(ctx, m.item.Fullname); err != nil {
			return false, err
		}
		return true, nil

	case "remove":
		if m.item.Approved {
			return false, nil
		}
		m.log.Infof("Removing %s %s", m.item.Kind, m.item.ID)
		if err := m.site.Remove(ctx, m.item.Fullname, false); err != nil {
			return false, err
		}
		return true, nil

	case "spam":
		m.log.Infof("Marking %s %s as spam", m.item.Kind, m.item.ID)
		if err := m.site.Remove(ctx, m.item.Fullname, true); err != nil {
			return false, err
		}
		return true, nil

	case "report":
		m.log.Infof("Reporting %s %s", m.item.Kind, m.item.ID)
		reason := ""
		if v, ok := r.Config.Get("report_reason"); ok {
			reason, _ = m.replacePlaceholders(ctx, v).(string)
		} else if v, ok := r.Config.Get("action_reason"); ok {
			reason, _ = m.replacePlaceholders(ctx, v).(string)
		}
		if err := m.site.Report(ctx, m.item.Fullname, reason); err != nil {
			return false, err
		}
		return true, nil
	}

	m.log.Warnf("Unknown action %q, skipping", name)
	return false, nil
}

func runIgnoreReports(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	m.log.Infof("Ignoring reports on %s %s", m.item.Kind, m.item.ID)
	if err := m.site.IgnoreReports(ctx, m.item.Fullname); err != nil {
		return false, err
	}
	return true, nil
}

func runLog(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	m.log.Infof("%v", value)
	return true, nil
}

// runComment posts a reply, optionally locking or distinguish-stickying it.
func runComment(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	body, _ := value.(string)
	m.log.Infof("Replying to %s %s", m.item.Kind, m.item.ID)
	reply, err := m.site.Reply(ctx, m.item.Fullname, body)
	if err != nil {
		return false, err
	}

	if v, ok := r.Config.Get("comment_locked"); ok && v == true {
		if err := m.site.Lock(ctx, reply.Fullname, true); err != nil {
			return false, err
		}
	}
	if v, ok := r.Config.Get("comment_stickied"); ok && v == true {
		if err := m.site.DistinguishSticky(ctx, reply.Fullname, true); err != nil {
			return false, err
		}
	}
	return true, nil
}

// runMessage opens a modmail conversation with the author as participant.
func runMessage(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	subject := "BetterAutoModerator notification"
	if v, ok := r.Config.Get("message_subject"); ok {
		if s, isStr := m.replacePlaceholders(ctx, v).(string); isStr {
			subject = s
		}
	}

	body := fmt.Sprintf("https://www.reddit.com%s\n\n%v\n\n*I am a bot, and this action was performed automatically. Please [contact the moderators of this subreddit](https://www.reddit.com/message/compose/?to=/r/%s) if you have any questions or concerns.*",
		m.item.Permalink, value, m.item.Subreddit.Name)

	if err := m.site.ModmailCreate(ctx, subject, body, m.item.Author.Name); err != nil {
		return false, err
	}
	return true, nil
}

// runModmail messages the subreddit's own modmail.
func runModmail(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	subject := "BetterAutoModerator notification"
	if v, ok := r.Config.Get("modmail_subject"); ok {
		if s, isStr := m.replacePlaceholders(ctx, v).(string); isStr {
			subject = s
		}
	}

	body := fmt.Sprintf("https://www.reddit.com%s\n\n%v\n\n%s", m.item.Permalink, value, botSignature)

	if err := m.site.SubredditMessage(ctx, subject, body); err != nil {
		return false, err
	}
	return true, nil
}

func runSetSticky(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	sticky := value == true
	if sticky {
		m.log.Infof("Setting %s %s to sticky", m.item.Kind, m.item.ID)
	} else {
		m.log.Infof("Setting %s %s to not sticky", m.item.Kind, m.item.ID)
	}
	if err := m.site.DistinguishSticky(ctx, m.item.Fullname, sticky); err != nil {
		return false, err
	}
	return true, nil
}

func runSetLocked(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	locked := value == true
	if locked {
		m.log.Infof("Locking %s %s", m.item.Kind, m.item.ID)
	} else {
		m.log.Infof("Unlocking %s %s", m.item.Kind, m.item.ID)
	}
	if err := m.site.Lock(ctx, m.item.Fullname, locked); err != nil {
		return false, err
	}
	return true, nil
}

func runSetNSFW(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	nsfw := value == true
	if nsfw {
		m.log.Infof("Setting %s %s as nsfw", m.item.Kind, m.item.ID)
	} else {
		m.log.Infof("Setting %s %s as sfw", m.item.Kind, m.item.ID)
	}
	if err := m.site.MarkNSFW(ctx, m.item.Fullname, nsfw); err != nil {
		return false, err
	}
	return true, nil
}

func runSetSpoiler(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	spoiler := value == true
	if spoiler {
		m.log.Infof("Setting %s %s as spoiler", m.item.Kind, m.item.ID)
	} else {
		m.log.Infof("Removing spoiler tag from %s %s", m.item.Kind, m.item.ID)
	}
	if err := m.site.Spoiler(ctx, m.item.Fullname, spoiler); err != nil {
		return false, err
	}
	return true, nil
}

func runSetContestMode(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	m.log.Infof("Setting contest mode on %s %s", m.item.Kind, m.item.ID)
	if err := m.site.ContestMode(ctx, m.item.Fullname, value == true); err != nil {
		return false, err
	}
	return true, nil
}

func runSetOriginalContent(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	enabled := value == true
	if enabled {
		m.log.Infof("Setting %s %s as original content", m.item.Kind, m.item.ID)
	} else {
		m.log.Infof("Unsetting %s %s as original content", m.item.Kind, m.item.ID)
	}
	if err := m.site.OriginalContent(ctx, m.item.Fullname, enabled); err != nil {
		return false, err
	}
	return true, nil
}

func runSetSuggestedSort(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	sortName, _ := value.(string)
	m.log.Infof("Setting suggested sort on %s %s to %s", m.item.Kind, m.item.ID, sortName)
	if err := m.site.SuggestedSort(ctx, m.item.Fullname, sortName); err != nil {
		return false, err
	}
	return true, nil
}

// flairValue decodes the three accepted set_flair shapes: a bare string, a
// [text, css_class] pair, or a mapping that must carry template_id.
func flairValue(value any) (text, cssClass, templateID string, err error) {
	switch v := value.(type) {
	case string:
		return v, "", "", nil
	case []any:
		if len(v) > 0 {
			text, _ = v[0].(string)
		}
		if len(v) > 1 {
			cssClass, _ = v[1].(string)
		}
		return text, cssClass, "", nil
	case *rule.Config:
		tmpl, ok := v.Get("template_id")
		if !ok {
			return "", "", "", fmt.Errorf("template_id must be provided in set_flair object")
		}
		templateID, _ = tmpl.(string)
		if t, ok := v.Get("text"); ok {
			text, _ = t.(string)
		}
		if c, ok := v.Get("css_class"); ok {
			cssClass, _ = c.(string)
		}
		return text, cssClass, templateID, nil
	}
	return "", "", "", fmt.Errorf("set_flair value must be a string, list or mapping, got %T", value)
}

// runSetPostFlair sets the submission's link flair, only over empty flair
// unless overwrite_flair is set.
func runSetPostFlair(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	overwrite, _ := r.Config.Get("overwrite_flair")
	if m.item.LinkFlairText != nil && overwrite != true {
		return false, nil
	}

	text, cssClass, templateID, err := flairValue(value)
	if err != nil {
		return false, err
	}
	m.log.Infof("Setting flair on %s %s", m.item.Kind, m.item.ID)
	if err := m.site.SetPostFlair(ctx, m.item.Fullname, text, cssClass, templateID); err != nil {
		return false, err
	}
	return true, nil
}

// runSetUserFlair sets the author's flair, only over empty flair unless
// overwrite_flair is set.
func runSetUserFlair(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	flair, err := m.authorFlair(ctx)
	if err != nil {
		return false, err
	}
	overwrite, _ := r.Config.Get("overwrite_flair")
	if flair != nil && flair.Text != nil && overwrite != true {
		return false, nil
	}

	text, cssClass, templateID, err := flairValue(value)
	if err != nil {
		return false, err
	}
	m.log.Infof("Setting flair for user %s", m.item.Author.Name)
	if err := m.site.SetUserFlair(ctx, m.item.Author.Name, text, cssClass, templateID); err != nil {
		return false, err
	}
	return true, nil
}

// runAuthorScope re-invokes the dispatcher with the author action table.
func runAuthorScope(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	cfg, ok := value.(*rule.Config)
	if !ok {
		return false, nil
	}
	sub, err := rule.New(cfg)
	if err != nil {
		return false, err
	}
	return m.actWith(ctx, sub, authorActions()), nil
}

// scopeAction dispatches a sub-rule's actions against a related item. An
// inapplicable scope silently succeeds as a no-op.
func scopeAction(name string) ActionFunc {
	return func(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
		cfg, ok := value.(*rule.Config)
		if !ok {
			return false, nil
		}
		sub, err := rule.New(cfg)
		if err != nil {
			return false, err
		}
		target, _, applicable := m.scopeTarget(ctx, name)
		if !applicable {
			return false, nil
		}
		return target.actWith(ctx, sub, target.actions), nil
	}
}

// runCrosspostAuthorScope applies author actions against the crosspost
// parent's author.
func runCrosspostAuthorScope(ctx context.Context, m *Moderator, r *rule.Rule, value any) (bool, error) {
	cfg, ok := value.(*rule.Config)
	if !ok {
		return false, nil
	}
	sub, err := rule.New(cfg)
	if err != nil {
		return false, err
	}
	target, _, applicable := m.scopeTarget(ctx, rule.ScopeCrosspostAuthor)
	if !applicable {
		return false, nil
	}
	return target.actWith(ctx, sub, authorActions()), nil
}
