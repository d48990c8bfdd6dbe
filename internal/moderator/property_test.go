// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_CaseFolding checks that text comparators without the
// case-sensitive option are insensitive to the case of both operands.
func TestProperty_CaseFolding(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("full-exact folds case", prop.ForAll(
		func(value, test string) bool {
			a, err := fullExact(value, test, nil)
			if err != nil {
				return false
			}
			b, err := fullExact(strings.ToLower(value), strings.ToLower(test), nil)
			if err != nil {
				return false
			}
			return a == b
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("includes folds case", prop.ForAll(
		func(value, test string) bool {
			a, err := includes(value, test, nil)
			if err != nil {
				return false
			}
			b, err := includes(strings.ToLower(value), strings.ToLower(test), nil)
			if err != nil {
				return false
			}
			return a == b
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_NegationFlips checks that the ~ prefix flips a key's result
// exactly once.
func TestProperty_NegationFlips(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("~id inverts id", prop.ForAll(
		func(itemID, testID string) bool {
			item := testComment()
			item.ID = itemID

			plain, err := parseTestRule(fmt.Sprintf("id: %q", testID))
			if err != nil {
				return false
			}
			negated, err := parseTestRule(fmt.Sprintf("~id: %q", testID))
			if err != nil {
				return false
			}

			site := newFakeSite()
			mod := NewComment(item, site)
			a := mod.Check(context.Background(), plain)
			b := mod.Check(context.Background(), negated)
			return a != b
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_TemporalMonotonicity checks that making an account older
// never turns a passing greater-than age check into a failing one.
func TestProperty_TemporalMonotonicity(t *testing.T) {
	now := time.Date(2026, 1, 12, 12, 0, 0, 0, time.UTC)
	restore := timeNow
	timeNow = func() time.Time { return now }
	defer func() { timeNow = restore }()

	properties := gopter.NewProperties(nil)

	properties.Property("older accounts keep passing", prop.ForAll(
		func(ageDays, thresholdDays, extraDays int) bool {
			created := now.AddDate(0, 0, -ageDays)
			test := fmt.Sprintf("> %d days", thresholdDays)

			before, err := timeCmp(created, test, nil)
			if err != nil {
				return false
			}
			if !before {
				return true // nothing to preserve
			}

			older, err := timeCmp(created.AddDate(0, 0, -extraDays), test, nil)
			if err != nil {
				return false
			}
			return older
		},
		gen.IntRange(0, 2000),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_EvaluationIsDeterministic checks that evaluating the same
// rule against the same item twice gives the same answer.
func TestProperty_EvaluationIsDeterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeat evaluation agrees", prop.ForAll(
		func(body, test string) bool {
			item := testComment()
			item.Body = body

			r, err := parseTestRule(fmt.Sprintf("body (includes): %q", test))
			if err != nil {
				return false
			}

			first := NewComment(item, newFakeSite()).Check(context.Background(), r)
			second := NewComment(item, newFakeSite()).Check(context.Background(), r)
			return first == second
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
