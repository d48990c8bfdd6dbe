// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package moderator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// A Comparator decides whether a concrete attribute value satisfies a rule's
// test value, influenced by the key's options. Comparators are pure; the
// evaluator treats an error as a rule failure and reports it to the operator.
type Comparator func(value, test any, opts []string) (bool, error)

// ErrRegexUnsupported reports the regex option on a comparator that anchors
// by test length and therefore cannot take a pattern.
var ErrRegexUnsupported = errors.New("comparator cannot use the regex option")

// comparators maps option/tag names to their predicate. A key option that
// names a comparator overrides the check's default; when several options
// name comparators, the last one wins.
var comparators = map[string]Comparator{
	"full-exact":    fullExact,
	"full-text":     fullText,
	"includes":      includes,
	"includes-word": includesWord,
	"starts-with":   startsWith,
	"ends-with":     endsWith,
	"contains":      containsCmp,
	"only":          onlyCmp,
	"numeric":       numeric,
	"time":          timeCmp,
	"bool":          boolCmp,
	"domain":        domainCmp,
}

// resolveComparator picks the comparator for a check: the declared default,
// overridden by the last option that names one.
func resolveComparator(def string, opts []string) (Comparator, error) {
	cmp, ok := comparators[def]
	if !ok {
		return nil, fmt.Errorf("unknown default comparator %q", def)
	}
	for _, opt := range opts {
		if c, ok := comparators[opt]; ok {
			cmp = c
		}
	}
	return cmp, nil
}

// timeNow is swapped out by tests that pin the clock.
var timeNow = time.Now

var (
	wordRe         = regexp.MustCompile(`\w+`)
	numberRe       = regexp.MustCompile(`[0-9\-.]+`)
	leadingJunkRe  = regexp.MustCompile(`^[^A-Za-z0-9]*`)
	trailingJunkRe = regexp.MustCompile(`[^A-Za-z0-9]*$`)
)

// regexCache caches compiled patterns so hot rules do not recompile per item.
var (
	regexCache   = map[string]*regexp.Regexp{}
	regexCacheMu sync.RWMutex
)

func compileRegex(pattern string, full bool) (*regexp.Regexp, error) {
	key := pattern
	if full {
		key = "\x00" + pattern
	}

	regexCacheMu.RLock()
	re, ok := regexCache[key]
	regexCacheMu.RUnlock()
	if ok {
		return re, nil
	}

	expr := pattern
	if full {
		expr = `\A(?:` + pattern + `)\z`
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}

	regexCacheMu.Lock()
	if len(regexCache) < 1000 {
		regexCache[key] = re
	}
	regexCacheMu.Unlock()

	return re, nil
}

func hasOption(opts []string, name string) bool {
	for _, o := range opts {
		if o == name {
			return true
		}
	}
	return false
}

// textValues flattens a getter value into candidate strings, dropping nils.
func textValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if e == nil {
				continue
			}
			out = append(out, stringify(e))
		}
		return out
	default:
		return []string{stringify(v)}
	}
}

// listValues returns the value as a list, or ok=false if it is not one.
func listValues(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	}
	return 0, false
}

// fullExact matches when the value (or any element of a list value) equals
// the test. With the regex option the test is a pattern that must match the
// whole value; case folding does not apply to patterns.
func fullExact(value, test any, opts []string) (bool, error) {
	values := textValues(value)

	if hasOption(opts, "regex") {
		re, err := compileRegex(stringify(test), true)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if re.MatchString(v) {
				return true, nil
			}
		}
		return false, nil
	}

	t := stringify(test)
	caseSensitive := hasOption(opts, "case-sensitive")
	if !caseSensitive {
		t = strings.ToLower(t)
	}
	for _, v := range values {
		if !caseSensitive {
			v = strings.ToLower(v)
		}
		if v == t {
			return true, nil
		}
	}
	return false, nil
}

// includes matches when the test is a substring of the value; with the regex
// option it is an unanchored pattern search.
func includes(value, test any, opts []string) (bool, error) {
	values := textValues(value)

	if hasOption(opts, "regex") {
		re, err := compileRegex(stringify(test), false)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if re.MatchString(v) {
				return true, nil
			}
		}
		return false, nil
	}

	t := stringify(test)
	caseSensitive := hasOption(opts, "case-sensitive")
	if !caseSensitive {
		t = strings.ToLower(t)
	}
	for _, v := range values {
		if !caseSensitive {
			v = strings.ToLower(v)
		}
		if strings.Contains(v, t) {
			return true, nil
		}
	}
	return false, nil
}

// includesWord splits the value into word tokens and matches when any token
// full-exact-matches the test.
func includesWord(value, test any, opts []string) (bool, error) {
	for _, v := range textValues(value) {
		for _, word := range wordRe.FindAllString(v, -1) {
			ok, err := fullExact(word, test, opts)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// startsWith matches a prefix of the value by the length of the test.
func startsWith(value, test any, opts []string) (bool, error) {
	if hasOption(opts, "regex") {
		return false, fmt.Errorf("starts-with %w", ErrRegexUnsupported)
	}

	length := len([]rune(stringify(test)))
	for _, v := range textValues(value) {
		runes := []rune(v)
		if length < len(runes) {
			runes = runes[:length]
		}
		ok, err := fullExact(string(runes), test, opts)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// endsWith matches a suffix of the value by the length of the test.
func endsWith(value, test any, opts []string) (bool, error) {
	if hasOption(opts, "regex") {
		return false, fmt.Errorf("ends-with %w", ErrRegexUnsupported)
	}

	length := len([]rune(stringify(test)))
	for _, v := range textValues(value) {
		runes := []rune(v)
		if length < len(runes) {
			runes = runes[len(runes)-length:]
		}
		ok, err := fullExact(string(runes), test, opts)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// fullText strips leading and trailing non-alphanumerics from the value and
// then applies fullExact.
func fullText(value, test any, opts []string) (bool, error) {
	for _, v := range textValues(value) {
		v = leadingJunkRe.ReplaceAllString(v, "")
		v = trailingJunkRe.ReplaceAllString(v, "")
		ok, err := fullExact(v, test, opts)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// containsCmp requires a list value and matches when any element
// full-exact-matches the test.
func containsCmp(value, test any, opts []string) (bool, error) {
	values, ok := listValues(value)
	if !ok {
		return false, nil
	}
	for _, v := range values {
		match, err := fullExact(v, test, opts)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// onlyCmp requires a non-empty list value whose every element
// full-exact-matches the test.
func onlyCmp(value, test any, opts []string) (bool, error) {
	values, ok := listValues(value)
	if !ok || len(values) == 0 {
		return false, nil
	}
	for _, v := range values {
		match, err := fullExact(v, test, opts)
		if err != nil {
			return false, err
		}
		if !match {
			return false, nil
		}
	}
	return true, nil
}

type ordering int

const (
	orderEq ordering = iota
	orderGT
	orderLT
	orderGTE
	orderLTE
)

// pickOrdering reads inequality markers out of the test string, falling back
// to option modifiers. Markers are checked widest first so ">=" never parses
// as ">".
func pickOrdering(test string, opts []string) ordering {
	switch {
	case strings.Contains(test, ">=") || hasOption(opts, "greater-than-equal"):
		return orderGTE
	case strings.Contains(test, "<=") || hasOption(opts, "less-than-equal"):
		return orderLTE
	case strings.Contains(test, ">") || hasOption(opts, "greater-than"):
		return orderGT
	case strings.Contains(test, "<") || hasOption(opts, "less-than"):
		return orderLT
	}
	return orderEq
}

// numeric extracts the first numeric token from the test and compares the
// value to it with the chosen ordering. No marker means equality.
func numeric(value, test any, opts []string) (bool, error) {
	v, ok := toFloat(value)
	if !ok {
		return false, fmt.Errorf("numeric comparator needs a number, got %T", value)
	}

	testStr := stringify(test)
	token := numberRe.FindString(testStr)
	if token == "" {
		return false, fmt.Errorf("no numeric token in %q", testStr)
	}
	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return false, fmt.Errorf("bad numeric token %q: %w", token, err)
	}

	switch pickOrdering(testStr, opts) {
	case orderGTE:
		return v >= n, nil
	case orderLTE:
		return v <= n, nil
	case orderGT:
		return v > n, nil
	case orderLT:
		return v < n, nil
	}
	return v == n, nil
}

// timeCmp extracts a numeric token and a unit from the test, adds the delta
// to the value and compares the result to the current instant with the
// chosen ordering. The default unit is days.
func timeCmp(value, test any, opts []string) (bool, error) {
	v, ok := value.(time.Time)
	if !ok {
		return false, fmt.Errorf("time comparator needs a time, got %T", value)
	}

	testStr := stringify(test)
	token := numberRe.FindString(testStr)
	if token == "" {
		return false, fmt.Errorf("no numeric token in %q", testStr)
	}
	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return false, fmt.Errorf("bad numeric token %q: %w", token, err)
	}

	var comparison time.Time
	switch {
	case strings.Contains(testStr, "minutes"):
		comparison = v.Add(time.Duration(n * float64(time.Minute)))
	case strings.Contains(testStr, "hours"):
		comparison = v.Add(time.Duration(n * float64(time.Hour)))
	case strings.Contains(testStr, "weeks"):
		comparison = v.Add(time.Duration(n * float64(7*24*time.Hour)))
	case strings.Contains(testStr, "years"):
		comparison = v.AddDate(int(n), 0, 0)
	case strings.Contains(testStr, "months"):
		comparison = v.AddDate(0, int(n), 0)
	default:
		comparison = v.Add(time.Duration(n * float64(24*time.Hour)))
	}

	now := timeNow().UTC()
	switch pickOrdering(testStr, opts) {
	case orderGTE:
		return !now.Before(comparison), nil
	case orderLTE:
		return !now.After(comparison), nil
	case orderGT:
		return now.After(comparison), nil
	case orderLT:
		return now.Before(comparison), nil
	}
	return now.Equal(comparison), nil
}

// boolCmp is identity on booleans.
func boolCmp(value, test any, _ []string) (bool, error) {
	v, ok := value.(bool)
	t, ok2 := test.(bool)
	return ok && ok2 && v == t, nil
}

// domainCmp matches a domain exactly or as a subdomain suffix of the test.
func domainCmp(value, test any, opts []string) (bool, error) {
	ok, err := fullExact(value, test, opts)
	if err != nil || ok {
		return ok, err
	}
	return endsWith(value, "."+stringify(test), opts)
}
