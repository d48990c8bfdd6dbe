// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package status serves a small operator endpoint: liveness plus a snapshot
// of the currently loaded rule set.
package status

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/josephwegner/better-auto-moderator/internal/buildinfo"
	"github.com/josephwegner/better-auto-moderator/internal/rule"
)

// RuleSummary is the operator-facing digest of one loaded rule.
type RuleSummary struct {
	Type        string `json:"type"`
	Priority    int    `json:"priority"`
	RequiresBAM bool   `json:"requires_bam"`
	Action      string `json:"action,omitempty"`
}

// Server exposes /healthz and /rules.
type Server struct {
	mu    sync.RWMutex
	rules []RuleSummary
}

// NewServer returns an empty status server.
func NewServer() *Server {
	return &Server{}
}

// SetRules replaces the published rule snapshot.
func (s *Server) SetRules(rules []*rule.Rule) {
	summaries := make([]RuleSummary, 0, len(rules))
	for _, r := range rules {
		summary := RuleSummary{
			Type:        r.Type,
			Priority:    r.Priority,
			RequiresBAM: r.RequiresBAM,
		}
		if action, ok := r.Config.Get("action"); ok {
			summary.Action, _ = action.(string)
		}
		summaries = append(summaries, summary)
	}

	s.mu.Lock()
	s.rules = summaries
	s.mu.Unlock()
}

// Handler builds the gin engine serving the status routes.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"version": buildinfo.Version,
			"commit":  buildinfo.Commit,
		})
	})

	router.GET("/rules", func(c *gin.Context) {
		s.mu.RLock()
		rules := s.rules
		s.mu.RUnlock()
		c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
	})

	return router
}

// ListenAndServe starts the status endpoint; it returns when the listener
// fails.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}
