// Package intent classifies inbound utterances against ordered pattern sets.
//
// Classification is deterministic: handoff rules are evaluated first and win
// unconditionally, an active flow short-circuits everything else, and
// transactional intents are matched first-match-wins over a fixed declaration
// order. An utterance that matches nothing is a normal outcome routed to the
// knowledge path, never an error.
package intent

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/parleyhq/parley/internal/models"
)

// Kind is the outcome of classifying one utterance.
type Kind string

const (
	// KindHandoff means the user asked for a human or signaled urgency.
	KindHandoff Kind = "HANDOFF"
	// KindContinue means a flow is active and the utterance belongs to it.
	KindContinue Kind = "CONTINUE"
	// KindStart means a new transactional intent matched.
	KindStart Kind = "START"
	// KindNone means no rule matched; the knowledge responder handles the turn.
	KindNone Kind = "NONE"
)

// Result carries the classification outcome. Flow is set for KindContinue
// (the active flow) and KindStart (the flow to initialize).
type Result struct {
	Kind Kind
	Flow models.FlowID
}

// rule pairs a compiled pattern with the flow it starts.
type rule struct {
	flow     models.FlowID
	patterns []*regexp.Regexp
}

// handoffPatterns are evaluated before everything else, including mid-flow.
var handoffPatterns = compile([]string{
	`\b(speak|talk)\s+to\s+(a\s+)?(human|person|agent|representative)\b`,
	`\bconnect\s+me\s+to\s+(support|human|agent|someone)\b`,
	`\b(urgent|emergency|critical)\s+(issue|problem|matter)\b`,
	`\bneed\s+(immediate|urgent)\s+help\b`,
	`\bescalate\b`,
	`\bhuman\s+(agent|support)\b`,
})

// transactionalRules are consulted in declaration order; the first matching
// rule wins. Order is part of the contract, do not sort.
var transactionalRules = []rule{
	{models.FlowDemo, compile([]string{
		`\b(book|request|schedule|want|need|get)\s+(a\s+)?(demo|demonstration|poc|proof of concept)\b`,
		`\bshow\s+me\s+(a\s+)?demo\b`,
		`\bcan\s+i\s+(see|get|have)\s+(a\s+)?demo\b`,
	})},
	{models.FlowCareer, compile([]string{
		`\b(apply|submit|upload|send)\s+(my\s+)?(resume|cv|application)\b`,
		`\b(are\s+you\s+)?hiring\b`,
		`\bjob\s+(opening|opportunity|application|position)\b`,
		`\bcareer\s+(opportunity|page)\b`,
		`\bhow\s+(do|can)\s+i\s+apply\b`,
	})},
	{models.FlowRFP, compile([]string{
		`\b(upload|submit|send|share)\s+(an\s+|my\s+|our\s+)?rfp\b`,
		`\b(have|got)\s+(an\s+)?rfp\b`,
		`\bproposal\s+request\b`,
		`\brequest\s+for\s+proposal\b`,
	})},
	{models.FlowContact, compile([]string{
		`\b(contact|call|speak\s+to|talk\s+to)\s+(sales|team|someone)\b`,
		`\bschedule\s+(a\s+)?(call|meeting)\b`,
		`\bget\s+in\s+touch\b`,
	})},
}

// cancelKeywords abort an active flow when the whole trimmed utterance is one
// of them. Matching the full utterance avoids false positives like a project
// brief that merely contains the word "stop".
var cancelKeywords = map[string]bool{
	"cancel":     true,
	"never mind": true,
	"nevermind":  true,
	"stop":       true,
	"forget it":  true,
	"quit":       true,
}

func compile(exprs []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		res[i] = regexp.MustCompile(`(?i)` + e)
	}
	return res
}

// Classify routes one utterance. activeFlow is the session's current flow, or
// models.FlowNone when no flow is in progress.
func Classify(utterance string, activeFlow models.FlowID) Result {
	q := strings.ToLower(strings.TrimSpace(utterance))

	if IsHandoff(q) {
		slog.Debug("intent.Classify matched handoff")
		return Result{Kind: KindHandoff}
	}

	if activeFlow != models.FlowNone {
		return Result{Kind: KindContinue, Flow: activeFlow}
	}

	for _, r := range transactionalRules {
		for _, p := range r.patterns {
			if p.MatchString(q) {
				slog.Debug("intent.Classify matched transactional intent", "flow", r.flow)
				return Result{Kind: KindStart, Flow: r.flow}
			}
		}
	}

	return Result{Kind: KindNone}
}

// IsHandoff reports whether the utterance matches any handoff pattern.
func IsHandoff(utterance string) bool {
	q := strings.ToLower(utterance)
	for _, p := range handoffPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}

// IsCancel reports whether the utterance is an explicit flow-cancel request.
func IsCancel(utterance string) bool {
	return cancelKeywords[strings.ToLower(strings.TrimSpace(utterance))]
}
