package parse

import (
	"sort"
	"strings"
)

// Outcome is the business result a sentinel phrase encodes.
type Outcome int

const (
	Unknown Outcome = iota
	Success
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// SentinelRule lists the literal phrases that decide one command's outcome.
// Default applies when no phrase is present; Unknown hands the raw text to
// the caller.
type SentinelRule struct {
	Command string
	Success []string
	Failure []string
	Default Outcome
}

// Verdict is the result of matching a reply against a SentinelRule.
type Verdict struct {
	Outcome Outcome
	Matched string
	Raw     string
}

// OK reports whether the verdict is Success.
func (v Verdict) OK() bool {
	return v.Outcome == Success
}

type candidate struct {
	phrase  string
	outcome Outcome
}

// ParseSentinel tests text for the rule's phrases. Matching is
// case-sensitive and substring-based. Longer phrases are tried first; on
// equal length a failure phrase wins.
func ParseSentinel(text string, rule SentinelRule) Verdict {
	cands := make([]candidate, 0, len(rule.Success)+len(rule.Failure))
	for _, p := range rule.Failure {
		cands = append(cands, candidate{p, Failure})
	}
	for _, p := range rule.Success {
		cands = append(cands, candidate{p, Success})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return len(cands[i].phrase) > len(cands[j].phrase)
	})

	for _, c := range cands {
		if c.phrase != "" && strings.Contains(text, c.phrase) {
			return Verdict{Outcome: c.outcome, Matched: c.phrase, Raw: text}
		}
	}
	return Verdict{Outcome: rule.Default, Raw: text}
}
