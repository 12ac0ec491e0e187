package core

import (
	"errors"
	"fmt"
	"strings"
)

// SuccessPolicy decides whether a multi-tag save counts as successful.
type SuccessPolicy string

const (
	// PolicyAny accepts a save when at least one tag was written.
	PolicyAny SuccessPolicy = "any"
	// PolicyAll requires every tag to be written.
	PolicyAll SuccessPolicy = "all"
)

// ParseSuccessPolicy parses "any" or "all". An empty string means PolicyAny.
func ParseSuccessPolicy(s string) (SuccessPolicy, error) {
	switch SuccessPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAny:
		return PolicyAny, nil
	case PolicyAll:
		return PolicyAll, nil
	default:
		return "", fmt.Errorf("unknown save policy %q (want any or all)", s)
	}
}

// Accepts applies the policy to a list of per-tag outcomes.
func (p SuccessPolicy) Accepts(outcomes []TagOutcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	ok := 0
	for _, o := range outcomes {
		if o.Err == nil {
			ok++
		}
	}
	if p == PolicyAll {
		return ok == len(outcomes)
	}
	return ok > 0
}

// TagOutcome records what happened to one physical copy of a note.
// Ref is the written location: a relative file path or a document token.
type TagOutcome struct {
	Tag string `json:"tag"`
	Ref string `json:"ref,omitempty"`
	Err error  `json:"-"`
}

// SaveResult is returned by Save and Update.
type SaveResult struct {
	Note     Note         `json:"note"`
	Outcomes []TagOutcome `json:"outcomes"`
	OK       bool         `json:"ok"`
}

// Failed returns the outcomes that carry an error.
func (r SaveResult) Failed() []TagOutcome {
	var out []TagOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Partial reports whether some, but not all, tags were written.
func (r SaveResult) Partial() bool {
	failed := len(r.Failed())
	return failed > 0 && failed < len(r.Outcomes)
}

// Summary renders a one-line, human readable description of the result.
func (r SaveResult) Summary() string {
	var saved, failed []string
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o.Tag)
		} else {
			saved = append(saved, o.Tag)
		}
	}
	msg := fmt.Sprintf("saved to [%s]", strings.Join(saved, ", "))
	if len(failed) > 0 {
		msg += fmt.Sprintf(", failed for [%s]", strings.Join(failed, ", "))
	}
	return msg
}

// NewSaveResult evaluates outcomes under policy. The returned error is nil
// when the policy accepts the result and otherwise wraps ErrSaveFailed
// together with every per-tag error.
func NewSaveResult(note Note, outcomes []TagOutcome, policy SuccessPolicy) (SaveResult, error) {
	res := SaveResult{Note: note, Outcomes: outcomes, OK: policy.Accepts(outcomes)}
	if res.OK {
		return res, nil
	}
	errs := []error{ErrSaveFailed}
	for _, o := range res.Failed() {
		errs = append(errs, fmt.Errorf("tag %q: %w", o.Tag, o.Err))
	}
	return res, errors.Join(errs...)
}
