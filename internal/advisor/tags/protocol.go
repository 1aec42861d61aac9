// Package tags encodes and decodes the eligibility marker embedded in
// assistant responses:
//
//	[[ELIGIBILITY_RESULT:eligible:<loanId>]]
//	[[ELIGIBILITY_RESULT:ineligible:<reason>]]
//
// Markers are case-sensitive. Parsing never fails; anything that does not
// match the grammar is left in the text and treated as no marker.
package tags

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const marker = "ELIGIBILITY_RESULT"

// Status is the verdict carried by a marker.
type Status string

const (
	StatusEligible   Status = "eligible"
	StatusIneligible Status = "ineligible"
)

// ErrInvalidTag is returned by Encode for values the grammar cannot carry.
var ErrInvalidTag = errors.New("INVALID_TAG")

var tagPattern = regexp.MustCompile(`\[\[` + marker + `\s*:\s*(eligible|ineligible)\s*:\s*([^\[\]]*?)\s*\]\]`)

// Tag is a decoded marker. Value is the loan id for eligible tags and the
// free-text reason for ineligible ones.
type Tag struct {
	Status Status `json:"status"`
	Value  string `json:"value"`
}

// Result is the outcome of Parse.
type Result struct {
	CleanedText string
	Tag         *Tag
}

// Parse extracts the first well-formed marker from text and strips every
// well-formed marker from the returned CleanedText.
func Parse(text string) Result {
	var first *Tag

	cleaned := tagPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := tagPattern.FindStringSubmatch(m)
		value := strings.TrimSpace(sub[2])
		if value == "" {
			return m
		}
		if first == nil {
			first = &Tag{Status: Status(sub[1]), Value: value}
		}
		return ""
	})

	return Result{
		CleanedText: strings.TrimSpace(cleaned),
		Tag:         first,
	}
}

// Encode renders a marker. The value must be non-empty, must not contain
// square brackets and must not carry surrounding whitespace.
func Encode(status Status, value string) (string, error) {
	if status != StatusEligible && status != StatusIneligible {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTag, status)
	}
	if value == "" || value != strings.TrimSpace(value) || strings.ContainsAny(value, "[]") {
		return "", fmt.Errorf("%w: value %q", ErrInvalidTag, value)
	}
	return fmt.Sprintf("[[%s:%s:%s]]", marker, status, value), nil
}

// Append places a marker after content separated by a blank line.
func Append(content string, status Status, value string) (string, error) {
	tag, err := Encode(status, value)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content) + "\n\n" + tag, nil
}
