// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package email validates email address candidates with structural checks
// on the local part, domain, and TLD to cut placeholder and test addresses.
package email

import (
	"regexp"
	"strings"

	"docscrub/internal/detector"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// placeholderLocals are local parts that signal sample data, not PII.
var placeholderLocals = map[string]bool{
	"example": true, "test": true, "user": true, "sample": true,
	"noreply": true, "no-reply": true, "donotreply": true,
	"admin": true, "info": true, "foo": true, "bar": true,
}

// placeholderDomains are reserved or documentation-only domains.
var placeholderDomains = map[string]bool{
	"example.com": true, "example.org": true, "example.net": true,
	"test.com": true, "localhost": true, "domain.com": true,
	"email.com": true, "company.com": true,
}

// Validate checks an email candidate structurally.
func Validate(text string) detector.ValidationResult {
	candidate := strings.TrimSpace(text)

	if !emailPattern.MatchString(candidate) {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "not an email shape")
	}

	at := strings.LastIndex(candidate, "@")
	local, domain := candidate[:at], strings.ToLower(candidate[at+1:])

	if len(local) > 64 || len(domain) > 255 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "component too long")
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "malformed local part")
	}
	if strings.Contains(domain, "..") || strings.HasPrefix(domain, "-") {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "malformed domain")
	}

	if placeholderDomains[domain] {
		return detector.InvalidResult(detector.ConfidenceFalsePositive, "documentation domain")
	}
	if placeholderLocals[strings.ToLower(local)] {
		// Real mailboxes do use these names; the address survives but at
		// a step that needs positive context to matter.
		return detector.ValidResult(detector.ConfidenceWeak)
	}

	return detector.ValidResult(detector.ConfidenceFormatValid)
}
