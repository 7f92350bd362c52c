package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var caseNumberRE = regexp.MustCompile(`(\d+)$`)

// FormatCaseID renders a case number as its canonical token: "CASE-" plus a
// zero-padded 5-digit (minimum) decimal number.
func FormatCaseID(number int) string {
	return fmt.Sprintf("CASE-%05d", number)
}

// NormalizeCaseID canonicalizes a case token for storage and lookup. Input
// is case-insensitive; the empty string means "no case id".
func NormalizeCaseID(caseID string) string {
	return strings.ToUpper(strings.TrimSpace(caseID))
}

// CaseNumber extracts the numeric suffix of a case token, or 0 if none.
func CaseNumber(caseID string) int {
	match := caseNumberRE.FindString(caseID)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// backfillCaseIDs assigns a case id to every legacy warning, mute and audit
// entry missing one, advancing the counter past the highest numeric suffix
// already in storage. Already-assigned numbers are never disturbed.
func (db *DB) backfillCaseIDs() {
	next := db.Doc.Counters.NextCase
	if next < 1 {
		next = 1
	}

	ensure := func(caseID *string) {
		*caseID = NormalizeCaseID(*caseID)
		if n := CaseNumber(*caseID); n > 0 {
			if n+1 > next {
				next = n + 1
			}
			return
		}
		*caseID = FormatCaseID(next)
		next++
	}

	for _, w := range db.Doc.Warnings {
		ensure(&w.CaseID)
	}
	for _, m := range db.Doc.Mutes {
		ensure(&m.CaseID)
	}
	for _, e := range db.Doc.AuditLog {
		if e.CaseID == "" && e.Payload != nil {
			if v, ok := e.Payload["caseId"].(string); ok {
				e.CaseID = v
			}
		}
		ensure(&e.CaseID)
		if e.Payload != nil {
			e.Payload["caseId"] = e.CaseID
		}
	}

	db.Doc.Counters.NextCase = next
}
