// internal/app/system/search/search.go
package search

import (
	"strings"

	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// EmailPivotOK reports whether it's safe & useful to pivot a paged member
// search from name-based sorting to email-based sorting.
//
// We consider it safe to pivot when:
//   - The caller is clearly searching by email (the query contains '@'), and
//   - The result set is constrained by a canonical membership status, and
//   - The list is constrained to one branch.
//
// Typical usage:
//
//	pivot := search.EmailPivotOK(query, status, branch != nil)
//	sortField := "full_name_ci"
//	if pivot {
//	    sortField = "email"
//	}
//
// For lists across all branches, use EmailPivotNoBranchOK.
func EmailPivotOK(query, status string, hasBranch bool) bool {
	return EmailPivotNoBranchOK(query, status) && hasBranch
}

// EmailPivotNoBranchOK is a variant for lists with no branch constraint.
func EmailPivotNoBranchOK(query, status string) bool {
	return strings.Contains(query, "@") && statusFixed(status)
}

func statusFixed(status string) bool {
	return models.Status(strings.TrimSpace(strings.ToLower(status))).Valid()
}

// NameRange returns the [lo, hi) bounds matching full_name_ci values that
// start with the folded query.
func NameRange(query string) (lo, hi string) {
	lo = text.Fold(strings.TrimSpace(query))
	return lo, lo + "\uffff"
}

// EmailRange returns the [lo, hi) bounds matching emails that start with the
// lowercased query.
func EmailRange(query string) (lo, hi string) {
	lo = strings.ToLower(strings.TrimSpace(query))
	return lo, lo + "\uffff"
}
