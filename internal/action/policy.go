package action

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Confirmation thresholds. Deletes are gated unconditionally; bulk
// updates above the update threshold are gated; large creates only
// warn.
const (
	bulkUpdateThreshold = 5
	bulkCreateThreshold = 10

	// Estimate assigned when the request indicates global scope
	// ("delete all walls") and no real count is available.
	GlobalScopeEstimate = 999
)

// EvaluatePolicy decides whether a plan needs human confirmation and
// collects advisory warnings. It is a pure function; the caller owns
// applying the result to the plan.
func EvaluatePolicy(actionType ActionType, bulkEstimate *int) (bool, []string) {
	var warnings []string

	if actionType == ActionTypeDelete {
		return true, warnings
	}

	if actionType == ActionTypeUpdateProperties && bulkEstimate != nil && *bulkEstimate > bulkUpdateThreshold {
		return true, warnings
	}

	if actionType == ActionTypeCreateNode && bulkEstimate != nil && *bulkEstimate > bulkCreateThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"Large create detected (estimated %d items). Consider running in smaller batches.",
			*bulkEstimate,
		))
	}

	return false, warnings
}

// ApplyPolicy evaluates the confirmation policy against a plan and
// writes the decision back into it.
func ApplyPolicy(plan *Plan) {
	required, warnings := EvaluatePolicy(plan.ActionType, plan.BulkEstimate)
	plan.RequiresConfirmation = required
	plan.Warnings = append(plan.Warnings, warnings...)
}

var (
	globalScopeMarkers = []string{"all ", "every ", "entire ", "bulk "}

	verbCountPattern = regexp.MustCompile(`\b(?:create|add|insert|update|modify|change|delete|remove)\s+(\d{1,4})\b`)
	countNounPattern = regexp.MustCompile(`\b(\d{1,4})\s+(?:items?|nodes?|elements?|segments?)\b`)
)

// EstimateBulk guesses how many items a natural-language request might
// affect. A nil result means "unknown" and never triggers a gate on
// its own.
func EstimateBulk(text string) *int {
	lower := strings.ToLower(text)

	for _, marker := range globalScopeMarkers {
		if strings.Contains(lower, marker) {
			estimate := GlobalScopeEstimate
			return &estimate
		}
	}

	if m := verbCountPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}

	if m := countNounPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}

	return nil
}
