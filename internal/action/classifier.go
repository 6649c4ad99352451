package action

import "strings"

// PlanFromText builds a plan from a natural-language request using
// keyword heuristics. This is a development-grade classifier: the
// production intent pipeline lives upstream and posts finished plans
// to the approvals API. It exists for the plan-preview endpoint and
// as a fixture factory in tests.
func PlanFromText(text string) *Plan {
	lower := strings.ToLower(text)

	var (
		actionType ActionType
		params     Parameters
	)

	switch {
	case containsAny(lower, "create", "add", "new", "insert"):
		if strings.Contains(lower, "relationship") || strings.Contains(lower, "connect") {
			actionType = ActionTypeCreateRelationship
			params = CreateRelationshipsParams{}
		} else {
			actionType = ActionTypeCreateNode
			params = CreateNodesParams{
				Labels:     []string{"Element"},
				Properties: map[string]any{"description": text},
			}
		}

	case containsAny(lower, "update", "modify", "change", "edit", "set"):
		actionType = ActionTypeUpdateProperties
		params = UpdatePropertiesParams{
			Properties: map[string]any{"updated": true},
		}

	case containsAny(lower, "delete", "remove", "drop"):
		actionType = ActionTypeDelete
		params = DeleteNodesParams{URIs: []string{"unknown"}}

	case containsAny(lower, "store", "save", "upload", "document"):
		actionType = ActionTypeStoreDocument
		params = StoreDocumentParams{Content: text}

	case containsAny(lower, "segment", "classify", "analyze point"):
		actionType = ActionTypeSegmentPointCloud
		params = SegmentPointCloudParams{}

	default:
		actionType = ActionTypeUpdateProperties
		params = UpdatePropertiesParams{
			Properties: map[string]any{"updated": true},
		}
	}

	plan := &Plan{
		ActionType:   actionType,
		Tool:         params.Tool(),
		Params:       params,
		BulkEstimate: EstimateBulk(text),
	}
	ApplyPolicy(plan)
	return plan
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
