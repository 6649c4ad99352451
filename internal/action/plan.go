package action

import (
	"encoding/json"
	"fmt"
)

// ActionType classifies the kind of state mutation a plan intends.
type ActionType string

const (
	ActionTypeCreateNode         ActionType = "create_node"
	ActionTypeCreateRelationship ActionType = "create_relationship"
	ActionTypeUpdateProperties   ActionType = "update_properties"
	ActionTypeDelete             ActionType = "delete"
	ActionTypeStoreDocument      ActionType = "store_document"
	ActionTypeSegmentPointCloud  ActionType = "segment_pointcloud"
)

// Tool names as exposed by the backend tool servers.
const (
	ToolCreateNodes         = "create_nodes"
	ToolCreateRelationships = "create_relationships"
	ToolUpdateProperties    = "update_properties"
	ToolDeleteNodes         = "delete_nodes"
	ToolCypherQuery         = "cypher_query"
	ToolStoreDocument       = "store_document"
	ToolOnlineSegmentation  = "online_segmentation"
)

// Parameters is the typed payload of a plan, one variant per tool.
// Arguments returns the argument map in the exact shape the backend
// tool expects, applying the tool's defaults.
type Parameters interface {
	Tool() string
	ServerName() string
	Arguments() map[string]any
}

type CreateNodesParams struct {
	Labels     []string       `json:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (p CreateNodesParams) Tool() string       { return ToolCreateNodes }
func (p CreateNodesParams) ServerName() string { return "neo4j" }

func (p CreateNodesParams) Arguments() map[string]any {
	labels := p.Labels
	if len(labels) == 0 {
		labels = []string{"Element"}
	}
	properties := p.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	// The backend takes a batch; a single plan contributes one node.
	return map[string]any{
		"nodes": []any{
			map[string]any{"labels": labels, "properties": properties},
		},
	}
}

type CreateRelationshipsParams struct {
	FromURI    string         `json:"from_uri,omitempty"`
	ToURI      string         `json:"to_uri,omitempty"`
	Type       string         `json:"relationship_type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (p CreateRelationshipsParams) Tool() string       { return ToolCreateRelationships }
func (p CreateRelationshipsParams) ServerName() string { return "neo4j" }

func (p CreateRelationshipsParams) Arguments() map[string]any {
	from := p.FromURI
	if from == "" {
		from = "unknown"
	}
	to := p.ToURI
	if to == "" {
		to = "unknown"
	}
	relType := p.Type
	if relType == "" {
		relType = "RELATES_TO"
	}
	properties := p.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{
		"relationships": []any{
			map[string]any{
				"from_uri":   from,
				"to_uri":     to,
				"type":       relType,
				"properties": properties,
			},
		},
	}
}

type UpdatePropertiesParams struct {
	TargetType string         `json:"target_type,omitempty"`
	URI        string         `json:"uri,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Merge      *bool          `json:"merge,omitempty"`
}

func (p UpdatePropertiesParams) Tool() string       { return ToolUpdateProperties }
func (p UpdatePropertiesParams) ServerName() string { return "neo4j" }

func (p UpdatePropertiesParams) Arguments() map[string]any {
	targetType := p.TargetType
	if targetType == "" {
		targetType = "node"
	}
	uri := p.URI
	if uri == "" {
		uri = "unknown"
	}
	properties := p.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	merge := true
	if p.Merge != nil {
		merge = *p.Merge
	}
	return map[string]any{
		"target_type": targetType,
		"uri":         uri,
		"properties":  properties,
		"merge":       merge,
	}
}

type DeleteNodesParams struct {
	URIs   []string `json:"uris,omitempty"`
	Detach *bool    `json:"detach,omitempty"`
}

func (p DeleteNodesParams) Tool() string       { return ToolDeleteNodes }
func (p DeleteNodesParams) ServerName() string { return "neo4j" }

func (p DeleteNodesParams) Arguments() map[string]any {
	uris := p.URIs
	if uris == nil {
		uris = []string{}
	}
	detach := true
	if p.Detach != nil {
		detach = *p.Detach
	}
	return map[string]any{
		"uris":   uris,
		"detach": detach,
	}
}

type CypherQueryParams struct {
	Query      string         `json:"query,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Limit      int            `json:"limit,omitempty"`
}

func (p CypherQueryParams) Tool() string       { return ToolCypherQuery }
func (p CypherQueryParams) ServerName() string { return "neo4j" }

func (p CypherQueryParams) Arguments() map[string]any {
	query := p.Query
	if query == "" {
		query = "RETURN 1 AS ok"
	}
	parameters := p.Parameters
	if parameters == nil {
		parameters = map[string]any{}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}
	return map[string]any{
		"query":      query,
		"parameters": parameters,
		"limit":      limit,
	}
}

type StoreDocumentParams struct {
	Collection string `json:"collection,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Content    string `json:"content,omitempty"`
}

func (p StoreDocumentParams) Tool() string       { return ToolStoreDocument }
func (p StoreDocumentParams) ServerName() string { return "basex" }

func (p StoreDocumentParams) Arguments() map[string]any {
	collection := p.Collection
	if collection == "" {
		collection = "documents"
	}
	return map[string]any{
		"collection":  collection,
		"document_id": p.DocumentID,
		"content":     p.Content,
	}
}

type SegmentPointCloudParams struct {
	ScanURI string   `json:"scan_uri,omitempty"`
	Classes []string `json:"classes,omitempty"`
}

func (p SegmentPointCloudParams) Tool() string       { return ToolOnlineSegmentation }
func (p SegmentPointCloudParams) ServerName() string { return "pointnet" }

func (p SegmentPointCloudParams) Arguments() map[string]any {
	args := map[string]any{"scan_uri": p.ScanURI}
	if len(p.Classes) > 0 {
		args["classes"] = p.Classes
	}
	return args
}

// RawParams carries parameters for a tool this build does not know.
// Plans persisted by older or newer builds still round-trip through
// the approval queue; execution routes them to the given server as-is.
type RawParams struct {
	ToolName string
	Server   string
	Values   map[string]any
}

func (p RawParams) Tool() string       { return p.ToolName }
func (p RawParams) ServerName() string { return p.Server }

func (p RawParams) Arguments() map[string]any {
	if p.Values == nil {
		return map[string]any{}
	}
	return p.Values
}

// Plan is the unit of intended work handed to the approval queue and
// the executor. Parameters is immutable after creation.
type Plan struct {
	ActionType           ActionType
	Tool                 string
	Params               Parameters
	RequiresConfirmation bool
	BulkEstimate         *int
	Warnings             []string
}

type planJSON struct {
	ActionType           ActionType      `json:"action_type"`
	Tool                 string          `json:"tool"`
	Parameters           json.RawMessage `json:"parameters"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	BulkEstimate         *int            `json:"bulk_estimate,omitempty"`
	Warnings             []string        `json:"warnings,omitempty"`
}

func (p Plan) MarshalJSON() ([]byte, error) {
	var params any = map[string]any{}
	if p.Params != nil {
		if raw, ok := p.Params.(RawParams); ok {
			params = raw.Arguments()
		} else {
			params = p.Params
		}
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	return json.Marshal(planJSON{
		ActionType:           p.ActionType,
		Tool:                 p.Tool,
		Parameters:           rawParams,
		RequiresConfirmation: p.RequiresConfirmation,
		BulkEstimate:         p.BulkEstimate,
		Warnings:             p.Warnings,
	})
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	var aux planJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	params, err := decodeParameters(aux.Tool, aux.Parameters)
	if err != nil {
		return err
	}

	p.ActionType = aux.ActionType
	p.Tool = aux.Tool
	p.Params = params
	p.RequiresConfirmation = aux.RequiresConfirmation
	p.BulkEstimate = aux.BulkEstimate
	p.Warnings = aux.Warnings
	return nil
}

func decodeParameters(tool string, raw json.RawMessage) (Parameters, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	switch tool {
	case ToolCreateNodes:
		var v CreateNodesParams
		return unmarshalValue(raw, tool, &v)
	case ToolCreateRelationships:
		var v CreateRelationshipsParams
		return unmarshalValue(raw, tool, &v)
	case ToolUpdateProperties:
		var v UpdatePropertiesParams
		return unmarshalValue(raw, tool, &v)
	case ToolDeleteNodes:
		var v DeleteNodesParams
		return unmarshalValue(raw, tool, &v)
	case ToolCypherQuery:
		var v CypherQueryParams
		return unmarshalValue(raw, tool, &v)
	case ToolStoreDocument:
		var v StoreDocumentParams
		return unmarshalValue(raw, tool, &v)
	case ToolOnlineSegmentation:
		var v SegmentPointCloudParams
		return unmarshalValue(raw, tool, &v)
	default:
		values := map[string]any{}
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("invalid parameters for tool %s: %w", tool, err)
		}
		return RawParams{ToolName: tool, Values: values}, nil
	}
}

func unmarshalValue[T Parameters](raw json.RawMessage, tool string, v *T) (Parameters, error) {
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("invalid parameters for tool %s: %w", tool, err)
	}
	return *v, nil
}

// DecodePlan parses and validates a plan received over the wire.
func DecodePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks the structural invariants of a plan. Destructive
// plans are forced to require confirmation, no matter what the
// producing classifier decided.
func (p *Plan) Validate() error {
	if p.Tool == "" {
		return &ValidationError{Reason: "plan is missing a tool name"}
	}
	if p.ActionType == "" {
		return &ValidationError{Reason: "plan is missing an action type"}
	}
	if p.Params == nil {
		return &ValidationError{Reason: "plan is missing parameters"}
	}
	if p.ActionType == ActionTypeDelete {
		p.RequiresConfirmation = true
	}
	return nil
}
