package executor

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Record is one normalized result row.
type Record map[string]any

// Decoded is the sum of envelope shapes a tool server may answer
// with: structured records, or an opaque blob we could not parse.
type Decoded struct {
	Records      []Record
	Unstructured string
}

// IsStructured reports whether the decode produced usable records.
func (d Decoded) IsStructured() bool {
	return d.Records != nil
}

// Normalize flattens a decode into the record list callers consume.
// Unstructured payloads become a single marker record rather than an
// error; the executor fails soft by contract.
func (d Decoded) Normalize() []Record {
	if d.IsStructured() {
		return d.Records
	}
	return []Record{{"status": "unknown", "raw": d.Unstructured}}
}

// DecodeResult inspects a tool-call result envelope. Servers answer
// with a content list whose first entry is usually a text block
// holding a JSON object or array; anything else decodes as
// unstructured.
func DecodeResult(result *mcp.CallToolResult) Decoded {
	if result == nil || len(result.Content) == 0 {
		return Decoded{Unstructured: fmt.Sprintf("%v", result)}
	}

	text, ok := textOf(result.Content[0])
	if !ok {
		return Decoded{Unstructured: fmt.Sprintf("%v", result.Content[0])}
	}

	var asList []Record
	if err := json.Unmarshal([]byte(text), &asList); err == nil {
		return Decoded{Records: asList}
	}

	var asObject Record
	if err := json.Unmarshal([]byte(text), &asObject); err == nil {
		return Decoded{Records: []Record{asObject}}
	}

	return Decoded{Unstructured: text}
}

func textOf(content mcp.Content) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		return c.Text, true
	}
	return "", false
}
