package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/kgraph-labs/actiongate/internal/approval"
	"github.com/kgraph-labs/actiongate/internal/audit"
	"github.com/kgraph-labs/actiongate/internal/executor"
	"github.com/kgraph-labs/actiongate/internal/httpapi"
	"github.com/kgraph-labs/actiongate/internal/mcphost"
	"github.com/kgraph-labs/actiongate/pkg/config"
	"github.com/mark3labs/mcp-go/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(GinkgoWriter, nil))
}

// fakeSession is a healthy graph backend for end-to-end handler tests.
type fakeSession struct{}

func (f *fakeSession) Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	return &mcp.InitializeResult{}, nil
}

func (f *fakeSession) ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	return &mcp.ListToolsResult{
		Tools: []mcp.Tool{
			{Name: "create_nodes"},
			{Name: "delete_nodes"},
			{Name: "update_properties"},
			{Name: "cypher_query"},
		},
	}, nil
}

func (f *fakeSession) CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: `[{"status":"success","deleted":1}]`},
		},
	}, nil
}

func (f *fakeSession) Close() error { return nil }

func healthyFactory(cfg config.ToolServerConfig) (mcphost.ToolSession, error) {
	return &fakeSession{}, nil
}

func brokenFactory(cfg config.ToolServerConfig) (mcphost.ToolSession, error) {
	return nil, errors.New("spawn failed")
}

func neo4jConfig() config.ToolServerConfig {
	return config.ToolServerConfig{
		Name:    "neo4j",
		Command: "true",
		Timeout: 5 * time.Second,
		Enabled: true,
	}
}

const deletePlanBody = `{
	"action_plan": {
		"action_type": "delete",
		"tool": "delete_nodes",
		"parameters": {"uris": ["x"]},
		"requires_confirmation": true
	},
	"user_id": "alice",
	"session_id": "s1"
}`

var _ = Describe("Handler", func() {
	var (
		mux   *http.ServeMux
		store *approval.Store
	)

	setup := func(factory mcphost.SessionFactory) {
		store = approval.NewStore("", testLogger())
		host := mcphost.NewHost(10, factory, testLogger())
		host.Initialize(context.Background(), []config.ToolServerConfig{neo4jConfig()})

		sink := audit.NewNoOpSink()
		exec := executor.NewExecutor(host, sink, testLogger())
		handler := httpapi.NewHandler(store, exec, host, sink, testLogger())

		mux = http.NewServeMux()
		handler.RegisterRoutes(mux)
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var reader *bytes.Reader
		if body == "" {
			reader = bytes.NewReader(nil)
		} else {
			reader = bytes.NewReader([]byte(body))
		}
		req := httptest.NewRequest(method, path, reader)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	decodeAction := func(rec *httptest.ResponseRecorder, key string) map[string]any {
		var payload map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &payload)).To(Succeed())
		if key == "" {
			return payload
		}
		action, ok := payload[key].(map[string]any)
		Expect(ok).To(BeTrue(), "response missing %q: %s", key, rec.Body.String())
		return action
	}

	BeforeEach(func() {
		setup(healthyFactory)
	})

	Describe("POST /api/approvals", func() {
		It("should queue a valid plan as pending", func() {
			rec := do(http.MethodPost, "/api/approvals", deletePlanBody)
			Expect(rec.Code).To(Equal(http.StatusCreated))

			item := decodeAction(rec, "")
			Expect(item["status"]).To(Equal("pending"))
			Expect(item["id"]).NotTo(BeEmpty())
			Expect(item["user_id"]).To(Equal("alice"))
		})

		It("should reject a plan without a tool", func() {
			rec := do(http.MethodPost, "/api/approvals", `{"action_plan":{"action_type":"delete","parameters":{}}}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject an unreadable body", func() {
			rec := do(http.MethodPost, "/api/approvals", "{not json")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/approvals/{id}", func() {
		It("should return 404 for an unknown id", func() {
			rec := do(http.MethodGet, "/api/approvals/no-such-id", "")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should return the stored record", func() {
			created := decodeAction(do(http.MethodPost, "/api/approvals", deletePlanBody), "")

			rec := do(http.MethodGet, "/api/approvals/"+created["id"].(string), "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decodeAction(rec, "")["id"]).To(Equal(created["id"]))
		})
	})

	Describe("GET /api/approvals/pending", func() {
		It("should filter by status", func() {
			created := decodeAction(do(http.MethodPost, "/api/approvals", deletePlanBody), "")
			_ = decodeAction(do(http.MethodPost, "/api/approvals", deletePlanBody), "")

			rec := do(http.MethodPost, "/api/approvals/"+created["id"].(string)+"/reject", `{"reason":"no"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = do(http.MethodGet, "/api/approvals/pending?status=pending", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			var items []map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &items)).To(Succeed())
			Expect(items).To(HaveLen(1))
		})

		It("should reject an unknown status", func() {
			rec := do(http.MethodGet, "/api/approvals/pending?status=sideways", "")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("approve and execute", func() {
		It("should run the full delete scenario against a healthy backend", func() {
			created := decodeAction(do(http.MethodPost, "/api/approvals", deletePlanBody), "")
			Expect(created["status"]).To(Equal("pending"))
			id := created["id"].(string)

			rec := do(http.MethodPost, "/api/approvals/"+id+"/approve", `{"execute":true,"approved_by":"bob"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			payload := decodeAction(rec, "")
			Expect(payload["status"]).To(Equal("executed"))

			item := decodeAction(rec, "action")
			Expect(item["status"]).To(Equal("executed"))
			Expect(item["approved_by"]).To(Equal("bob"))
			Expect(item["execution_result"]).NotTo(BeNil())
		})

		It("should approve without executing when execute is false", func() {
			created := decodeAction(do(http.MethodPost, "/api/approvals", deletePlanBody), "")
			id := created["id"].(string)

			rec := do(http.MethodPost, "/api/approvals/"+id+"/approve", `{"execute":false}`)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decodeAction(rec, "")["status"]).To(Equal("approved"))
			Expect(decodeAction(rec, "action")["status"]).To(Equal("approved"))
		})

		It("should return 404 for an unknown id", func() {
			rec := do(http.MethodPost, "/api/approvals/no-such-id/approve", `{"execute":false}`)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should mark execution with a dead backend as executed with a fallback result", func() {
			setup(brokenFactory)

			created := decodeAction(do(http.MethodPost, "/api/approvals", deletePlanBody), "")
			id := created["id"].(string)

			rec := do(http.MethodPost, "/api/approvals/"+id+"/approve", `{"execute":true}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			item := decodeAction(rec, "action")
			Expect(item["status"]).To(Equal("executed"))

			var records []map[string]any
			raw, err := json.Marshal(item["execution_result"])
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(raw, &records)).To(Succeed())
			Expect(records).To(HaveLen(1))
			Expect(records[0]).To(HaveKeyWithValue("note", "fallback_result_no_mcp"))
		})
	})

	Describe("reject", func() {
		It("should record the reason and close the record to approval", func() {
			created := decodeAction(do(http.MethodPost, "/api/approvals", deletePlanBody), "")
			id := created["id"].(string)

			rec := do(http.MethodPost, "/api/approvals/"+id+"/reject", `{"rejected_by":"bob","reason":"not needed"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			item := decodeAction(rec, "action")
			Expect(item["status"]).To(Equal("rejected"))
			Expect(item["rejection_reason"]).To(Equal("not needed"))

			rec = do(http.MethodPost, "/api/approvals/"+id+"/approve", `{"execute":false}`)
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("should return 404 for an unknown id", func() {
			rec := do(http.MethodPost, "/api/approvals/no-such-id/reject", `{}`)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /api/plans", func() {
		It("should preview a plan without queueing it", func() {
			rec := do(http.MethodPost, "/api/plans", `{"text":"delete all walls"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			plan := decodeAction(rec, "")
			Expect(plan["action_type"]).To(Equal("delete"))
			Expect(plan["requires_confirmation"]).To(Equal(true))
			Expect(plan["bulk_estimate"]).To(BeNumerically("==", 999))

			Expect(store.List(nil)).To(BeEmpty())
		})

		It("should reject an empty text", func() {
			rec := do(http.MethodPost, "/api/plans", `{"text":""}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/health", func() {
		It("should report server health", func() {
			rec := do(http.MethodGet, "/api/health", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			payload := decodeAction(rec, "")
			Expect(payload["total"]).To(BeNumerically("==", 1))
			Expect(payload["healthy"]).To(BeNumerically("==", 1))
		})
	})

	Describe("GET /api/tools", func() {
		It("should list discovered tools per server", func() {
			rec := do(http.MethodGet, "/api/tools?server=neo4j", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var payload map[string][]map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &payload)).To(Succeed())
			Expect(payload["neo4j"]).To(HaveLen(4))
		})
	})
})
