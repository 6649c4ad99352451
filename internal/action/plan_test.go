package action_test

import (
	"encoding/json"

	"github.com/kgraph-labs/actiongate/internal/action"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Plan", func() {
	Describe("JSON round-trip", func() {
		It("should preserve a delete plan", func() {
			detach := true
			plan := action.Plan{
				ActionType:           action.ActionTypeDelete,
				Tool:                 action.ToolDeleteNodes,
				Params:               action.DeleteNodesParams{URIs: []string{"x"}, Detach: &detach},
				RequiresConfirmation: true,
			}

			data, err := json.Marshal(plan)
			Expect(err).NotTo(HaveOccurred())

			var decoded action.Plan
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())
			Expect(decoded.ActionType).To(Equal(action.ActionTypeDelete))
			Expect(decoded.Tool).To(Equal(action.ToolDeleteNodes))
			Expect(decoded.RequiresConfirmation).To(BeTrue())

			params, ok := decoded.Params.(action.DeleteNodesParams)
			Expect(ok).To(BeTrue())
			Expect(params.URIs).To(Equal([]string{"x"}))
		})

		It("should keep the wire field names", func() {
			plan := action.Plan{
				ActionType: action.ActionTypeCreateNode,
				Tool:       action.ToolCreateNodes,
				Params:     action.CreateNodesParams{Labels: []string{"Wall"}},
			}

			data, err := json.Marshal(plan)
			Expect(err).NotTo(HaveOccurred())

			var raw map[string]any
			Expect(json.Unmarshal(data, &raw)).To(Succeed())
			Expect(raw).To(HaveKey("action_type"))
			Expect(raw).To(HaveKey("tool"))
			Expect(raw).To(HaveKey("parameters"))
			Expect(raw).To(HaveKey("requires_confirmation"))
		})

		It("should carry unknown tools as raw parameters", func() {
			data := []byte(`{"action_type":"delete","tool":"purge_index","parameters":{"index":"walls"},"requires_confirmation":true}`)

			var decoded action.Plan
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())

			params, ok := decoded.Params.(action.RawParams)
			Expect(ok).To(BeTrue())
			Expect(params.Arguments()).To(HaveKeyWithValue("index", "walls"))
		})
	})

	Describe("DecodePlan", func() {
		It("should reject a plan without a tool", func() {
			_, err := action.DecodePlan([]byte(`{"action_type":"delete","parameters":{}}`))
			Expect(err).To(HaveOccurred())

			var validation *action.ValidationError
			Expect(err).To(BeAssignableToTypeOf(validation))
		})

		It("should force confirmation on delete plans", func() {
			plan, err := action.DecodePlan([]byte(`{"action_type":"delete","tool":"delete_nodes","parameters":{"uris":["x"]}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.RequiresConfirmation).To(BeTrue())
		})
	})

	Describe("Arguments", func() {
		It("should wrap create_nodes into a single-element batch", func() {
			params := action.CreateNodesParams{
				Labels:     []string{"Wall"},
				Properties: map[string]any{"height": 3.2},
			}
			args := params.Arguments()

			nodes, ok := args["nodes"].([]any)
			Expect(ok).To(BeTrue())
			Expect(nodes).To(HaveLen(1))
		})

		It("should default detach to true for delete_nodes", func() {
			args := action.DeleteNodesParams{URIs: []string{"x"}}.Arguments()
			Expect(args).To(HaveKeyWithValue("detach", true))
		})

		It("should default the cypher query and limit", func() {
			args := action.CypherQueryParams{}.Arguments()
			Expect(args).To(HaveKeyWithValue("query", "RETURN 1 AS ok"))
			Expect(args).To(HaveKeyWithValue("limit", 100))
		})

		It("should default create_nodes labels to Element", func() {
			args := action.CreateNodesParams{}.Arguments()
			nodes := args["nodes"].([]any)
			node := nodes[0].(map[string]any)
			Expect(node["labels"]).To(Equal([]string{"Element"}))
		})
	})
})

var _ = Describe("PlanFromText", func() {
	It("should classify delete requests and gate them", func() {
		plan := action.PlanFromText("delete the old wall")
		Expect(plan.ActionType).To(Equal(action.ActionTypeDelete))
		Expect(plan.Tool).To(Equal(action.ToolDeleteNodes))
		Expect(plan.RequiresConfirmation).To(BeTrue())
	})

	It("should gate bulk updates above the threshold", func() {
		plan := action.PlanFromText("update 6 doors")
		Expect(plan.ActionType).To(Equal(action.ActionTypeUpdateProperties))
		Expect(plan.RequiresConfirmation).To(BeTrue())
	})

	It("should only warn on large creates", func() {
		plan := action.PlanFromText("create 20 walls")
		Expect(plan.ActionType).To(Equal(action.ActionTypeCreateNode))
		Expect(plan.RequiresConfirmation).To(BeFalse())
		Expect(plan.Warnings).To(HaveLen(1))
	})

	It("should route relationship language to create_relationships", func() {
		plan := action.PlanFromText("connect the wall to the slab with a new relationship")
		Expect(plan.ActionType).To(Equal(action.ActionTypeCreateRelationship))
		Expect(plan.Tool).To(Equal(action.ToolCreateRelationships))
	})
})
