package ports_test

import (
	"testing"

	"github.com/nodeloom/nodeloom/internal/ports"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"
)

func testRegistry() *registry.Registry {
	r := registry.New()
	r.RegisterStep(&registry.StepDefinition{
		Type: "producer",
		Outputs: []registry.Port{
			{Name: "text", Type: cty.String},
			{Name: "chunks", Type: cty.List(cty.String)},
			{Name: "anything", Type: cty.DynamicPseudoType},
		},
	}, nil)
	r.RegisterStep(&registry.StepDefinition{
		Type: "consumer",
		Inputs: []registry.Port{
			{Name: "text", Type: cty.String},
			{Name: "chunks", Type: cty.List(cty.String)},
			{Name: "anything", Type: cty.DynamicPseudoType},
		},
	}, nil)
	return r
}

func TestValidate(t *testing.T) {
	r := testRegistry()

	cases := []struct {
		name         string
		sourceHandle string
		targetHandle string
		want         bool
	}{
		{"exact text match", "text", "text", true},
		{"exact list match", "chunks", "chunks", true},
		{"text into list rejected", "text", "chunks", false},
		{"list into text rejected", "chunks", "text", false},
		{"wildcard output matches text", "anything", "text", true},
		{"wildcard input matches list", "chunks", "anything", true},
		{"default ports resolve to first declared", "", "", true},
		{"undeclared source port rejected", "ghost", "text", false},
		{"undeclared target port rejected", "text", "ghost", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			edge := workflow.Edge{SourceHandle: tc.sourceHandle, TargetHandle: tc.targetHandle}
			v := ports.Validate(r, edge, "producer", "consumer")
			assert.Equal(t, tc.want, v.OK, "reason: %s", v.Reason)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestValidateUnregisteredTypesAccepted(t *testing.T) {
	r := testRegistry()

	v := ports.Validate(r, workflow.Edge{SourceHandle: "whatever"}, "legacy_step", "consumer")
	assert.True(t, v.OK)

	v = ports.Validate(r, workflow.Edge{TargetHandle: "whatever"}, "producer", "legacy_step")
	assert.True(t, v.OK)
}

func TestValidateNoDeclaredPortsAccepted(t *testing.T) {
	r := registry.New()
	r.RegisterStep(&registry.StepDefinition{Type: "portless"}, nil)
	r.RegisterStep(&registry.StepDefinition{
		Type:   "consumer",
		Inputs: []registry.Port{{Name: "text", Type: cty.String}},
	}, nil)

	v := ports.Validate(r, workflow.Edge{}, "portless", "consumer")
	assert.True(t, v.OK)
}
