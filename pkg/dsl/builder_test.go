package dsl

import (
	"testing"

	"github.com/aretw0/flowplan/internal/validator"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	flow, err := New("errors").
		Known("Database Link").
		Operator("Find Errors").In("Database Link").Out("list_of_errors").End().
		Operator("Fix Errors").In("list_of_errors").Cost(2).End().
		GoalOperator("Fix Errors").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "errors", flow.Name)
	require.Len(t, flow.Operators, 2)

	find, ok := flow.Operator("Find Errors")
	require.True(t, ok)
	assert.Equal(t, []string{"Database Link"}, find.InputParameters())
	assert.Equal(t, []string{"list_of_errors"}, find.OutputParameters(0))

	fix, _ := flow.Operator("Fix Errors")
	assert.Equal(t, 2, fix.EffectiveCost())

	item, ok := flow.MemoryItem("list_of_errors")
	require.True(t, ok, "referenced items are declared")
	assert.Equal(t, domain.MemoryStateUnknown, item.KnowledgeState())

	require.Len(t, flow.Goals, 1)
	assert.Equal(t, domain.OperatorGoal("Fix Errors"), flow.Goals[0].Goals[0])
}

func TestBuilder_Outcomes(t *testing.T) {
	flow := New("retry").
		Operator("Try Fix").
		Outcome().Out("fixed").Probability(0.8).
		Outcome().Sets("errors remain", true).
		End().
		GoalOperator("Try Fix").
		MustBuild()

	op, _ := flow.Operator("Try Fix")
	require.Len(t, op.Outcomes, 2)
	assert.Equal(t, []string{"fixed"}, op.OutputParameters(0))
	require.NotNil(t, op.Outcomes[0].Probability)
	assert.InDelta(t, 0.8, *op.Outcomes[0].Probability, 1e-9)

	c := op.Outcomes[1].Effects[0].Constraints[0]
	assert.Equal(t, "errors remain", c.ID)
	v, ok := c.Value()
	assert.True(t, ok)
	assert.True(t, v)
}

func TestBuilder_FullSurface(t *testing.T) {
	flow := New("orders").
		Type("document", "", "invoice").
		Item("receipt", "invoice").
		Uncertain("email").
		Known("customer").
		Map("customer", "email", 0.5).
		Constraint("email is valid", true, "email").
		Operator("Load").In("customer").Out("receipt").End().
		Operator("Send").In("email", "receipt").Requires("email is valid", true, "email").End().
		Order("Load", "Send").
		StartsWith("Load").
		EndsWith("Send").
		GoalObject("invoice").
		MustBuild()

	assert.Equal(t, "Load", flow.StartsWith)
	assert.Equal(t, "Send", flow.EndsWith)
	assert.True(t, flow.IsSubtype("invoice", "document"))
	require.Len(t, flow.Mappings, 1)
	assert.InDelta(t, 0.5, flow.Mappings[0].Likelihood(), 1e-9)
	assert.True(t, validator.Validate(flow).Valid())
}

func TestBuilder_ValidationError(t *testing.T) {
	_, err := New("broken").
		Operator("Fix Errors").End().
		GoalOperator("Deploy").
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidFlow)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validator.CheckGoals, verr.Diagnostics[0].Check)
}

func TestBuilder_UnknownAnchor(t *testing.T) {
	_, err := New("anchored").
		Operator("Run").End().
		StartsWith("Walk").
		Build()
	assert.ErrorIs(t, err, domain.ErrUnknownEntity)
}

func TestBuilder_Catalog(t *testing.T) {
	catalog := domain.Catalog{
		Operators:   []domain.OperatorDefinition{{Name: "Summarize", Inputs: []domain.SignatureItem{domain.Signature("text")}}},
		MemoryItems: []domain.MemoryItem{{ID: "text"}},
	}
	flow := New("catalog").Known("text").Catalog(catalog).GoalOperator("Summarize").MustBuild()

	item, _ := flow.MemoryItem("text")
	assert.Equal(t, domain.MemoryStateKnown, item.State)
	assert.Len(t, flow.MemoryItems, 1)
}

func TestBuilder_FlowIsRepeatable(t *testing.T) {
	b := New("twice").Operator("Run").In("x").End().GoalOperator("Run")
	first, err := b.Flow()
	require.NoError(t, err)
	second, err := b.Flow()
	require.NoError(t, err)
	assert.Equal(t, first.Operators, second.Operators)
	assert.Len(t, second.MemoryItems, 1)
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() {
		New("broken").GoalOperator("Nothing").MustBuild()
	})
}
