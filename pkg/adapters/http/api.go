package http

import (
	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
)

// FlowRequest is the body of /validate, /compile and /plan.
type FlowRequest struct {
	Flow         domain.FlowDocument `json:"flow"`
	Options      options.Tags        `json:"options"`
	Lookahead    int                 `json:"lookahead,omitempty"`
	CollapseMaps bool                `json:"collapse_maps,omitempty"`
}

// CompileResponse is the body returned by /compile.
type CompileResponse struct {
	Flow       string          `json:"flow"`
	Domain     string          `json:"domain"`
	Problem    string          `json:"problem"`
	Transforms []transformPair `json:"transforms,omitempty"`
}

type transformPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error       string              `json:"error"`
	RequestID   string              `json:"request_id,omitempty"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
}

// PlanResponse is the body returned by /plan.
type PlanResponse = flowplan.PlanResult

// plannerRequest is the wire format of a remote planner call.
type plannerRequest struct {
	Domain  string `json:"domain"`
	Problem string `json:"problem"`
}

// plannerResponse is the JSON form a remote planner may answer with.
type plannerResponse struct {
	Plans []struct {
		Actions []string `json:"actions"`
		Cost    float64  `json:"cost"`
	} `json:"plans"`
	Error string `json:"error,omitempty"`
}
