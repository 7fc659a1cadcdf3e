/*
Package dsl provides a fluent builder for constructing flows in Go.

It is an alternative to YAML or JSON flow documents, useful for generated flows,
tests and IDE autocompletion.

	flow, err := dsl.New("errors").
		Known("Database Link").
		Operator("Find Errors").In("Database Link").Out("list_of_errors").End().
		Operator("Fix Errors").In("list_of_errors").End().
		GoalOperator("Fix Errors").
		Build()

Memory items referenced by an operator but never declared are added as unknown
items. Build runs the validation checks and returns a *domain.ValidationError when
any of them fail.
*/
package dsl
