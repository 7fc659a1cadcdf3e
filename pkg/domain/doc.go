/*
Package domain contains the declarative data model of a flow and of the plans decoded for it.

A FlowDefinition is a passive graph: a catalog of operators (agent actions), a type hierarchy,
typed memory items with a knowledge state, value mappings between memory items, constraints, partial
orders and goals. It is assembled incrementally through explicit, additive operations and is never
mutated by the compiler.

# Key Entities

  - OperatorDefinition: an agent action with ordered inputs and one or more outcomes.
  - MemoryItem: a variable whose value may or may not be known at planning time.
  - MappingItem: a declared possibility of reusing one memory item's value for another.
  - GoalItems: goal components (GoalItem or Constraint) combined under a goal policy.
  - Plan: the decoded, ordered sequence of Steps (ActionStep or ConstraintStep).

This package keeps no I/O apart from decoding flow documents (YAML, JSON or generic maps).
*/
package domain
