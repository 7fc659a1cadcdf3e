package domain

// Built-in sorts of the planning domain.
const (
	// RootType is the implicit parent of every declared type.
	RootType = "generic"
	// OperatorType is reserved. Operators are never emitted as objects.
	OperatorType = "operator"
	// ConstraintType is the sort of constraint constants.
	ConstraintType = "constraint"
	// TruthType is the sort of the two truth constants.
	TruthType = "truth"
	// ObjectType is the top sort in PDDL.
	ObjectType = "object"
)

// Reserved pseudo-action names. The plan grammar recognises these by exact name.
const (
	// ActionSlotFiller requests a missing value from the user.
	ActionSlotFiller = "ask"
	// ActionMapper reuses the value of one memory item for another.
	ActionMapper = "map"
	// ActionConfirm confirms an uncertain value.
	ActionConfirm = "confirm"
	// ActionAssert asserts the truth value of a constraint.
	ActionAssert = "assert"
)

var reservedActions = map[string]struct{}{
	ActionSlotFiller: {},
	ActionMapper:     {},
	ActionConfirm:    {},
	ActionAssert:     {},
}

var reservedTypes = map[string]struct{}{
	RootType:       {},
	OperatorType:   {},
	ConstraintType: {},
	TruthType:      {},
	ObjectType:     {},
}

// IsReservedAction reports whether name is one of the pseudo-action names.
func IsReservedAction(name string) bool {
	_, ok := reservedActions[name]
	return ok
}

// IsBuiltinType reports whether name is a sort emitted by the compiler itself.
func IsBuiltinType(name string) bool {
	_, ok := reservedTypes[name]
	return ok
}

// DefaultCost is the cost of an operator that does not declare one.
const DefaultCost = 1
