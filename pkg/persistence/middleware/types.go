package middleware

import "github.com/aretw0/flowplan/pkg/ports"

// Middleware allows wrapping a PlanCache to add behavior.
type Middleware func(ports.PlanCache) ports.PlanCache
