/*
Package ports defines the driven ports (interfaces) of the flowplan pipeline.

These interfaces decouple compilation and reconstruction from the outside world, so the
same flow can be planned by a local process, a remote planner service or a scripted fake,
with or without caching.

# Key Interfaces

  - Planner: solves a compiled PDDL problem and returns the raw plan text.
  - PlanCache: stores raw plans keyed by problem, so identical problems are solved once.
  - CatalogLoader: loads operator catalogs (e.g., from a Loam directory).
  - DistributedLocker: serializes planner calls for the same problem across replicas.
*/
package ports
