/*
Package observability provides Prometheus instrumentation for the flowplan pipeline.

Metrics live in their own registry so several services (or tests) can coexist in
one process. The HTTP adapter exposes the registry on /metrics.
*/
package observability
