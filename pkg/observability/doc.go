/*
Package observability turns navigator lifecycle events into Prometheus metrics
and structured log lines.

Both helpers return domain.LifecycleHooks; combine them with
domain.ComposeHooks before handing them to a session.
*/
package observability
