/*
Package observability exposes stepper's Prometheus metrics.

Metrics implements session.Observer, so wiring it into a Hub is enough to count
sessions, commands, ticks, completions and generated sequence lengths. Handler serves
the registry for scraping at /metrics.
*/
package observability
