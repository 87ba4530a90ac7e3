// Package timeouts defines shared timeout constants used across the
// engine. Centralizing these values prevents drift between boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ModelRequest caps a single generation or evaluation round-trip to the
// language-model endpoint.
const ModelRequest = 30 * time.Second

// AvailabilityProbe caps the lightweight reachability check that gates
// challenge initiation.
const AvailabilityProbe = 3 * time.Second

// Shutdown limits how long the process waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
