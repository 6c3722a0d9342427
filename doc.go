// Package roombus implements the multi-tenant realtime message bus: a
// Front Router that resolves inbound HTTP and websocket traffic to a
// per-project Room actor, and a Credential Gateway that issues and
// validates the API keys the router checks.
//
// The service provides:
//   - Per-project Room actors that admit runtime/agent/prod/admin sockets,
//     route JSON envelopes with request/response correlation and timeouts,
//     and archive traffic into hour-keyed log buckets
//   - A Credential Gateway for issuing, validating, describing, and
//     revoking per-project API keys
//   - Usage counters and idle-triggered Room suspension
//
// For more information, see the README.md file.
package roombus
