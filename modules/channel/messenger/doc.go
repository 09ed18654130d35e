// Package messenger normalizes Messenger conversation payloads into the
// canonical message model and serializes outgoing messages back into the
// flat form fields a send request carries.
//
// Three payload shapes describe the same conversation feed:
//
//   - Bulk history query results (GraphQL), the richest shape
//   - Realtime push deltas, with JSON-encoded mention and metadata strings
//   - Offline queue pulls, nesting attachments one level deeper
//
// Each shape has its own entry point on Normalizer. The normalizer is a
// stateless value and safe for concurrent use; it performs no I/O.
//
// The module registers itself as "channel.messenger" via init() and exposes
// the normalizer and the action helpers to other modules through the
// service registry.
package messenger
