// Package internal contains private implementation details for the upload module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - codec: data-URL payload decoding and MIME detection
//   - retry: reusable retry combinator with deterministic backoff
//   - transfer: per-part transmission against signed storage URLs
//   - validation: input and session-plan validation logic
//   - testutil: mocks, recorders, and fixture generation for tests
package internal
