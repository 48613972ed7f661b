// Package llm unifies heterogeneous text-generation vendors behind one
// normalized calling convention.
//
// A vendor integration is anything satisfying [Provider]; in the simplest
// case an opaque request/response function wrapped with [NewProviderFunc].
// The [Registry] routes a model id to the provider that claims it, with an
// optional fallback. The [Manager] is the caller-facing entry point and
// layers rate limiting, response caching, transport retry, logging, and
// metrics around the routed call.
//
// Transport retry (llm/retry) handles getting a response at all. Validating
// the response's structured content is the structured package's concern.
package llm
