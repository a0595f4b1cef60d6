// Package search provides web search capability providers.
//
// A Provider is selected from a closed set of kinds (DuckDuckGo, Serper,
// Tavily) at construction time. New validates credentials up front: a
// key-authenticated kind without a key fails with ErrMissingAPIKey, and an
// unrecognised kind fails with ErrUnknownProvider.
//
// Once constructed, a Provider never returns an error from Search. Network
// failures, non-2xx responses, malformed bodies and timeouts are logged and
// degrade to an empty result slice.
//
// Tool adds a default result limit on top of a Provider, and Cache adds a
// TTL bounded result cache that collapses concurrent identical queries.
package search
