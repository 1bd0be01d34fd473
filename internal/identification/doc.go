// Package identification resolves the lookup tag of a release.
//
// Resolution runs guess, override, cache, then remote service. Movies and
// shows are looked up on TMDB with a language fallback; music on iTunes. A
// successful lookup is cached verbatim under a key derived from the release
// and never refetched. A miss yields the provider's not-found sentinel and is
// not cached. Transport failures are returned as errors so the item is
// retried on the next run instead of being tagged as missing.
package identification
