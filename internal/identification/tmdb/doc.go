// Package tmdb provides the minimal TMDB API client used by the lookup stage.
//
// It exposes movie and TV search (first result only, optional release-year
// filter) and raw detail retrieval. Details are kept as raw JSON so they can be
// cached verbatim. A 404 is reported as "no result" rather than an error;
// transport failures and non-200 statuses are wrapped with the services
// sentinels so callers can tell a missing title from an unreachable API.
package tmdb
