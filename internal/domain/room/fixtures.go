package room

import "strings"

// fixtureQueryResponse synthesizes a `query_response` payload when no OPEN
// agent exists to service a `graphql_query`. A small deterministic function
// keyed by substring matches on the query text — the compact replacement
// for the large demo-payload generator in the source system (spec §9).
func fixtureQueryResponse(query string) map[string]any {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "user"):
		return map[string]any{
			"users": []map[string]any{
				{"id": "fixture-user-1", "name": "Ada Lovelace"},
				{"id": "fixture-user-2", "name": "Grace Hopper"},
			},
		}
	case strings.Contains(q, "ping"):
		return map[string]any{"ok": true}
	default:
		return map[string]any{"result": "fixture-response", "query": query}
	}
}

// fixtureDocsResponse synthesizes a `docs` payload when no OPEN agent
// exists to service a `get_docs`.
func fixtureDocsResponse(query string) map[string]any {
	return map[string]any{
		"docs": []map[string]any{
			{"title": "Getting Started", "url": "/docs/getting-started"},
			{"title": "API Reference", "url": "/docs/api-reference"},
		},
		"query": query,
	}
}
