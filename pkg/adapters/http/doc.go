/*
Package http exposes an mlens Engine as a JSON API.

Sessions are created with POST /sessions and driven with POST
/sessions/{id}/{action}. Every navigation response is the session View.
GET /sessions/{id}/events streams views as server-sent events. The routes are
described by api/openapi.yaml, served at /openapi.yaml.
*/
package http
