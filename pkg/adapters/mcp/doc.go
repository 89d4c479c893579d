// Package mcp exposes mlens sessions as Model Context Protocol tools, so an
// agent can create a trace and step through it.
package mcp
