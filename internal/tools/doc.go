// Package tools implements the tool server's tools and the registry that
// exposes them.
//
// The Registry keeps its own table of tools so tools can call each other
// through the Resolver interface, and mounts the same handlers on an MCP
// server for stdio access.
package tools
