// Package mcp exposes the form engine's compile/validate/evaluate
// pipeline as MCP tools for AI agents, over this engine's
// journey/step/block model.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with formengine tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"formengine",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("formengine/validate_journey",
			mcp.WithDescription("Validate a declarative journey YAML document against the generated schema"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the journey YAML file")),
		),
		HandleValidateJourney,
	)

	s.AddTool(
		mcp.NewTool("formengine/compile_step",
			mcp.WithDescription("Compile one step of a journey into its IR artefact and report its size"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the journey YAML file")),
			mcp.WithString("step", mcp.Description("Path of the step to compile (defaults to the journey's first step)")),
		),
		HandleCompileStep,
	)

	s.AddTool(
		mcp.NewTool("formengine/evaluate_step",
			mcp.WithDescription("Evaluate one GET or POST request against a compiled step and return its result"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the journey YAML file")),
			mcp.WithString("step", mcp.Description("Path of the step to evaluate (defaults to the journey's first step)")),
			mcp.WithString("method", mcp.Description("Request method: GET or POST")),
			mcp.WithObject("post", mcp.Description("POST field values, keyed by field code")),
		),
		HandleEvaluateStep,
	)

	s.AddTool(
		mcp.NewTool("formengine/schema",
			mcp.WithDescription("Export the generated journey JSON Schema"),
		),
		HandleSchema,
	)

	return s
}
