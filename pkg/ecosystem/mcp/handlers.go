package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/decl"
	"github.com/ormasoftchile/formengine/pkg/evaluator"
	"github.com/ormasoftchile/formengine/pkg/formhost"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

// HandleValidateJourney implements the formengine/validate_journey tool.
func HandleValidateJourney(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	doc, err := formhost.LoadDoc(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	errs := decl.Validate(doc)
	if len(errs) > 0 {
		return errorResult(formatDeclErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d steps)", path, formhost.CountSteps(doc))), nil
}

// HandleCompileStep implements the formengine/compile_step tool.
func HandleCompileStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	stepPath, _ := args["step"].(string)

	step, _, resolved, err := formhost.CompileJourneyStep(path, stepPath)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	data, _ := json.MarshalIndent(map[string]any{
		"step":     resolved,
		"nodes":    step.Registry.Size(),
		"handlers": len(step.Handlers.All()),
	}, "", "  ")
	return textResult(string(data)), nil
}

// HandleEvaluateStep implements the formengine/evaluate_step tool.
func HandleEvaluateStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	stepPath, _ := args["step"].(string)
	method, _ := args["method"].(string)
	if method == "" {
		method = "GET"
	}

	step, funcs, _, err := formhost.CompileJourneyStep(path, stepPath)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	post := map[string]any{}
	if raw, ok := args["post"].(map[string]any); ok {
		post = raw
	}

	answers := answerhistory.New()
	session := evaluator.NewSession(nil, answers, map[string]any{}, map[string]any{})
	ev := evaluator.New(step, funcs, session)
	ectx := ev.CreateContext(thunk.Request{Method: strings.ToUpper(method), Post: post}, map[string]any{}, answers)

	result := ev.Evaluate(ectx)
	if result.Error != nil {
		return errorResult(fmt.Sprintf("[%s] %s", result.Error.Kind, result.Error.Message)), nil
	}

	data, err := json.MarshalIndent(result.Value, "", "  ")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleSchema implements the formengine/schema tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := decl.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func formatDeclErrors(errs []*decl.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(msg)},
		IsError: true,
	}
}
