package workdir

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harun/sessfile/internal/observability"
	"github.com/harun/sessfile/internal/tracing"
	"github.com/harun/sessfile/pkg/store"
)

type getWorkingDirectoryArgs struct{}

type setWorkingDirectoryArgs struct {
	Path string `json:"path" jsonschema:"absolute path to use as this session's working directory"`
}

// AddTools registers the working-directory tools on the given MCP server,
// bound to one session of the shared store.
func AddTools(server *mcp.Server, st *store.Store[State], sessionID string) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_working_directory",
		Description: "Get the working directory shared by all tool servers for this session",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ getWorkingDirectoryArgs) (*mcp.CallToolResult, any, error) {
		ctx = tracing.NewRequestContext(ctx)
		start := time.Now()

		dir, ok, err := Get(ctx, st, sessionID)
		if err != nil {
			observability.RecordToolCall("get_working_directory", "error", time.Since(start))
			return nil, nil, err
		}
		observability.RecordToolCall("get_working_directory", "ok", time.Since(start))

		if !ok {
			return textResult("No working directory set for this session. Use set_working_directory first."), nil, nil
		}
		return textResult(dir), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_working_directory",
		Description: "Set the working directory shared by all tool servers for this session",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args setWorkingDirectoryArgs) (*mcp.CallToolResult, any, error) {
		ctx = tracing.NewRequestContext(ctx)
		start := time.Now()

		if err := Set(ctx, st, sessionID, args.Path); err != nil {
			observability.RecordToolCall("set_working_directory", "error", time.Since(start))
			return nil, nil, err
		}
		observability.RecordToolCall("set_working_directory", "ok", time.Since(start))

		return textResult("Working directory set to " + args.Path), nil, nil
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
