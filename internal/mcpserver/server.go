// Package mcpserver exposes the tool catalog over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ahrdadan/browsemd/internal/toolerr"
	"github.com/ahrdadan/browsemd/internal/tools"
)

// Name is the implementation name announced to clients.
const Name = "browsemd"

// suspension is appended to a suspended result as a second text block.
type suspension struct {
	NeedsUserInput  bool `json:"needs_user_input"`
	WaitForResponse bool `json:"wait_for_response"`
}

// New creates an MCP server with every tool registered.
func New(svc *tools.Service, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	Register(srv, svc)
	return srv
}

// Register adds every catalog tool to srv.
func Register(srv *mcp.Server, svc *tools.Service) {
	for _, t := range tools.Catalog() {
		srv.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		}, handler(svc, t.Name))
	}
}

// Serve runs srv over stdin/stdout until ctx is done or the client disconnects.
func Serve(ctx context.Context, srv *mcp.Server) error {
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func handler(svc *tools.Service, name string) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}

		res, err := svc.Call(ctx, name, args)
		if err != nil {
			return errorResult(err), nil
		}
		return toResult(res), nil
	}
}

func toResult(res *tools.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Text}},
	}
	if res.Suspended() {
		data, _ := json.Marshal(suspension{
			NeedsUserInput:  res.NeedsUserInput,
			WaitForResponse: res.WaitForResponse,
		})
		out.Content = append(out.Content, &mcp.TextContent{Text: string(data)})
	}
	return out
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %v", toolerr.KindOf(err), err)}},
	}
}
