//go:build integration_test || all_tests

package test

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *IntegrationTestSuite) TestMCPOverHTTP() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "e2e-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: serverEndpoint + "/mcp"}, nil)
	s.Require().NoError(err)
	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	s.Require().NoError(err)
	s.Len(tools.Tools, 5)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "get_schema"})
	s.Require().NoError(err)
	s.Require().False(res.IsError)
	text := res.Content[0].(*mcp.TextContent).Text
	s.Contains(text, "## workout_logs")
	s.Contains(text, "| weight | double precision | NO |")
}
