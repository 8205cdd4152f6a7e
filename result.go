package toolbridge

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/tools"
)

// ResultText joins the text content of a tool result with newlines.
// Non-text content is skipped.
func ResultText(result *mcp.CallToolResult) string {
	return tools.ResultText(result)
}
