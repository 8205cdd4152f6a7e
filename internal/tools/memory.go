package tools

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/toolbridge-go/internal/store"
)

type memoryTools struct {
	store store.Store
}

type preferenceArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (m *memoryTools) remember(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args preferenceArgs
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	if args.Key == "" {
		return ErrorResult("key is required"), nil
	}

	if err := m.store.Set(ctx, args.Key, args.Value); err != nil {
		return nil, err
	}

	return TextResult(fmt.Sprintf("Preference stored: %s = %s", args.Key, args.Value)), nil
}

func (m *memoryTools) recall(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args preferenceArgs
	if err := bind(req, &args); err != nil {
		return ErrorResult(err.Error()), nil
	}

	value, err := m.store.Get(ctx, args.Key)

	switch {
	case stderrors.Is(err, store.ErrNotFound):
		value = "(not set)"
	case err != nil:
		return nil, err
	case value == "":
		value = "(not set)"
	}

	return TextResult(fmt.Sprintf("Preference: %s = %s", args.Key, value)), nil
}
