package toolbridge

import (
	"fmt"

	"github.com/wagiedev/toolbridge-go/internal/catalog"
	"github.com/wagiedev/toolbridge-go/internal/errors"
)

// Tool describes a tool offered by the built-in server.
type Tool = catalog.Entry

// Parameter describes one tool argument.
type Parameter = catalog.Parameter

// Category groups related tools.
type Category = catalog.Category

// Tools returns the built-in tool catalog in display order.
func Tools() []Tool {
	return catalog.All()
}

// LookupTool returns the catalog entry for name.
func LookupTool(name string) (Tool, error) {
	entry := catalog.ByName(name)
	if entry == nil {
		return Tool{}, fmt.Errorf("%w: %s", errors.ErrToolNotFound, name)
	}

	return *entry, nil
}
