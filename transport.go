package toolbridge

import "github.com/wagiedev/toolbridge-go/internal/config"

// Transport defines the interface for tool server communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods (e.g., remote connections).
//
// The default implementation spawns the tool server as a subprocess.
// Custom transports can be injected via WithTransport or WithTransportFactory.
type Transport = config.Transport
