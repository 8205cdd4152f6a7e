package toolbridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyOptions(t *testing.T) {
	logger := NopLogger()
	transport := newScriptedTransport()

	var stderr []string

	o := applyOptions([]Option{
		WithLogger(logger),
		WithTimeout(3 * time.Second),
		WithServerPath("/opt/toolserver"),
		WithServerArgs("-store", "memory"),
		WithEnv(map[string]string{"A": "1"}),
		WithCwd("/tmp"),
		WithStderr(func(line string) { stderr = append(stderr, line) }),
		WithShape(ShapeLegacy),
		WithClientInfo("ui", "2.0.0"),
		WithFramingMode(FramingBraceCount),
		WithMaxFrameSize(1024),
		WithTransport(transport),
	})

	assert.Same(t, logger, o.Logger)
	assert.Equal(t, 3*time.Second, o.EffectiveTimeout())
	assert.Equal(t, "/opt/toolserver", o.ServerPath)
	assert.Equal(t, []string{"-store", "memory"}, o.ServerArgs)
	assert.Equal(t, map[string]string{"A": "1"}, o.Env)
	assert.Equal(t, "/tmp", o.Cwd)
	assert.Equal(t, ShapeLegacy, o.EffectiveShape())
	assert.Equal(t, ClientInfo{Name: "ui", Version: "2.0.0"}, o.EffectiveClientInfo())
	assert.Equal(t, FramingBraceCount, o.FramingMode)
	assert.Equal(t, 1024, o.EffectiveMaxFrameSize())
	assert.Same(t, transport, o.Transport)

	o.Stderr("line")
	assert.Equal(t, []string{"line"}, stderr)
}

func TestApplyOptions_Defaults(t *testing.T) {
	o := applyOptions(nil)

	assert.Equal(t, DefaultTimeout, o.EffectiveTimeout())
	assert.Equal(t, ShapeMCP, o.EffectiveShape())
	assert.Equal(t, FramingLexical, o.FramingMode)
	assert.Nil(t, o.Transport)
	assert.Nil(t, o.NewTransport)
}

func TestWithInProcessServer_BuildsFreshTransports(t *testing.T) {
	srv := newInProcess(t)
	o := applyOptions([]Option{WithInProcessServer(srv)})

	a := o.NewTransport(o)
	b := o.NewTransport(o)

	assert.NotSame(t, a, b)
}
