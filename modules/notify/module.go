// Package notify provides the `notify` step kind: it connects to a
// socket.io endpoint, emits a single event carrying the step's routed data,
// and disconnects.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// connectTimeout bounds how long one emit is allowed to wait for the
// connection handshake.
const connectTimeout = 15 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the notify step kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.StepDefinition{
		Type:     "notify",
		Category: registry.CategoryTask,
		Inputs:   []registry.Port{{Name: "data", Type: cty.DynamicPseudoType}},
		Outputs:  []registry.Port{{Name: "delivered", Type: cty.Bool}},
	}, registry.ExecutorFunc(run))
}

func run(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error) {
	logger := ctxlog.FromContext(ctx)

	endpoint, _ := config["url"].(string)
	if endpoint == "" {
		return nil, fmt.Errorf("notify step requires a url in config")
	}
	event, _ := config["event"].(string)
	if event == "" {
		event = "workflow_event"
	}
	namespace, _ := config["namespace"].(string)

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing notify url: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsed.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				connected <- e
				return
			}
		}
		connected <- fmt.Errorf("socket.io connection refused")
	})

	io.Connect()
	defer io.Disconnect()

	select {
	case err := <-connected:
		if err != nil {
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(connectTimeout):
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", connectTimeout)
	}

	logger.Debug("emitting notification", "event", event, "url", endpoint)
	io.Emit(event, inputs["data"])

	return workflow.Record{"delivered": true}, nil
}
