package translate

import (
	openvt "github.com/openvt/openvt"
	"github.com/openvt/openvt/pkg/pipeline"
	"github.com/openvt/openvt/pkg/signals"
)

// Handler post-processes a decoded value before emission and may veto the
// send decision by setting *send to false. A handler can never re-enable a
// send the rate gate already vetoed. Handlers may inspect the sibling
// signals of the same message but must not mutate them.
type Handler func(signal *signals.Signal, siblings []*signals.Signal, value float64, send *bool) pipeline.Value

// PassthroughHandler emits the decoded value unchanged.
func PassthroughHandler(signal *signals.Signal, siblings []*signals.Signal, value float64, send *bool) pipeline.Value {
	return pipeline.Numeric(value)
}

// BooleanHandler maps any non-zero decoded value to true.
func BooleanHandler(signal *signals.Signal, siblings []*signals.Signal, value float64, send *bool) pipeline.Value {
	return pipeline.Boolean(value != 0.0)
}

// IgnoreHandler unconditionally vetoes emission. Used for signals that only
// exist to be referenced by the handlers of other signals.
func IgnoreHandler(signal *signals.Signal, siblings []*signals.Signal, value float64, send *bool) pipeline.Value {
	*send = false
	return pipeline.Numeric(value)
}

// StateHandler resolves the decoded value against the signal's ordered
// state table and emits the matching state name. Values matching no state
// veto emission and yield an absent output.
func StateHandler(signal *signals.Signal, siblings []*signals.Signal, value float64, send *bool) pipeline.Value {
	if state := signal.LookupState(value); state != nil {
		return pipeline.String(state.Name)
	}
	*send = false
	return pipeline.Value{}
}

var handlerRegistry = map[string]Handler{
	"":            PassthroughHandler,
	"passthrough": PassthroughHandler,
	"boolean":     BooleanHandler,
	"ignore":      IgnoreHandler,
	"state":       StateHandler,
}

// RegisterHandler adds a custom named handler, making it available to
// signal definitions. Should be called before translators are built.
func RegisterHandler(name string, handler Handler) {
	handlerRegistry[name] = handler
}

// HandlerByName resolves a handler name from a signal definition.
func HandlerByName(name string) (Handler, error) {
	handler, ok := handlerRegistry[name]
	if !ok {
		return nil, openvt.ErrUnknownHandler
	}
	return handler, nil
}
