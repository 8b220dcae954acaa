// Package router is the single entry point for UI requests. Each request
// type maps to one handler in an explicit dispatch table; every response
// is a {success, data?, error?} envelope. No handler failure is fatal:
// errors and panics are caught at this boundary and reported structurally.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tabwarden/tabwarden/internal/logging"
	"github.com/tabwarden/tabwarden/internal/monitoring"
	"github.com/tabwarden/tabwarden/internal/shared/id"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"go.uber.org/zap"
)

// HandlerFunc handles one request type. The returned value becomes the
// response data; an error becomes a structured failure.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Router dispatches messages to registered handlers.
type Router struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// New creates an empty router. metrics may be nil.
func New(log *logging.Logger, metrics *monitoring.Metrics) *Router {
	return &Router{
		log:      log,
		metrics:  metrics,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers the handler for a request type.
func (r *Router) Handle(msgType string, fn HandlerFunc) {
	r.mu.Lock()
	r.handlers[msgType] = fn
	r.mu.Unlock()
}

// Types returns the registered request types.
func (r *Router) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}

// Dispatch routes one message and always returns a structured result.
func (r *Router) Dispatch(ctx context.Context, msg types.Message) (result types.Result) {
	start := time.Now()
	reqID := id.NewRequestID()

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic",
				zap.String("request_id", reqID),
				zap.String("type", msg.Type),
				zap.Any("panic", rec))
			result = types.Fail(fmt.Sprintf("internal error handling %s", msg.Type))
		}
		if r.metrics != nil {
			r.metrics.RecordMessage(msg.Type, result.Success, time.Since(start))
		}
	}()

	r.mu.RLock()
	handler, ok := r.handlers[msg.Type]
	r.mu.RUnlock()
	if !ok {
		return types.Fail(fmt.Sprintf("unknown request type: %s", msg.Type))
	}

	data, err := handler(ctx, msg.Payload)
	if err != nil {
		r.log.Warn("request failed",
			zap.String("request_id", reqID),
			zap.String("type", msg.Type),
			zap.Error(err))
		return types.Fail(err.Error())
	}
	return types.Ok(data)
}
