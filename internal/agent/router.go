package agent

import (
	"context"
	"fmt"
	"log"

	"taskpilot-backend/internal/models"
)

// genericSuccessMessage is the confirmation of last resort when neither the
// model nor the handler supplied one.
const genericSuccessMessage = "Done! The action was completed successfully."

// DispatchResult reconciles a handler invocation into a user-facing
// outcome. Err is kept for diagnostics and HTTP status mapping; Message is
// always plain language and safe to render.
type DispatchResult struct {
	Executed bool
	Success  bool
	Message  string
	Data     interface{}
	Err      error
}

// Router resolves validated action descriptors to handlers and reconciles
// their outcome. It performs no network I/O itself and never lets a handler
// error escape past its boundary.
type Router struct {
	registry *Registry
}

// NewRouter creates a Router over a constructed registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Dispatch resolves and invokes the handler for an action. A missing
// handler yields a recognized-but-not-executable result without invoking
// anything; a handler error is converted into a failure result and not
// retried.
func (rt *Router) Dispatch(ctx context.Context, action *models.AgentAction) *DispatchResult {
	service := NormalizeService(action.TargetTool)

	handler, found := rt.registry.Resolve(service, action.Intent)
	if !found {
		log.Printf("[Router] No handler for intent %q on %q.", action.Intent, service)
		return &DispatchResult{
			Executed: false,
			Success:  false,
			Message:  fmt.Sprintf("I understood the request (%s on %s), but I can't execute that action yet.", action.Intent, action.TargetTool),
		}
	}

	result, err := handler(ctx, action.Params)
	if err != nil {
		log.Printf("ERROR [Router] Handler failed for intent %q on %q: %v", action.Intent, service, err)
		return &DispatchResult{
			Executed: true,
			Success:  false,
			Message:  fmt.Sprintf("Sorry, executing %s on %s failed: %v", action.Intent, action.TargetTool, err),
			Err:      fmt.Errorf("handler %s/%s: %w", service, action.Intent, err),
		}
	}

	return &DispatchResult{
		Executed: true,
		Success:  true,
		Message:  buildConfirmation(action, result),
		Data:     result.Data,
	}
}

// buildConfirmation picks the confirmation text in order of preference:
// the model's suggested confirmation, the handler's own message, then a
// generic success string. A reference link from the handler is appended as
// its own line.
func buildConfirmation(action *models.AgentAction, result *models.HandlerResult) string {
	text := action.SuggestedConfirmation
	if text == "" {
		text = result.Message
	}
	if text == "" {
		text = genericSuccessMessage
	}
	if result.URL != "" {
		text = fmt.Sprintf("%s\nLink: %s", text, result.URL)
	}
	return text
}
