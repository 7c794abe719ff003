package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"taskpilot-backend/internal/models"
)

// Handler executes one verb against one external service. Handlers receive
// the typed parameters resolved at the validator boundary and report
// failures as errors; they never write user-facing text on failure.
type Handler func(ctx context.Context, params models.ActionParams) (*models.HandlerResult, error)

// Registry maps (service, entity, verb) triples to handlers, with a legacy
// flat (service, intent) table kept for backward compatibility. It is
// constructed once at startup, validated, and then read-only, so it can be
// shared across sessions without locking.
type Registry struct {
	entries map[string]map[string]map[string]Handler
	legacy  map[string]map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]map[string]map[string]Handler),
		legacy:  make(map[string]map[string]Handler),
	}
}

// Register adds a handler for a (service, entity, verb) triple. Service is
// stored lowercased, entity and verb uppercased, matching normalized
// intents.
func (r *Registry) Register(service, entity, verb string, h Handler) {
	service = NormalizeService(service)
	entity = strings.ToUpper(entity)
	verb = strings.ToUpper(verb)

	if r.entries[service] == nil {
		r.entries[service] = make(map[string]map[string]Handler)
	}
	if r.entries[service][entity] == nil {
		r.entries[service][entity] = make(map[string]Handler)
	}
	if _, exists := r.entries[service][entity][verb]; exists {
		log.Printf("WARN [Registry] %s/%s/%s is already registered. Overwriting.", service, entity, verb)
	}
	r.entries[service][entity][verb] = h
}

// RegisterLegacy adds a handler under the flat intent table that predates
// the entity/verb split.
func (r *Registry) RegisterLegacy(service, intent string, h Handler) {
	service = NormalizeService(service)
	intent = NormalizeIntent(intent)

	if r.legacy[service] == nil {
		r.legacy[service] = make(map[string]Handler)
	}
	if _, exists := r.legacy[service][intent]; exists {
		log.Printf("WARN [Registry] legacy %s/%s is already registered. Overwriting.", service, intent)
	}
	r.legacy[service][intent] = h
}

// Resolve finds the handler for an (intent, service) pair. The entity/verb
// split form is preferred; the legacy flat table is consulted only when the
// split lookup misses. Resolution is deterministic: the same pair always
// yields the same handler.
func (r *Registry) Resolve(service, intent string) (Handler, bool) {
	service = NormalizeService(service)

	if entity, verb, ok := SplitIntent(intent); ok {
		if byEntity, ok := r.entries[service]; ok {
			if byVerb, ok := byEntity[entity]; ok {
				if h, ok := byVerb[verb]; ok {
					return h, true
				}
			}
		}
	}

	if byIntent, ok := r.legacy[service]; ok {
		if h, ok := byIntent[intent]; ok {
			return h, true
		}
	}

	return nil, false
}

// Validate checks the registry for empty keys and nil handlers. It is run
// once at startup so a miswired triple fails the process instead of a
// request.
func (r *Registry) Validate() error {
	total := 0
	for service, byEntity := range r.entries {
		if service == "" {
			return fmt.Errorf("registry contains an entry with an empty service name")
		}
		for entity, byVerb := range byEntity {
			if entity == "" {
				return fmt.Errorf("registry service %q contains an empty entity", service)
			}
			for verb, h := range byVerb {
				if verb == "" {
					return fmt.Errorf("registry %s/%s contains an empty verb", service, entity)
				}
				if h == nil {
					return fmt.Errorf("registry %s/%s/%s has a nil handler", service, entity, verb)
				}
				total++
			}
		}
	}
	for service, byIntent := range r.legacy {
		if service == "" {
			return fmt.Errorf("legacy registry contains an entry with an empty service name")
		}
		for intent, h := range byIntent {
			if intent == "" {
				return fmt.Errorf("legacy registry service %q contains an empty intent", service)
			}
			if h == nil {
				return fmt.Errorf("legacy registry %s/%s has a nil handler", service, intent)
			}
			total++
		}
	}
	if total == 0 {
		return fmt.Errorf("registry has no handlers registered")
	}
	log.Printf("[Registry] Validated %d handler entries.", total)
	return nil
}
