package producer

import (
	"context"
	"fmt"

	"aidigest/internal/domain"
)

// Producer discovers newly published items for one source type.
type Producer interface {
	SourceType() domain.SourceType
	Discover(ctx context.Context) ([]domain.SourceItem, error)
}

// Registry keeps a mapping from source types to their producers.
type Registry struct {
	producers map[domain.SourceType]Producer
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{producers: map[domain.SourceType]Producer{}}
}

// Register adds or replaces the producer for its source type.
func (r *Registry) Register(p Producer) {
	if r.producers == nil {
		r.producers = map[domain.SourceType]Producer{}
	}
	r.producers[p.SourceType()] = p
}

// Resolve returns the producer for a source type or an error if absent.
func (r *Registry) Resolve(sourceType domain.SourceType) (Producer, error) {
	if p, ok := r.producers[sourceType]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no producer registered for source %s", sourceType)
}

// All returns the registered producers in unification scan order.
func (r *Registry) All() []Producer {
	var all []Producer
	for _, sourceType := range domain.SourceTypes() {
		if p, ok := r.producers[sourceType]; ok {
			all = append(all, p)
		}
	}
	return all
}
