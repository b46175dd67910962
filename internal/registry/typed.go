package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// TypedFunc is a handler that receives its node config decoded into C.
type TypedFunc[C any] func(ctx context.Context, inputs map[string]any, config C) (map[string]any, error)

// NewTyped builds a Registration whose config schema is inferred from the
// json tags of C. Fields without omitempty are required.
func NewTyped[C any](fn TypedFunc[C], defaults map[string]any) (*Registration, error) {
	schema, err := jsonschema.For[C](nil)
	if err != nil {
		return nil, fmt.Errorf("inferring config schema for %T: %w", *new(C), err)
	}
	return &Registration{
		Handler: HandlerFunc(func(ctx context.Context, inputs, config map[string]any) (map[string]any, error) {
			var cfg C
			if err := DecodeConfig(config, &cfg); err != nil {
				return nil, err
			}
			return fn(ctx, inputs, cfg)
		}),
		Defaults:     defaults,
		ConfigSchema: schema,
	}, nil
}

// MustTyped is like NewTyped but panics when the schema cannot be inferred.
// It is meant for Module.Register implementations.
func MustTyped[C any](fn TypedFunc[C], defaults map[string]any) *Registration {
	reg, err := NewTyped(fn, defaults)
	if err != nil {
		panic(err)
	}
	return reg
}

// DecodeConfig decodes a node config into target through its JSON form.
func DecodeConfig(config map[string]any, target any) error {
	instance, err := jsonInstance(config)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}
