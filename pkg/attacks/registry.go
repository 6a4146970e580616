// Package attacks provides adversarial transformations and their registry.
package attacks

import (
	"sync"

	"github.com/adversalio/sdk/pkg/attacks/cipher"
	"github.com/adversalio/sdk/pkg/attacks/graybox"
	"github.com/adversalio/sdk/pkg/attacks/injection"
	"github.com/adversalio/sdk/pkg/attacks/jailbreak"
	"github.com/adversalio/sdk/pkg/attacks/probing"
	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/options"
	"github.com/adversalio/sdk/pkg/rts"
)

// =============================================================================
// Attack Registry - Plugin system for attacks
// =============================================================================

// Registry manages registered attacks.
type Registry struct {
	attacks map[rts.AttackType]core.Attack
	mu      sync.RWMutex
}

// NewRegistry creates an empty attack registry.
func NewRegistry() *Registry {
	return &Registry{
		attacks: make(map[rts.AttackType]core.Attack),
	}
}

// NewDefaultRegistry creates a registry with all built-in attacks. The
// evolution model drives the model-assisted attacks; deterministic attacks
// are always registered. A nil model registers deterministic attacks only.
func NewDefaultRegistry(evolutionModel core.Model, cfg *options.ScanConfig) (*Registry, error) {
	if cfg == nil {
		cfg = options.DefaultScanConfig()
	}
	logger := core.LoggerFromVerbose("attacks", cfg.Verbose)

	registry := NewRegistry()

	// Register built-in deterministic attacks
	registry.Register(cipher.NewROT13())
	registry.Register(cipher.NewBase64())
	registry.Register(cipher.NewLeetspeak())
	registry.Register(injection.New())

	if evolutionModel == nil {
		return registry, nil
	}

	// Register built-in model-assisted attacks
	gb, err := graybox.New(evolutionModel, cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}
	registry.Register(gb)

	pb, err := probing.New(evolutionModel)
	if err != nil {
		return nil, err
	}
	registry.Register(pb)

	linear, err := jailbreak.NewLinear(evolutionModel, cfg.MaxAttackIterations, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(linear)

	tree, err := jailbreak.NewTree(evolutionModel, cfg.TreeBranching, cfg.TreeDepth, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(tree)

	return registry, nil
}

// Register adds an attack to the registry.
func (r *Registry) Register(attack core.Attack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attacks[attack.Type()] = attack
}

// Get returns an attack by type, or nil.
func (r *Registry) Get(t rts.AttackType) core.Attack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attacks[t]
}

// Resolve returns the attacks for the requested types, failing on any type
// with no registered implementation.
func (r *Registry) Resolve(types []rts.AttackType) ([]core.Attack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Attack, 0, len(types))
	for _, t := range types {
		a, ok := r.attacks[t]
		if !ok {
			return nil, errors.E(errors.KindConfiguration, "attacks.Resolve", "no attack registered for type: "+t.String())
		}
		out = append(out, a)
	}
	return out, nil
}

// List returns all registered attack types.
func (r *Registry) List() []rts.AttackType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]rts.AttackType, 0, len(r.attacks))
	for t := range r.attacks {
		types = append(types, t)
	}
	return types
}
