// Package pipeline sequences simulation modules over candidates: each step
// runs the ordered module list, then observers. Secondaries spawned along
// the way are processed depth-first after their parent finishes.
package pipeline

import (
	"context"
	"fmt"

	"github.com/mlindner/cosray/internal/core"
)

type Pipeline struct {
	modules   []core.Module
	observers []core.Observer
	maxSteps  int
}

func New(modules ...core.Module) *Pipeline {
	return &Pipeline{modules: modules}
}

func (p *Pipeline) Add(m core.Module)           { p.modules = append(p.modules, m) }
func (p *Pipeline) AddObserver(o core.Observer) { p.observers = append(p.observers, o) }

// SetMaxSteps bounds the number of steps per candidate; 0 means unbounded.
func (p *Pipeline) SetMaxSteps(n int) { p.maxSteps = n }

// Run processes the candidate until it deactivates, then recurses into its
// secondary tree.
func (p *Pipeline) Run(ctx context.Context, c *core.Candidate) error {
	if err := p.runSingle(ctx, c); err != nil {
		return err
	}
	// the slice may grow while secondaries themselves interact; their
	// children are handled by the recursion
	for i := 0; i < len(c.Secondaries); i++ {
		if err := p.Run(ctx, c.Secondaries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runSingle(ctx context.Context, c *core.Candidate) error {
	steps := 0
	for c.Active {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, m := range p.modules {
			if err := m.Process(c); err != nil {
				return fmt.Errorf("pipeline: %w", err)
			}
			if !c.Active {
				break
			}
		}

		for _, o := range p.observers {
			o.OnStep(c)
		}

		steps++
		if p.maxSteps > 0 && steps >= p.maxSteps {
			c.Deactivate("maximum step count")
		}
	}
	return nil
}
