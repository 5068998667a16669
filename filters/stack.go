package filters

import (
	"fmt"

	"github.com/golang/glog"
	"golang.org/x/exp/slices"

	"sketch-filters/gpu"
)

// Stack registers filters and tracks which ones are active in each phase. It owns no GPU
// resources; the texture units it hands out come from its allocator.
type Stack struct {
	order    []string
	commands map[string]Command
	active   [2]map[string]bool
	uniforms []string
	units    *gpu.UnitAllocator
}

func NewStack(units *gpu.UnitAllocator) *Stack {
	return &Stack{
		commands: map[string]Command{},
		active:   [2]map[string]bool{{}, {}},
		uniforms: []string{FilterMode, MainTex},
		units:    units,
	}
}

// Register adds cmd. Uniform names of simple commands join the shared set.
func (s *Stack) Register(cmd Command) error {
	id := cmd.ID()
	if _, ok := s.commands[id]; ok {
		return fmt.Errorf("filter %q already registered", id)
	}
	s.commands[id] = cmd
	s.order = append(s.order, id)
	if simple, ok := cmd.(Simple); ok {
		for _, name := range simple.UniformNames() {
			if !slices.Contains(s.uniforms, name) {
				s.uniforms = append(s.uniforms, name)
			}
		}
	}
	return nil
}

func (s *Stack) MustRegister(cmds ...Command) {
	for _, cmd := range cmds {
		if err := s.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Activate is a no-op for unknown ids.
func (s *Stack) Activate(id string, phase Phase) {
	if _, ok := s.commands[id]; !ok || !validPhase(phase) {
		return
	}
	if !s.active[phase][id] {
		glog.V(1).Infof("activate %s (%v)", id, phase)
	}
	s.active[phase][id] = true
}

func (s *Stack) Deactivate(id string, phase Phase) {
	if !validPhase(phase) || !s.active[phase][id] {
		return
	}
	glog.V(1).Infof("deactivate %s (%v)", id, phase)
	delete(s.active[phase], id)
}

// Clear deactivates everything.
func (s *Stack) Clear() {
	s.active = [2]map[string]bool{{}, {}}
}

func (s *Stack) IsActive(id string, phase Phase) bool {
	return validPhase(phase) && s.active[phase][id]
}

// Active lists the commands active in phase in registration order.
func (s *Stack) Active(phase Phase) []Command {
	if !validPhase(phase) {
		return nil
	}
	var cmds []Command
	for _, id := range s.order {
		if s.active[phase][id] {
			cmds = append(cmds, s.commands[id])
		}
	}
	return cmds
}

func (s *Stack) ActiveBefore() []Command {
	return s.Active(Before)
}

func (s *Stack) ActiveAfter() []Command {
	return s.Active(After)
}

// UniformNames is the union of the simple filters' uniforms plus the mode selector.
func (s *Stack) UniformNames() []string {
	return slices.Clone(s.uniforms)
}

// InitUniforms resolves the shared uniform set and extra on prog.
func (s *Stack) InitUniforms(prog gpu.Program, extra ...string) gpu.Uniforms {
	return prog.Uniforms(append(s.UniformNames(), extra...)...)
}

func (s *Stack) Get(id string) (Command, bool) {
	cmd, ok := s.commands[id]
	return cmd, ok
}

func (s *Stack) Commands() []Command {
	cmds := make([]Command, len(s.order))
	for i, id := range s.order {
		cmds[i] = s.commands[id]
	}
	return cmds
}

func (s *Stack) Units() *gpu.UnitAllocator {
	return s.units
}

// Resizers collects the resizers of every compound command.
func (s *Stack) Resizers() []Resizer {
	var resizers []Resizer
	for _, cmd := range s.Commands() {
		if c, ok := cmd.(Compound); ok {
			resizers = append(resizers, c.Resizers()...)
		}
	}
	return resizers
}

func validPhase(p Phase) bool {
	return p == Before || p == After
}
