package crew

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/tool"
)

var (
	// ErrDuplicateAgent is returned when two distinct agents share a name.
	ErrDuplicateAgent = errors.New("duplicate agent name")
	// ErrDuplicateTool is returned when an agent declares two tools with the same name.
	ErrDuplicateTool = errors.New("duplicate tool name")
	// ErrCycle is returned when the hand-off and agent tool edges form a cycle.
	ErrCycle = errors.New("agent graph contains a cycle")
)

// HandoffProvider is implemented by agents that can transfer control.
type HandoffProvider interface {
	Handoffs() []core.Agent
}

// ToolProvider is implemented by agents that expose tools.
type ToolProvider interface {
	Tools() []tool.Tool
}

// Registry is a read-only view over an agent graph rooted at one agent.
// Every agent reachable through hand-offs or agent tools is registered.
type Registry struct {
	root   core.Agent
	agents []core.Agent
	byName map[string]core.Agent
	dups   []string
}

// NewRegistry walks the graph below root breadth first.
func NewRegistry(root core.Agent) *Registry {
	r := &Registry{root: root, byName: map[string]core.Agent{}}

	seen := map[core.Agent]bool{root: true}
	queue := []core.Agent{root}

	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]

		if other, ok := r.byName[a.Name()]; ok && other != a {
			r.dups = append(r.dups, a.Name())
		} else {
			r.byName[a.Name()] = a
		}
		r.agents = append(r.agents, a)

		for _, next := range edges(a) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	return r
}

// edges returns the direct hand-off targets followed by the agents wrapped as tools.
func edges(a core.Agent) []core.Agent {
	var out []core.Agent
	if hp, ok := a.(HandoffProvider); ok {
		out = append(out, hp.Handoffs()...)
	}
	if tp, ok := a.(ToolProvider); ok {
		for _, t := range tp.Tools() {
			if at, ok := t.(*tool.AgentTool); ok {
				out = append(out, at.Agent())
			}
		}
	}
	return out
}

// Root returns the entry agent.
func (r *Registry) Root() core.Agent { return r.root }

// Agent looks up a registered agent by name.
func (r *Registry) Agent(name string) (core.Agent, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Agents returns all registered agents in discovery order.
func (r *Registry) Agents() []core.Agent {
	out := make([]core.Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Reachable returns the names of all agents reachable from the root,
// root first.
func (r *Registry) Reachable() []string {
	names := make([]string, len(r.agents))
	for i, a := range r.agents {
		names[i] = a.Name()
	}
	return names
}

// HandoffTargets returns the names of the direct hand-off targets of the
// named agent in declaration order.
func (r *Registry) HandoffTargets(name string) []string {
	a, ok := r.byName[name]
	if !ok {
		return nil
	}
	hp, ok := a.(HandoffProvider)
	if !ok {
		return nil
	}
	var names []string
	for _, h := range hp.Handoffs() {
		names = append(names, h.Name())
	}
	return names
}

// Validate checks the registry invariants: unique agent names, unique tool
// names per agent and an acyclic agent graph.
func (r *Registry) Validate() error {
	if len(r.dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, strings.Join(r.dups, ", "))
	}

	for _, a := range r.agents {
		tp, ok := a.(ToolProvider)
		if !ok {
			continue
		}
		names := map[string]bool{}
		for _, t := range tp.Tools() {
			if names[t.Name()] {
				return fmt.Errorf("%w: %s in agent %s", ErrDuplicateTool, t.Name(), a.Name())
			}
			names[t.Name()] = true
		}
	}

	const (
		unvisited = iota
		active
		done
	)

	state := map[core.Agent]int{}

	var visit func(a core.Agent, path []string) error
	visit = func(a core.Agent, path []string) error {
		path = append(path, a.Name())
		switch state[a] {
		case active:
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> "))
		case done:
			return nil
		}
		state[a] = active
		for _, next := range edges(a) {
			if err := visit(next, path); err != nil {
				return err
			}
		}
		state[a] = done
		return nil
	}

	return visit(r.root, nil)
}

// ToolInfo describes one tool of an agent.
type ToolInfo struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Agent string `json:"agent,omitempty"`
}

// AgentNode describes one agent of the topology.
type AgentNode struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Tools       []ToolInfo `json:"tools,omitempty"`
	Handoffs    []string   `json:"handoffs,omitempty"`
}

// Topology is a printable description of the registry.
type Topology struct {
	Root   string      `json:"root"`
	Agents []AgentNode `json:"agents"`
}

// Describe returns the topology of the registry.
func (r *Registry) Describe() Topology {
	topo := Topology{Root: r.root.Name()}
	for _, a := range r.agents {
		node := AgentNode{Name: a.Name(), Description: a.Description(), Handoffs: r.HandoffTargets(a.Name())}
		if tp, ok := a.(ToolProvider); ok {
			for _, t := range tp.Tools() {
				info := ToolInfo{Name: t.Name(), Kind: t.Kind().String()}
				if at, ok := t.(*tool.AgentTool); ok {
					info.Agent = at.Agent().Name()
				}
				node.Tools = append(node.Tools, info)
			}
		}
		topo.Agents = append(topo.Agents, node)
	}
	return topo
}

// String renders the topology as an indented tree.
func (t Topology) String() string {
	byName := make(map[string]AgentNode, len(t.Agents))
	for _, n := range t.Agents {
		byName[n.Name] = n
	}

	var sb strings.Builder

	var write func(name, prefix string, depth int, seen map[string]bool)
	write = func(name, prefix string, depth int, seen map[string]bool) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&sb, "%s%s%s\n", indent, prefix, name)
		if seen[name] {
			return
		}
		seen[name] = true
		defer delete(seen, name)

		node := byName[name]
		for _, ti := range node.Tools {
			if ti.Agent != "" {
				write(ti.Agent, "tool "+ti.Name+" -> ", depth+1, seen)
				continue
			}
			fmt.Fprintf(&sb, "%s  tool %s (%s)\n", indent, ti.Name, ti.Kind)
		}
		for _, h := range node.Handoffs {
			write(h, "hand-off -> ", depth+1, seen)
		}
	}

	write(t.Root, "", 0, map[string]bool{})

	return sb.String()
}

// MarshalIndent returns the topology as indented JSON.
func (t Topology) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
