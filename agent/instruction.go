package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/devcrew/core"
)

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// ProviderFunc lets an ordinary function act as a Provider.
type ProviderFunc func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f ProviderFunc) Instruction(rc *core.RunContext) (string, error) { return f(rc) }

// Instruction is either a static system prompt or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: ProviderFunc(f)}
}

// IsStatic reports whether the instruction is a fixed string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Text returns the static instruction text. It is empty for provider backed instructions.
func (i Instruction) Text() string { return i.text }

// Resolve returns the trimmed instruction text, invoking the provider if needed.
func (i Instruction) Resolve(rc *core.RunContext) (string, error) {
	if i.provider == nil {
		return strings.TrimSpace(i.text), nil
	}
	text, err := i.provider.Instruction(rc)
	if err != nil {
		return "", fmt.Errorf("resolve instruction: %w", err)
	}
	return strings.TrimSpace(text), nil
}
