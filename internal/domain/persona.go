package domain

import (
	"fmt"
	"strings"
)

type PersonaID string

const (
	White  PersonaID = "white"
	Red    PersonaID = "red"
	Black  PersonaID = "black"
	Yellow PersonaID = "yellow"
	Green  PersonaID = "green"
	Blue   PersonaID = "blue"
)

// Synthesizer is the hat that speaks last and condenses the turn.
const Synthesizer = Blue

var sequence = [...]PersonaID{White, Red, Black, Yellow, Green, Blue}

// Sequence returns the order in which hats speak during a turn.
func Sequence() []PersonaID {
	return append([]PersonaID(nil), sequence[:]...)
}

// Label is the capitalized id used on transcript records, e.g. "Black".
func (id PersonaID) Label() string {
	return capitalize(string(id))
}

func (id PersonaID) Known() bool {
	for _, p := range sequence {
		if p == id {
			return true
		}
	}
	return false
}

type Persona struct {
	ID          PersonaID
	Instruction string
}

var defaultInstructions = map[PersonaID]string{
	White: "You are the White Hat. Focus on providing objective facts, data, " +
		"and relevant information about the conversation so far. Avoid opinions.",
	Red: "You are the Red Hat. Offer emotional, instinctive, and intuitive responses " +
		"to the conversation so far.",
	Black: "You are the Black Hat. Provide critical, cautious perspectives, highlighting " +
		"potential problems or risks in the conversation so far.",
	Yellow: "You are the Yellow Hat. Provide optimistic, positive perspectives, " +
		"emphasizing potential benefits and solutions.",
	Green: "You are the Green Hat. Offer creative, unconventional ideas in response " +
		"to the conversation so far. Think outside the box.",
	Blue: "You are the Blue Hat. Summarize and synthesize all responses from the other " +
		"hats and the user so far, reflecting on the overall process rather than only the " +
		"latest message. Provide a coherent, big-picture recommendation or conclusion.",
}

type UnknownPersonaError struct {
	ID PersonaID
}

func (e *UnknownPersonaError) Error() string {
	return fmt.Sprintf("unknown persona %q", string(e.ID))
}

// Registry maps each hat to its instruction. It is read-only once built.
type Registry struct {
	personas map[PersonaID]Persona
}

// NewRegistry builds the registry from the built-in instructions, replacing
// any with a non-blank entry from overrides.
func NewRegistry(overrides map[PersonaID]string) (*Registry, error) {
	personas := make(map[PersonaID]Persona, len(sequence))
	for _, id := range sequence {
		personas[id] = Persona{ID: id, Instruction: defaultInstructions[id]}
	}
	for id, instruction := range overrides {
		if !id.Known() {
			return nil, &UnknownPersonaError{ID: id}
		}
		instruction = strings.TrimSpace(instruction)
		if instruction == "" {
			continue
		}
		personas[id] = Persona{ID: id, Instruction: instruction}
	}
	return &Registry{personas: personas}, nil
}

// DefaultRegistry returns the registry with the built-in instructions.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(nil)
	return r
}

func (r *Registry) InstructionFor(id PersonaID) (string, error) {
	p, ok := r.personas[id]
	if !ok {
		return "", &UnknownPersonaError{ID: id}
	}
	return p.Instruction, nil
}
