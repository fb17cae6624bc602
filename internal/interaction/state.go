// Package interaction tracks the per-object interaction state machine and the
// registry that gesture events are dispatched to.
package interaction

import (
	"errors"
	"fmt"
)

var (
	ErrTransitionRejected  = errors.New("interaction: transition rejected")
	ErrUnknownInteractable = errors.New("interaction: unknown interactable")
)

type State int

const (
	StateIdle State = iota
	StateHovered
	StateGazed
	StateProximate
	StateSelected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovered:
		return "hovered"
	case StateGazed:
		return "gazed"
	case StateProximate:
		return "proximate"
	case StateSelected:
		return "selected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the legal rendered-state changes. Selected is only ever
// entered from an engaged state and only ever left to Idle.
var transitions = map[State][]State{
	StateIdle:      {StateHovered, StateGazed, StateProximate},
	StateHovered:   {StateIdle, StateGazed, StateProximate, StateSelected},
	StateGazed:     {StateIdle, StateHovered, StateProximate, StateSelected},
	StateProximate: {StateIdle, StateHovered, StateGazed, StateSelected},
	StateSelected:  {StateIdle},
}

func canTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type flags struct {
	hovered   bool
	gazed     bool
	proximate bool
	selected  bool
}

// rendered applies highlight priority: Selected, then Hovered, Gazed, Proximate.
func (f flags) rendered() State {
	switch {
	case f.selected:
		return StateSelected
	case f.hovered:
		return StateHovered
	case f.gazed:
		return StateGazed
	case f.proximate:
		return StateProximate
	}
	return StateIdle
}

func (f flags) engaged() bool {
	return f.hovered || f.gazed || f.proximate
}
