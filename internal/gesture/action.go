// Package gesture turns per-frame hand and focus detections into at most one
// symbolic action candidate.
package gesture

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownAction is returned when a name is not a known symbolic action.
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownOperation is returned when a name is not a known player operation.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Action is a symbolic action a frame can resolve to.
type Action int

const (
	ActionNone Action = iota
	PlayVideo
	PauseVideo
	Mute
	Unmute
	VolumeUp
	VolumeDown
	TwoFingers
	ThreeFingers
	FourFingers
	FiveFingers
	SixFingers
	SevenFingers
	EightFingers
	Focus
	NoFocus

	actionCount
)

var actionNames = [actionCount]string{
	ActionNone:   "",
	PlayVideo:    "PlayVideo",
	PauseVideo:   "PauseVideo",
	Mute:         "Mute",
	Unmute:       "Unmute",
	VolumeUp:     "VolumeUp",
	VolumeDown:   "VolumeDown",
	TwoFingers:   "TwoFingers",
	ThreeFingers: "ThreeFingers",
	FourFingers:  "FourFingers",
	FiveFingers:  "FiveFingers",
	SixFingers:   "SixFingers",
	SevenFingers: "SevenFingers",
	EightFingers: "EightFingers",
	Focus:        "Focus",
	NoFocus:      "NoFocus",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, actionCount)
	for a := PlayVideo; a < actionCount; a++ {
		m[strings.ToLower(actionNames[a])] = a
	}
	return m
}()

// ParseAction maps a name (case-insensitive) to its Action.
func ParseAction(name string) (Action, error) {
	a, ok := actionsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return a, nil
}

// Actions returns every symbolic action in declaration order.
func Actions() []Action {
	out := make([]Action, 0, actionCount-1)
	for a := PlayVideo; a < actionCount; a++ {
		out = append(out, a)
	}
	return out
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// Valid reports whether a is one of the declared actions (not ActionNone).
func (a Action) Valid() bool {
	return a > ActionNone && a < actionCount
}

// IsGesture reports whether a is a directly recognizable gesture label.
func (a Action) IsGesture() bool {
	return a >= PlayVideo && a <= VolumeDown
}

// IsFingers reports whether a is one of the NFingers actions.
func (a Action) IsFingers() bool {
	return a >= TwoFingers && a <= EightFingers
}

// IsFace reports whether a is a focus-originated action.
func (a Action) IsFace() bool {
	return a == Focus || a == NoFocus
}

// FingersAction maps a finger total to its NFingers action. Totals outside
// 2..8 have none.
func FingersAction(n int) (Action, bool) {
	if n < 2 || n > 8 {
		return ActionNone, false
	}
	return TwoFingers + Action(n-2), true
}

// Operation is a concrete player operation an action can be bound to.
type Operation int

const (
	OperationNone Operation = iota
	PlayVideoControl
	PauseVideoControl
	MuteVideoControl
	UnmuteVideoControl
	VolumeUpVideoControl
	VolumeDownVideoControl

	operationCount
)

var operationNames = [operationCount]string{
	OperationNone:          "",
	PlayVideoControl:       "playVideoControl",
	PauseVideoControl:      "pauseVideoControl",
	MuteVideoControl:       "muteVideoControl",
	UnmuteVideoControl:     "unmuteVideoControl",
	VolumeUpVideoControl:   "volumeUpVideoControl",
	VolumeDownVideoControl: "volumeDownVideoControl",
}

var operationsByName = func() map[string]Operation {
	m := make(map[string]Operation, operationCount)
	for op := PlayVideoControl; op < operationCount; op++ {
		m[strings.ToLower(operationNames[op])] = op
	}
	return m
}()

// ParseOperation maps a name (case-insensitive) to its Operation.
func ParseOperation(name string) (Operation, error) {
	op, ok := operationsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return OperationNone, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op, nil
}

// Operations returns every player operation in declaration order.
func Operations() []Operation {
	out := make([]Operation, 0, operationCount-1)
	for op := PlayVideoControl; op < operationCount; op++ {
		out = append(out, op)
	}
	return out
}

func (op Operation) String() string {
	if op < 0 || op >= operationCount {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operationNames[op]
}

// Valid reports whether op is one of the declared operations.
func (op Operation) Valid() bool {
	return op > OperationNone && op < operationCount
}

// IsVolume reports whether op adjusts the volume. Volume operations are
// repeatable; everything else latches player state.
func (op Operation) IsVolume() bool {
	return op == VolumeUpVideoControl || op == VolumeDownVideoControl
}

// Binding pairs an action with the operation it triggers.
type Binding struct {
	Action    Action
	Operation Operation
}

// Bindings is an immutable action to operation table.
type Bindings struct {
	m map[Action]Operation
}

// NewBindings builds a table from action and operation names. Unknown names
// on either side are rejected.
func NewBindings(names map[string]string) (Bindings, error) {
	m := make(map[Action]Operation, len(names))
	for an, on := range names {
		a, err := ParseAction(an)
		if err != nil {
			return Bindings{}, err
		}
		op, err := ParseOperation(on)
		if err != nil {
			return Bindings{}, fmt.Errorf("binding %s: %w", a, err)
		}
		m[a] = op
	}
	return Bindings{m: m}, nil
}

// BindingsOf builds a table from typed pairs. Invalid entries are skipped.
func BindingsOf(pairs ...Binding) Bindings {
	m := make(map[Action]Operation, len(pairs))
	for _, p := range pairs {
		if p.Action.Valid() && p.Operation.Valid() {
			m[p.Action] = p.Operation
		}
	}
	return Bindings{m: m}
}

// DefaultBindings returns the stock table: the six gesture labels drive
// their own operations and focus plays while looking away pauses.
func DefaultBindings() Bindings {
	return BindingsOf(
		Binding{PlayVideo, PlayVideoControl},
		Binding{PauseVideo, PauseVideoControl},
		Binding{Mute, MuteVideoControl},
		Binding{Unmute, UnmuteVideoControl},
		Binding{VolumeUp, VolumeUpVideoControl},
		Binding{VolumeDown, VolumeDownVideoControl},
		Binding{Focus, PlayVideoControl},
		Binding{NoFocus, PauseVideoControl},
	)
}

// Lookup returns the operation bound to a, if any.
func (b Bindings) Lookup(a Action) (Operation, bool) {
	op, ok := b.m[a]
	return op, ok
}

// Len returns the number of bound actions.
func (b Bindings) Len() int {
	return len(b.m)
}

// List returns the bindings ordered by action.
func (b Bindings) List() []Binding {
	out := make([]Binding, 0, len(b.m))
	for a, op := range b.m {
		out = append(out, Binding{Action: a, Operation: op})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

// Names returns the table keyed by names, the inverse of NewBindings.
func (b Bindings) Names() map[string]string {
	out := make(map[string]string, len(b.m))
	for a, op := range b.m {
		out[a.String()] = op.String()
	}
	return out
}
