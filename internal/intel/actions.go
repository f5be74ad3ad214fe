package intel

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/logging"
)

// ActionType identifies the kind of pipeline work an action performs
type ActionType string

const (
	ActionConvert    ActionType = "convert"
	ActionNavigation ActionType = "navigation"
	ActionSvp        ActionType = "svp"
	ActionProcessing ActionType = "processing"
)

// priority orders execution: conversion first, imports next, processing last
func (t ActionType) priority() int {
	switch t {
	case ActionConvert:
		return 0
	case ActionNavigation, ActionSvp:
		return 1
	default:
		return 2
	}
}

// Action is one pending unit of pipeline work targeting one destination.
// (Type, OutputDestination) is unique within a container.
type Action struct {
	ID                string
	Type              ActionType
	OutputDestination string
	InputFiles        []string
	Settings          map[string]interface{}
	IsRunning         bool
	CreatedAt         time.Time

	seq int64 // insertion order, stabilizes sorting within a priority
}

// NewAction creates an action for the given type and destination
func NewAction(actionType ActionType, destination string, inputFiles []string) *Action {
	return &Action{
		ID:                uuid.New().String(),
		Type:              actionType,
		OutputDestination: destination,
		InputFiles:        inputFiles,
		Settings:          make(map[string]interface{}),
		CreatedAt:         time.Now().UTC(),
	}
}

// Container maintains the ordered worklist of pending actions
type Container struct {
	logger    *logging.Logger
	actions   []*Action
	observers []func()
	nextSeq   int64
}

// NewContainer creates an empty action container
func NewContainer(logger *logging.Logger) *Container {
	return &Container{logger: logger}
}

// BindToUpdate registers an observer invoked synchronously after each
// regeneration pass completes
func (c *Container) BindToUpdate(fn func()) {
	c.observers = append(c.observers, fn)
}

func (c *Container) notify() {
	for _, fn := range c.observers {
		fn()
	}
}

// Add inserts an action, enforcing (type, destination) uniqueness
func (c *Container) Add(action *Action) error {
	if existing := c.Find(action.Type, action.OutputDestination); existing != nil {
		return errors.Newf(errors.ConsistencyViolation,
			"an action of type %s already targets destination %s",
			action.Type, action.OutputDestination)
	}
	action.seq = c.nextSeq
	c.nextSeq++
	c.actions = append(c.actions, action)
	c.sortActions()
	c.logger.Debug("action added", map[string]interface{}{
		"type":        string(action.Type),
		"destination": action.OutputDestination,
		"inputs":      len(action.InputFiles),
	})
	return nil
}

// Update replaces an action's inputs and settings in place. A running
// action's core fields are never touched; the update is a no-op.
func (c *Container) Update(action *Action, inputFiles []string, settings map[string]interface{}) {
	if action.IsRunning {
		c.logger.Warn("skipping update of running action", map[string]interface{}{
			"type":        string(action.Type),
			"destination": action.OutputDestination,
		})
		return
	}
	action.InputFiles = inputFiles
	if settings != nil {
		action.Settings = settings
	}
}

// Remove deletes an action from the container. Removing a running action is
// a no-op.
func (c *Container) Remove(action *Action) {
	if action.IsRunning {
		c.logger.Warn("skipping removal of running action", map[string]interface{}{
			"type":        string(action.Type),
			"destination": action.OutputDestination,
		})
		return
	}
	for i, a := range c.actions {
		if a == action {
			c.actions = append(c.actions[:i], c.actions[i+1:]...)
			return
		}
	}
}

// Find returns the action with the given type and destination, nil if none
func (c *Container) Find(actionType ActionType, destination string) *Action {
	for _, a := range c.actions {
		if a.Type == actionType && a.OutputDestination == destination {
			return a
		}
	}
	return nil
}

// UpdateFromDestinations removes every non-running action of actionType
// whose destination is absent from destinations, and returns the surviving
// actions of that type with their destinations. Two live actions of the same
// type sharing a destination is an internal invariant break and returns
// ConsistencyViolation.
func (c *Container) UpdateFromDestinations(actionType ActionType, destinations []string) ([]*Action, []string, error) {
	wanted := make(map[string]bool, len(destinations))
	for _, d := range destinations {
		wanted[d] = true
	}

	seen := make(map[string]bool)
	var survivors []*Action
	kept := c.actions[:0]
	for _, a := range c.actions {
		if a.Type != actionType {
			kept = append(kept, a)
			continue
		}
		if seen[a.OutputDestination] {
			return nil, nil, errors.Newf(errors.ConsistencyViolation,
				"two %s actions share destination %s", actionType, a.OutputDestination)
		}
		seen[a.OutputDestination] = true
		if wanted[a.OutputDestination] || a.IsRunning {
			kept = append(kept, a)
			survivors = append(survivors, a)
			continue
		}
		c.logger.Debug("action removed, backing data gone", map[string]interface{}{
			"type":        string(actionType),
			"destination": a.OutputDestination,
		})
	}
	c.actions = kept

	currentDests := make([]string, len(survivors))
	for i, a := range survivors {
		currentDests[i] = a.OutputDestination
	}
	return survivors, currentDests, nil
}

// Actions returns the pending actions in execution order
func (c *Container) Actions() []*Action {
	out := make([]*Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// ActionAt returns the action at an execution-order index, nil out of range
func (c *Container) ActionAt(index int) *Action {
	if index < 0 || index >= len(c.actions) {
		return nil
	}
	return c.actions[index]
}

// Len returns the number of pending actions
func (c *Container) Len() int { return len(c.actions) }

// Clear drops every pending action
func (c *Container) Clear() {
	c.actions = nil
}

func (c *Container) sortActions() {
	sort.SliceStable(c.actions, func(i, j int) bool {
		pi, pj := c.actions[i].Type.priority(), c.actions[j].Type.priority()
		if pi != pj {
			return pi < pj
		}
		return c.actions[i].seq < c.actions[j].seq
	})
}
