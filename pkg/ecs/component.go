package ecs

import (
	"reflect"

	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/rotisserie/eris"
)

// Component is the interface that all components must implement.
// Components are pure data containers that can be attached to entities.
type Component interface { //nolint:iface // We may add more methods in the future.
	// Name returns a unique string identifier for the component type.
	Name() string
}

// componentID is a unique identifier for a component type, used as its bit in archetype masks.
type componentID = uint32

// componentManager manages component type registration and lookup.
type componentManager struct {
	nextID    componentID             // The next available component ID
	catalog   map[string]componentID  // Component name -> component ID
	types     map[string]reflect.Type // Component name -> Go type
	factories []columnFactory         // Component ID -> column factory
}

func newComponentManager() componentManager {
	return componentManager{
		nextID:    0,
		catalog:   make(map[string]componentID),
		types:     make(map[string]reflect.Type),
		factories: make([]columnFactory, 0),
	}
}

// register registers a component type and returns its ID. Registering the same type twice is a
// no-op; registering a different type under an existing name is an error.
func (cm *componentManager) register(name string, typ reflect.Type, factory columnFactory) (componentID, error) {
	if name == "" {
		return 0, eris.New("component name cannot be empty")
	}

	if cid, exists := cm.catalog[name]; exists {
		if cm.types[name] != typ {
			return 0, eris.Errorf("component name %q is already used by %s", name, cm.types[name])
		}
		return cid, nil
	}

	cm.catalog[name] = cm.nextID
	cm.types[name] = typ
	cm.factories = append(cm.factories, factory)
	cm.nextID++
	assert.That(int(cm.nextID) == len(cm.factories), "component id doesn't match number of components")

	return cm.nextID - 1, nil
}

// lookup returns a registered component's ID given its name.
func (cm *componentManager) lookup(name string) (componentID, bool) {
	id, exists := cm.catalog[name]
	return id, exists
}

// registerComponent registers T with the manager on first use.
func registerComponent[T Component](cm *componentManager) (componentID, error) {
	var zero T
	return cm.register(zero.Name(), reflect.TypeFor[T](), newColumnFactory[T]())
}
