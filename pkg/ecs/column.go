package ecs

import "github.com/argus-labs/roseshard/pkg/assert"

// columnFactory is a function that creates a new abstractColumn instance.
type columnFactory func() abstractColumn

// abstractColumn is an internal interface for generic column operations.
type abstractColumn interface {
	len() int
	name() string
	extend()

	setAbstract(row int, component Component)
	getAbstract(row int) Component
	remove(row int)
}

var _ abstractColumn = &column[Component]{}

// column stores the component data of entities in an archetype. The length of the components slice
// must match the length of the entities slice in the archetype.
type column[T Component] struct {
	compName   string // The name of the component stored in this column
	components []T    // Array containing the component data
}

func newColumn[T Component]() column[T] {
	var zero T
	const initialCapacity = 16
	return column[T]{
		compName:   zero.Name(),
		components: make([]T, 0, initialCapacity),
	}
}

// newColumnFactory returns a function that constructs a new column of type T.
func newColumnFactory[T Component]() columnFactory {
	return func() abstractColumn {
		col := newColumn[T]()
		return &col
	}
}

func (c *column[T]) len() int {
	return len(c.components)
}

func (c *column[T]) name() string {
	return c.compName
}

// extend adds a new row initialized with the zero value.
func (c *column[T]) extend() {
	var zero T
	c.components = append(c.components, zero)
}

// set sets the component in a given row. Prefer it over setAbstract, which boxes the value.
func (c *column[T]) set(row int, component T) {
	assert.That(row < len(c.components), "column isn't extended when entity is created")
	c.components[row] = component
}

// setAbstract sets the component in a given row when the concrete type isn't known.
func (c *column[T]) setAbstract(row int, component Component) {
	concrete, ok := component.(T)
	assert.That(ok, "tried to set the wrong component type")
	c.set(row, concrete)
}

// get gets the value from a given row. Expects the caller to make sure the row is inside the column.
func (c *column[T]) get(row int) T {
	assert.That(row < len(c.components), "component doesn't exist")
	return c.components[row]
}

func (c *column[T]) getAbstract(row int) Component {
	return c.get(row)
}

// remove removes a given row by swapping the last value into it.
func (c *column[T]) remove(row int) {
	assert.That(row < len(c.components), "tried to remove component that doesn't exist")

	lastIndex := len(c.components) - 1
	c.components[row] = c.components[lastIndex]

	var zero T
	c.components[lastIndex] = zero // Drop references held by the removed value.
	c.components = c.components[:lastIndex]
}
