package testutils

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "Health" }

type Position struct{ X, Y int }

func (Position) Name() string { return "Position" }

type Velocity struct{ X, Y int }

func (Velocity) Name() string { return "Velocity" }

type Bag struct{ Slots []int }

func (Bag) Name() string { return "Bag" }

// Impostor reuses Health's name with a different layout.
type Impostor struct{ Label string }

func (Impostor) Name() string { return "Health" }
