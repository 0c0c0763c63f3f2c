package domain

// Immutable grid position of a corral in the parking-lot layout.
type Coordinates struct {
	X int
	Y int
}
