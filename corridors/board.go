// Package corridors holds the wire-level board record for the
// Corridors game (a Quoridor variant). The search engine treats these
// fields opaquely: move semantics live entirely with the host's game
// state implementation, which converts this record into its own type.
package corridors

import "fmt"

// BoardSize is the number of squares per side.
const BoardSize = 9

// Bitset lengths of the three wall layers. Wall middles sit between
// four squares; horizontal and vertical walls are identified by their
// top-left anchor.
const (
	WallMiddlesLen     = (BoardSize - 1) * (BoardSize - 1)
	HorizontalWallsLen = (BoardSize - 1) * BoardSize
	VerticalWallsLen   = (BoardSize - 1) * BoardSize
)

// StartingWalls is each player's initial wall supply.
const StartingWalls = 10

// Board is the structured board value accepted by
// SetStateAndMakeBestMove on an embedding surface. Flip marks whether
// the record is expressed from the opposite player's perspective.
type Board struct {
	Flip bool

	HeroX, HeroY       uint16
	VillainX, VillainY uint16

	HeroWallsRemaining    uint16
	VillainWallsRemaining uint16

	WallMiddles     []bool
	HorizontalWalls []bool
	VerticalWalls   []bool
}

// NewBoard returns the standard starting record: hero on the center of
// the near edge, villain opposite, full wall supplies, no walls placed.
func NewBoard() Board {
	return Board{
		HeroX:                 BoardSize / 2,
		HeroY:                 0,
		VillainX:              BoardSize / 2,
		VillainY:              BoardSize - 1,
		HeroWallsRemaining:    StartingWalls,
		VillainWallsRemaining: StartingWalls,
		WallMiddles:           make([]bool, WallMiddlesLen),
		HorizontalWalls:       make([]bool, HorizontalWallsLen),
		VerticalWalls:         make([]bool, VerticalWallsLen),
	}
}

// Validate checks field ranges and bitset lengths. It knows nothing of
// move legality; that is the host game's business.
func (b Board) Validate() error {
	if b.HeroX >= BoardSize || b.HeroY >= BoardSize {
		return fmt.Errorf("hero position (%d, %d) off the board", b.HeroX, b.HeroY)
	}
	if b.VillainX >= BoardSize || b.VillainY >= BoardSize {
		return fmt.Errorf("villain position (%d, %d) off the board", b.VillainX, b.VillainY)
	}
	if b.HeroX == b.VillainX && b.HeroY == b.VillainY {
		return fmt.Errorf("hero and villain share square (%d, %d)", b.HeroX, b.HeroY)
	}
	if b.HeroWallsRemaining > StartingWalls || b.VillainWallsRemaining > StartingWalls {
		return fmt.Errorf("wall supplies %d/%d exceed %d",
			b.HeroWallsRemaining, b.VillainWallsRemaining, StartingWalls)
	}
	if len(b.WallMiddles) != WallMiddlesLen {
		return fmt.Errorf("wall middles bitset has %d entries, want %d", len(b.WallMiddles), WallMiddlesLen)
	}
	if len(b.HorizontalWalls) != HorizontalWallsLen {
		return fmt.Errorf("horizontal walls bitset has %d entries, want %d", len(b.HorizontalWalls), HorizontalWallsLen)
	}
	if len(b.VerticalWalls) != VerticalWallsLen {
		return fmt.Errorf("vertical walls bitset has %d entries, want %d", len(b.VerticalWalls), VerticalWallsLen)
	}
	return nil
}

// Clone deep-copies the record.
func (b Board) Clone() Board {
	c := b
	c.WallMiddles = append([]bool(nil), b.WallMiddles...)
	c.HorizontalWalls = append([]bool(nil), b.HorizontalWalls...)
	c.VerticalWalls = append([]bool(nil), b.VerticalWalls...)
	return c
}
