package entity

const (
	MarkX   = "X"
	MarkO   = "O"
	MarkTie = "-"

	EmptyCell = ""
)

const BoardSize = 9

// WinCombos - the 8 winning triples: 3 rows, 3 columns, 2 diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is the 3x3 grid in row-major order. The zero value is an empty board.
type Board [BoardSize]string

func NewBoard() Board {
	return Board{}
}

// Outcome - returns the winning mark if a triple is completed, MarkTie when
// the board is full without a winner, or EmptyCell while the game continues.
func (that Board) Outcome() string {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that {
		if cell == EmptyCell {
			return EmptyCell
		}
	}

	return MarkTie
}

// OtherMark - returns the opposing mark.
func OtherMark(mark string) string {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}
