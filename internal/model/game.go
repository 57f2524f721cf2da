package model

import (
	"fmt"
	"strings"
)

// Board dimensions and cell bytes
const (
	BoardHeight = 5
	BoardWidth  = 27

	CellWall   byte = '*'
	CellPellet byte = '.'
	CellEmpty  byte = ' '
)

var initialBoard = [BoardHeight]string{
	"******.**... .....**.******",
	"******.**.*******.**.******",
	"******.**.*.. ..*.**.******",
	"..... ....*.....*..........",
	"******.**.*.. ..*.**.******",
}

var (
	pacmanStart      = Position{Row: 2, Col: 13}
	localGhostStart  = Position{Row: 3, Col: 24}
	remoteGhostStart = Position{Row: 3, Col: 3}
)

// Position identifies a cell on the board
type Position struct {
	Row int `json:"row"` // 0-indexed from top
	Col int `json:"col"` // 0-indexed from left
}

func (p Position) valid() bool {
	return p.Row >= 0 && p.Row < BoardHeight && p.Col >= 0 && p.Col < BoardWidth
}

// Direction is a move on the board, named after its wasd key
type Direction byte

const (
	North Direction = 'w'
	West  Direction = 'a'
	South Direction = 's'
	East  Direction = 'd'
)

// Directions lists every valid move
var Directions = []Direction{North, West, South, East}

// ParseDirection parses a single wasd key
func ParseDirection(s string) (Direction, error) {
	if len(s) == 1 {
		switch d := Direction(s[0]); d {
		case North, West, South, East:
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (d Direction) delta() (int, int) {
	switch d {
	case North:
		return -1, 0
	case West:
		return 0, -1
	case South:
		return 1, 0
	case East:
		return 0, 1
	}
	return 0, 0
}

// Game is the shared board state exchanged between the two players.
// Pacman eats pellets for score; touching either ghost ends the game.
type Game struct {
	Board       [BoardHeight]string `json:"board"`
	Pacman      Position            `json:"pacman"`
	Score       uint64              `json:"score"`
	LocalGhost  Position            `json:"local_ghost"`
	RemoteGhost *Position           `json:"remote_ghost,omitempty"`
	Ended       bool                `json:"ended"`
}

// NewGame returns a game on the initial board
func NewGame() *Game {
	return &Game{
		Board:      initialBoard,
		Pacman:     pacmanStart,
		LocalGhost: localGhostStart,
	}
}

// GameOver reports whether Pacman has been caught
func (g *Game) GameOver() bool {
	return g.Ended
}

// At returns the cell byte at p
func (g *Game) At(p Position) byte {
	return g.Board[p.Row][p.Col]
}

// MovePacman moves Pacman, eating a pellet if there is one. Walls block the move.
func (g *Game) MovePacman(d Direction) {
	next := step(g.Pacman, d)
	switch g.At(next) {
	case CellWall:
		return
	case CellPellet:
		g.Score++
		g.setCell(next, CellEmpty)
	}
	g.Pacman = next
	g.checkCollision()
}

// MoveLocalGhost moves the ghost simulated by the host
func (g *Game) MoveLocalGhost(d Direction) {
	next := step(g.LocalGhost, d)
	if g.At(next) == CellWall {
		return
	}
	g.LocalGhost = next
	g.checkCollision()
}

// MoveRemoteGhost moves the ghost controlled by the joined player, if present
func (g *Game) MoveRemoteGhost(d Direction) {
	if g.RemoteGhost == nil {
		return
	}
	next := step(*g.RemoteGhost, d)
	if g.At(next) == CellWall {
		return
	}
	*g.RemoteGhost = next
	g.checkCollision()
}

// AddRemoteGhost places the remote ghost at its start cell unless it is already on the board
func (g *Game) AddRemoteGhost() {
	if g.RemoteGhost == nil {
		p := remoteGhostStart
		g.RemoteGhost = &p
		g.checkCollision()
	}
}

// PlaceRemoteGhost puts the remote ghost at p, as reported by the joined player
func (g *Game) PlaceRemoteGhost(p Position) {
	if !p.valid() || g.At(p) == CellWall {
		return
	}
	g.RemoteGhost = &p
	g.checkCollision()
}

// RemoveRemoteGhost takes the remote ghost off the board
func (g *Game) RemoveRemoteGhost() {
	g.RemoteGhost = nil
}

// Validate checks a board received from a peer
func (g *Game) Validate() error {
	for row, line := range g.Board {
		if len(line) != BoardWidth {
			return fmt.Errorf("%w: row %d has width %d", ErrInvalidBoard, row, len(line))
		}
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case CellWall, CellPellet, CellEmpty:
			default:
				return fmt.Errorf("%w: unexpected cell %q", ErrInvalidBoard, line[i])
			}
		}
	}
	if !g.Pacman.valid() || !g.LocalGhost.valid() {
		return fmt.Errorf("%w: position out of range", ErrInvalidBoard)
	}
	if g.RemoteGhost != nil && !g.RemoteGhost.valid() {
		return fmt.Errorf("%w: remote ghost out of range", ErrInvalidBoard)
	}
	return nil
}

// Render draws the board: P is Pacman, F the local ghost, f the remote ghost
func (g *Game) Render() string {
	rows := make([][]byte, BoardHeight)
	for i, line := range g.Board {
		rows[i] = []byte(line)
	}
	rows[g.Pacman.Row][g.Pacman.Col] = 'P'
	rows[g.LocalGhost.Row][g.LocalGhost.Col] = 'F'
	if g.RemoteGhost != nil {
		rows[g.RemoteGhost.Row][g.RemoteGhost.Col] = 'f'
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Score: %d\n", g.Score)
	for _, row := range rows {
		sb.Write(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g *Game) setCell(p Position, c byte) {
	row := []byte(g.Board[p.Row])
	row[p.Col] = c
	g.Board[p.Row] = string(row)
}

func (g *Game) checkCollision() {
	if g.Pacman == g.LocalGhost {
		g.Ended = true
	}
	if g.RemoteGhost != nil && g.Pacman == *g.RemoteGhost {
		g.Ended = true
	}
}

// step moves one cell, wrapping around the board edges
func step(p Position, d Direction) Position {
	dr, dc := d.delta()
	return Position{
		Row: (p.Row + dr + BoardHeight) % BoardHeight,
		Col: (p.Col + dc + BoardWidth) % BoardWidth,
	}
}
