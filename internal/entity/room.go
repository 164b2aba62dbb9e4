package entity

import (
	"fmt"

	"github.com/playgrid/roomsync-backend/internal/apperror"
)

const (
	StatusOpen     = "open"
	StatusFull     = "full"
	StatusFinished = "finished"
)

// Participant binds a device to the mark it plays. Slice order is join
// order: the first joiner plays X, the second plays O.
type Participant struct {
	DeviceID string `json:"device_id"`
	Mark     string `json:"mark"`
}

// Room is the authoritative shared session. Exactly one copy lives in the
// store; everything a client holds is a disposable snapshot. RecordID is
// the store-assigned handle and the only safe key for updates and deletes.
type Room struct {
	RecordID     string        `json:"record_id"`
	RoomID       string        `json:"room_id"`
	Board        Board         `json:"board"`
	Turn         string        `json:"turn"`
	Status       string        `json:"status"`
	Winner       string        `json:"winner"`
	Participants []Participant `json:"participants"`
	CreatedAt    int64         `json:"created_at"`
}

// NewRoom - creates an open room with the given device as the first
// participant, playing X.
func NewRoom(roomID, deviceID string) *Room {
	return &Room{
		RoomID: roomID,
		Board:  NewBoard(),
		Turn:   MarkX,
		Status: StatusOpen,
		Participants: []Participant{
			{DeviceID: deviceID, Mark: MarkX},
		},
	}
}

// ParticipantByDevice - looks up the participant entry for a device.
func (that *Room) ParticipantByDevice(deviceID string) (Participant, bool) {
	for _, p := range that.Participants {
		if p.DeviceID == deviceID {
			return p, true
		}
	}

	return Participant{}, false
}

// AddParticipant - appends a device as the next participant and returns its
// assigned mark: the one not held by the seated participant, so a seat
// vacated by a leave is refilled with the same mark. The second joiner
// fills the room.
func (that *Room) AddParticipant(deviceID string) (string, error) {
	if len(that.Participants) >= 2 {
		return "", fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.RoomID)
	}

	mark := MarkX
	if len(that.Participants) == 1 {
		mark = OtherMark(that.Participants[0].Mark)
	}

	that.Participants = append(that.Participants, Participant{DeviceID: deviceID, Mark: mark})
	if len(that.Participants) == 2 && !that.IsFinished() {
		that.Status = StatusFull
	}

	return mark, nil
}

// RemoveParticipant - drops a device from the room. Board and turn are left
// untouched so the remaining player's game is not disrupted. Reports whether
// the device was present.
func (that *Room) RemoveParticipant(deviceID string) bool {
	for i, p := range that.Participants {
		if p.DeviceID == deviceID {
			that.Participants = append(that.Participants[:i], that.Participants[i+1:]...)
			if that.Status == StatusFull && !that.IsFinished() {
				that.Status = StatusOpen
			}
			return true
		}
	}

	return false
}

// MakeTurn - places mark on cell after validating the move, then advances
// turn or finishes the game. A finished game rejects as game over before
// anything else: turn is cleared at that point, and a bare wrong-turn
// rejection would mask the real reason.
func (that *Room) MakeTurn(mark string, cell int) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[cell] = mark

	switch outcome := that.Board.Outcome(); outcome {
	case EmptyCell:
		that.Turn = OtherMark(mark)
	default:
		that.Winner = outcome
		that.Status = StatusFinished
		that.Turn = EmptyCell
	}

	return nil
}

// ResetGame - restores an empty board with X to move. Participants are kept;
// the caller gates the operation on both being present.
func (that *Room) ResetGame() {
	that.Board = NewBoard()
	that.Turn = MarkX
	that.Status = StatusFull
	that.Winner = EmptyCell
}

func (that *Room) IsOpen() bool {
	return that.Status == StatusOpen
}

func (that *Room) IsFull() bool {
	return that.Status == StatusFull
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}
