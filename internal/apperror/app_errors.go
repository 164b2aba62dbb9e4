package apperror

import "errors"

var (
	ErrRoomFull       = errors.New("room already has two participants")
	ErrNotParticipant = errors.New("device is not a participant of this room")
	ErrGameNotStarted = errors.New("game is not started")
	ErrGameFinished   = errors.New("game is already finished")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")
)
