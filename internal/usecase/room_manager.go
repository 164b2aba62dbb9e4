package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playgrid/roomsync-backend/internal/apperror"
	"github.com/playgrid/roomsync-backend/internal/entity"
	"github.com/playgrid/roomsync-backend/internal/repository"
)

type roomRepo interface {
	Find(ctx context.Context, roomID string) (*entity.Room, error)
	Create(ctx context.Context, room *entity.Room) (*entity.Room, error)
	Update(ctx context.Context, recordID string, patch *repository.RoomPatch) error
	Delete(ctx context.Context, recordID, roomID string) error
}

// RoomManager drives the room state machine: absent -> open -> full ->
// absent again once the last participant leaves. Every write is a blind
// last-writer-wins overwrite; the store offers no compare-and-swap, so
// concurrent writers racing on stale snapshots are converged by the next
// Find rather than prevented.
type RoomManager struct {
	logger *slog.Logger
	rooms  roomRepo
}

func NewRoomManager(logger *slog.Logger, rooms roomRepo) *RoomManager {
	return &RoomManager{
		logger: logger,
		rooms:  rooms,
	}
}

// Join - fetch-or-create. The first joiner creates the room and plays X,
// the second fills it as O. Re-joining with a known device returns the room
// unchanged. Two devices creating the same fresh roomID at once both
// succeed; Find's latest-creation tie-break decides which record clients
// converge on.
func (that *RoomManager) Join(ctx context.Context, roomID, deviceID string) (*entity.Room, error) {
	log := that.logger.With("method", "Join")

	room, err := that.rooms.Find(ctx, roomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		created, createErr := that.rooms.Create(ctx, entity.NewRoom(roomID, deviceID))
		if createErr != nil {
			return nil, fmt.Errorf("failed to create room: %w", createErr)
		}

		log.Info("room created", "room_id", roomID)

		return created, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	if _, ok := room.ParticipantByDevice(deviceID); ok {
		return room, nil
	}

	if _, err = room.AddParticipant(deviceID); err != nil {
		return nil, err
	}

	patch := &repository.RoomPatch{
		Participants: &room.Participants,
		Status:       &room.Status,
	}
	if err = that.rooms.Update(ctx, room.RecordID, patch); err != nil {
		return room, fmt.Errorf("failed to persist join: %w", err)
	}

	log.Info("participant joined", "room_id", roomID, "participants", len(room.Participants))

	return room, nil
}

// Leave - removes the device from the room. The last participant leaving
// deletes the record outright, freeing the roomID for a future room.
// Unknown room or device is a no-op, not an error.
func (that *RoomManager) Leave(ctx context.Context, roomID, deviceID string) (*entity.Room, error) {
	log := that.logger.With("method", "Leave")

	room, err := that.rooms.Find(ctx, roomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	if !room.RemoveParticipant(deviceID) {
		return room, nil
	}

	if len(room.Participants) == 0 {
		if err = that.rooms.Delete(ctx, room.RecordID, room.RoomID); err != nil {
			return nil, fmt.Errorf("failed to delete empty room: %w", err)
		}

		log.Info("room deleted", "room_id", roomID)

		return nil, nil
	}

	patch := &repository.RoomPatch{
		Participants: &room.Participants,
		Status:       &room.Status,
	}
	if err = that.rooms.Update(ctx, room.RecordID, patch); err != nil {
		return room, fmt.Errorf("failed to persist leave: %w", err)
	}

	log.Info("participant left", "room_id", roomID, "participants", len(room.Participants))

	return room, nil
}

// ApplyMove - validates the move against the latest record and persists the
// new board. Rejections stay local: nothing is written on an invalid move.
// A failed write returns the locally updated room alongside the error so
// the caller can surface a warning without rolling back.
func (that *RoomManager) ApplyMove(ctx context.Context, roomID, deviceID string, cell int) (*entity.Room, error) {
	room, err := that.rooms.Find(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	participant, ok := room.ParticipantByDevice(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: room %s", apperror.ErrNotParticipant, roomID)
	}

	if room.IsOpen() {
		return nil, apperror.ErrGameNotStarted
	}

	if err = room.MakeTurn(participant.Mark, cell); err != nil {
		return nil, err
	}

	patch := &repository.RoomPatch{
		Board:  &room.Board,
		Turn:   &room.Turn,
		Status: &room.Status,
		Winner: &room.Winner,
	}
	if err = that.rooms.Update(ctx, room.RecordID, patch); err != nil {
		return room, fmt.Errorf("failed to persist move: %w", err)
	}

	return room, nil
}

// Reset - clears the board for a rematch, keeping both participants. The
// caller gates it on both being present.
func (that *RoomManager) Reset(ctx context.Context, roomID string) (*entity.Room, error) {
	room, err := that.rooms.Find(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	room.ResetGame()

	patch := &repository.RoomPatch{
		Board:  &room.Board,
		Turn:   &room.Turn,
		Status: &room.Status,
		Winner: &room.Winner,
	}
	if err = that.rooms.Update(ctx, room.RecordID, patch); err != nil {
		return room, fmt.Errorf("failed to persist reset: %w", err)
	}

	return room, nil
}
