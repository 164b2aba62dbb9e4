package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/playgrid/roomsync-backend/internal/entity"
	"github.com/playgrid/roomsync-backend/internal/repository"
)

const (
	NoticeRoomDissolved = "room dissolved"
	NoticeRemoved       = "removed from room"
	NoticeStoreTrouble  = "could not reach the room store, try again"
)

// Session is the client-local, disposable view of a room. It is passed into
// Reconcile by value and returned rewritten; no state lives outside it
// between ticks.
type Session struct {
	DeviceID         string
	RoomID           string
	MyMark           string
	Board            entity.Board
	Turn             string
	Status           string
	Winner           string
	ParticipantCount int
	EnteredRoom      bool
	Notice           string
}

// Reconciler replaces a session's cached view with the latest authoritative
// record on every client tick. Authoritative-wins: local speculative state
// is overwritten, never merged.
type Reconciler struct {
	logger *slog.Logger
	rooms  roomRepo
}

func NewReconciler(logger *slog.Logger, rooms roomRepo) *Reconciler {
	return &Reconciler{
		logger: logger,
		rooms:  rooms,
	}
}

// Reconcile - one tick. A missing room while the session thinks it is
// inside means the room dissolved; a record that no longer lists the device
// means it was removed. A store failure leaves the cached view as is and
// flags a notice; the next tick retries.
func (that *Reconciler) Reconcile(ctx context.Context, session Session) Session {
	next := session
	next.Notice = ""

	room, err := that.rooms.Find(ctx, session.RoomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		if session.EnteredRoom {
			return exited(next, NoticeRoomDissolved)
		}

		return next
	}
	if err != nil {
		that.logger.With("method", "Reconcile").Warn("failed to fetch room", "room_id", session.RoomID, "error", err)
		next.Notice = NoticeStoreTrouble

		return next
	}

	participant, ok := room.ParticipantByDevice(session.DeviceID)
	if !ok {
		if session.EnteredRoom {
			return exited(next, NoticeRemoved)
		}

		return next
	}

	next.EnteredRoom = true
	next.MyMark = participant.Mark
	next.Board = room.Board
	next.Turn = room.Turn
	next.Status = room.Status
	next.Winner = room.Winner
	next.ParticipantCount = len(room.Participants)

	return next
}

func exited(session Session, notice string) Session {
	return Session{
		DeviceID: session.DeviceID,
		RoomID:   session.RoomID,
		Notice:   notice,
	}
}
