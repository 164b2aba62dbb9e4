package usecase

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/roomsync-backend/internal/entity"
	"github.com/playgrid/roomsync-backend/internal/repository"
)

type failingRoomRepo struct {
	*fakeRoomRepo
}

func (that *failingRoomRepo) Find(context.Context, string) (*entity.Room, error) {
	return nil, errStoreDown
}

func newTestReconciler() (*Reconciler, *fakeRoomRepo) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := newFakeRoomRepo()

	return NewReconciler(logger, repo), repo
}

func TestReconciler_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("Overwrites the local view with the authoritative record", func(t *testing.T) {
		// Given: a stored room where D1 plays X and has moved
		reconciler, repo := newTestReconciler()
		room := entity.NewRoom("9001", "D1")
		_, err := room.AddParticipant("D2")
		require.NoError(t, err)
		require.NoError(t, room.MakeTurn(entity.MarkX, 4))
		_, err = repo.Create(ctx, room)
		require.NoError(t, err)

		// And: a stale local session claiming an empty board
		stale := Session{DeviceID: "D2", RoomID: "9001", EnteredRoom: true, Turn: entity.MarkX}

		// When: reconciling one tick
		next := reconciler.Reconcile(ctx, stale)

		// Then: every field reflects the store, not the cache
		assert.True(t, next.EnteredRoom)
		assert.Equal(t, entity.MarkO, next.MyMark)
		assert.Equal(t, entity.MarkX, next.Board[4])
		assert.Equal(t, entity.MarkO, next.Turn)
		assert.Equal(t, entity.StatusFull, next.Status)
		assert.Equal(t, 2, next.ParticipantCount)
		assert.Empty(t, next.Notice)
	})

	t.Run("Missing room while entered means the room dissolved", func(t *testing.T) {
		reconciler, _ := newTestReconciler()

		session := Session{DeviceID: "D1", RoomID: "9001", EnteredRoom: true, MyMark: entity.MarkX}

		next := reconciler.Reconcile(ctx, session)

		assert.False(t, next.EnteredRoom)
		assert.Equal(t, NoticeRoomDissolved, next.Notice)
		assert.Empty(t, next.MyMark)
	})

	t.Run("Missing room before entering carries no notice", func(t *testing.T) {
		reconciler, _ := newTestReconciler()

		next := reconciler.Reconcile(ctx, Session{DeviceID: "D1", RoomID: "9001"})

		assert.False(t, next.EnteredRoom)
		assert.Empty(t, next.Notice)
	})

	t.Run("Device no longer listed means it was removed", func(t *testing.T) {
		// Given: a room that lists only D2
		reconciler, repo := newTestReconciler()
		_, err := repo.Create(ctx, entity.NewRoom("9001", "D2"))
		require.NoError(t, err)

		session := Session{DeviceID: "D1", RoomID: "9001", EnteredRoom: true, MyMark: entity.MarkX}

		// When: D1 reconciles
		next := reconciler.Reconcile(ctx, session)

		// Then: the session is exited with a removal notice
		assert.False(t, next.EnteredRoom)
		assert.Equal(t, NoticeRemoved, next.Notice)
	})

	t.Run("Store failure keeps the cached view and flags a notice", func(t *testing.T) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reconciler := NewReconciler(logger, &failingRoomRepo{newFakeRoomRepo()})

		session := Session{
			DeviceID:    "D1",
			RoomID:      "9001",
			EnteredRoom: true,
			MyMark:      entity.MarkX,
			Turn:        entity.MarkO,
		}

		next := reconciler.Reconcile(ctx, session)

		// cached state survives, only the notice changes
		assert.True(t, next.EnteredRoom)
		assert.Equal(t, entity.MarkX, next.MyMark)
		assert.Equal(t, entity.MarkO, next.Turn)
		assert.Equal(t, NoticeStoreTrouble, next.Notice)
	})

	t.Run("Session fields line up with repository sentinel semantics", func(t *testing.T) {
		// a room deleted between ticks surfaces as NotFound, not an error
		reconciler, repo := newTestReconciler()
		created, err := repo.Create(ctx, entity.NewRoom("9001", "D1"))
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, created.RecordID, "9001"))

		_, err = repo.Find(ctx, "9001")
		require.ErrorIs(t, err, repository.ErrRoomNotFound)

		next := reconciler.Reconcile(ctx, Session{DeviceID: "D1", RoomID: "9001", EnteredRoom: true})
		assert.Equal(t, NoticeRoomDissolved, next.Notice)
	})
}
