package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/roomsync-backend/internal/entity"
	"github.com/playgrid/roomsync-backend/testing/suite"
)

const (
	testOpTimeout = 5 * time.Second
	testRoomTTL   = time.Hour
)

func TestRoomRepository_CreateAndFind(t *testing.T) {
	t.Run("Create assigns a record handle and Find returns the room", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		// Given: a fresh room for device-1
		created, err := roomRepo.Create(ctx, entity.NewRoom("9001", "device-1"))
		require.NoError(t, err)
		require.NotEmpty(t, created.RecordID)
		require.NotZero(t, created.CreatedAt)

		// When: looking the room up by its user-chosen id
		found, err := roomRepo.Find(ctx, "9001")

		// Then: the stored record matches what was created
		require.NoError(t, err)
		assert.Equal(t, created.RecordID, found.RecordID)
		assert.Equal(t, "9001", found.RoomID)
		assert.Equal(t, entity.StatusOpen, found.Status)
		assert.Equal(t, entity.MarkX, found.Turn)
		assert.Equal(t, entity.NewBoard(), found.Board)
		require.Len(t, found.Participants, 1)
		assert.Equal(t, "device-1", found.Participants[0].DeviceID)
	})

	t.Run("Find returns ErrRoomNotFound for an unknown room", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		_, err := roomRepo.Find(ctx, "no-such-room")

		require.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("Find picks the most recently created duplicate", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		// Given: two records racing onto the same roomID
		first, err := roomRepo.Create(ctx, entity.NewRoom("9001", "device-1"))
		require.NoError(t, err)

		second, err := roomRepo.Create(ctx, entity.NewRoom("9001", "device-2"))
		require.NoError(t, err)
		require.Greater(t, second.CreatedAt, first.CreatedAt)

		// When: resolving the roomID
		found, err := roomRepo.Find(ctx, "9001")

		// Then: clients converge on the later record
		require.NoError(t, err)
		assert.Equal(t, second.RecordID, found.RecordID)
	})
}

func TestRoomRepository_Update(t *testing.T) {
	t.Run("Partial update leaves unlisted fields intact", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		created, err := roomRepo.Create(ctx, entity.NewRoom("9001", "device-1"))
		require.NoError(t, err)

		// When: updating only the turn
		turn := entity.MarkO
		err = roomRepo.Update(ctx, created.RecordID, &RoomPatch{Turn: &turn})
		require.NoError(t, err)

		// Then: the turn changed and everything else survived
		found, err := roomRepo.Find(ctx, "9001")
		require.NoError(t, err)
		assert.Equal(t, entity.MarkO, found.Turn)
		assert.Equal(t, entity.StatusOpen, found.Status)
		require.Len(t, found.Participants, 1)
	})

	t.Run("Update of a missing record reports ErrRoomNotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		turn := entity.MarkO
		err := roomRepo.Update(ctx, "gone", &RoomPatch{Turn: &turn})

		require.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestRoomRepository_Delete(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

	created, err := roomRepo.Create(ctx, entity.NewRoom("9001", "device-1"))
	require.NoError(t, err)

	// When: the record is deleted
	err = roomRepo.Delete(ctx, created.RecordID, "9001")
	require.NoError(t, err)

	// Then: the roomID resolves to nothing
	_, err = roomRepo.Find(ctx, "9001")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomRepository_DefensiveDecode(t *testing.T) {
	t.Run("Record with missing fields decodes to safe defaults", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		// Given: a legacy record carrying only its id and creation time
		err := st.Storage.HSet(ctx, "room:rec:legacy", map[string]any{
			"room_id":    "9001",
			"created_at": "42",
		}).Err()
		require.NoError(t, err)
		require.NoError(t, st.Storage.SAdd(ctx, "room:idx:9001", "legacy").Err())

		// When: resolving the room
		found, err := roomRepo.Find(ctx, "9001")

		// Then: board, turn, status and participants all defaulted
		require.NoError(t, err)
		assert.Equal(t, entity.NewBoard(), found.Board)
		assert.Equal(t, entity.MarkX, found.Turn)
		assert.Equal(t, entity.StatusOpen, found.Status)
		assert.Empty(t, found.Participants)
		assert.Equal(t, int64(42), found.CreatedAt)
	})

	t.Run("Corrupt board and participants fall back to defaults", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		err := st.Storage.HSet(ctx, "room:rec:corrupt", map[string]any{
			"room_id":      "9001",
			"board":        "{not json",
			"participants": "also not json",
			"created_at":   "7",
		}).Err()
		require.NoError(t, err)
		require.NoError(t, st.Storage.SAdd(ctx, "room:idx:9001", "corrupt").Err())

		found, err := roomRepo.Find(ctx, "9001")

		require.NoError(t, err)
		assert.Equal(t, entity.NewBoard(), found.Board)
		assert.Empty(t, found.Participants)
	})

	t.Run("Dangling index entries are pruned", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testOpTimeout, testRoomTTL)

		// Given: an index pointing at an expired record next to a live one
		require.NoError(t, st.Storage.SAdd(ctx, "room:idx:9001", "expired").Err())
		created, err := roomRepo.Create(ctx, entity.NewRoom("9001", "device-1"))
		require.NoError(t, err)

		// When: resolving the room
		found, err := roomRepo.Find(ctx, "9001")

		// Then: the live record wins and the dangling entry is gone
		require.NoError(t, err)
		assert.Equal(t, created.RecordID, found.RecordID)

		members, err := st.Storage.SMembers(ctx, "room:idx:9001").Result()
		require.NoError(t, err)
		assert.NotContains(t, members, "expired")
	})
}
