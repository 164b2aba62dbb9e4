package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playgrid/roomsync-backend/internal/entity"
	"github.com/playgrid/roomsync-backend/internal/pkg"
)

var ErrRoomNotFound = errors.New("room not found")

const (
	recordKeyPrefix = "room:rec:"
	indexKeyPrefix  = "room:idx:"
)

type RoomRepository interface {
	Find(ctx context.Context, roomID string) (*entity.Room, error)
	Create(ctx context.Context, room *entity.Room) (*entity.Room, error)
	Update(ctx context.Context, recordID string, patch *RoomPatch) error
	Delete(ctx context.Context, recordID, roomID string) error
}

// RoomPatch is a partial update: only non-nil fields are written, every
// other field of the record stays untouched.
type RoomPatch struct {
	Board        *entity.Board
	Turn         *string
	Status       *string
	Winner       *string
	Participants *[]entity.Participant
}

func (that *RoomPatch) fields() (map[string]any, error) {
	fields := make(map[string]any)

	if that.Board != nil {
		boardJSON, err := json.Marshal(that.Board)
		if err != nil {
			return nil, fmt.Errorf("could not marshal board: %w", err)
		}
		fields["board"] = string(boardJSON)
	}

	if that.Turn != nil {
		fields["turn"] = *that.Turn
	}

	if that.Status != nil {
		fields["status"] = *that.Status
	}

	if that.Winner != nil {
		fields["winner"] = *that.Winner
	}

	if that.Participants != nil {
		participantsJSON, err := json.Marshal(that.Participants)
		if err != nil {
			return nil, fmt.Errorf("could not marshal participants: %w", err)
		}
		fields["participants"] = string(participantsJSON)
	}

	return fields, nil
}

type dbRoom struct {
	client    *redis.Client
	opTimeout time.Duration
	roomTTL   time.Duration
}

func NewRoomRepository(client *redis.Client, opTimeout, roomTTL time.Duration) RoomRepository {
	return &dbRoom{
		client:    client,
		opTimeout: opTimeout,
		roomTTL:   roomTTL,
	}
}

// Find - returns the authoritative record for roomID. The store does not
// enforce uniqueness on roomID, so concurrent creates can leave several
// records behind; the one with the greatest creation time wins. Index
// entries whose record has expired are pruned on the way.
func (that *dbRoom) Find(ctx context.Context, roomID string) (*entity.Room, error) {
	ctx, cancel := that.bound(ctx)
	defer cancel()

	recordIDs, err := that.client.SMembers(ctx, indexKeyPrefix+roomID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read room index: %w", err)
	}

	var latest *entity.Room
	for _, recordID := range recordIDs {
		fields, err := that.client.HGetAll(ctx, recordKeyPrefix+recordID).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read room record: %w", err)
		}

		if len(fields) == 0 {
			// record expired or deleted behind the index
			that.client.SRem(ctx, indexKeyPrefix+roomID, recordID)
			continue
		}

		room := decodeRoom(recordID, roomID, fields)
		if latest == nil || room.CreatedAt > latest.CreatedAt {
			latest = room
		}
	}

	if latest == nil {
		return nil, ErrRoomNotFound
	}

	return latest, nil
}

func (that *dbRoom) Create(ctx context.Context, room *entity.Room) (*entity.Room, error) {
	ctx, cancel := that.bound(ctx)
	defer cancel()

	room.RecordID = pkg.GenerateRecordID()
	room.CreatedAt = time.Now().UnixNano()

	boardJSON, err := json.Marshal(room.Board)
	if err != nil {
		return nil, fmt.Errorf("could not marshal board: %w", err)
	}

	participantsJSON, err := json.Marshal(room.Participants)
	if err != nil {
		return nil, fmt.Errorf("could not marshal participants: %w", err)
	}

	recordKey := recordKeyPrefix + room.RecordID
	err = that.client.HSet(ctx, recordKey, map[string]any{
		"room_id":      room.RoomID,
		"board":        string(boardJSON),
		"turn":         room.Turn,
		"status":       room.Status,
		"winner":       room.Winner,
		"participants": string(participantsJSON),
		"created_at":   strconv.FormatInt(room.CreatedAt, 10),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to create room record: %w", err)
	}

	if err = that.client.SAdd(ctx, indexKeyPrefix+room.RoomID, room.RecordID).Err(); err != nil {
		return nil, fmt.Errorf("failed to index room record: %w", err)
	}

	that.refreshTTL(ctx, room.RecordID, room.RoomID)

	return room, nil
}

func (that *dbRoom) Update(ctx context.Context, recordID string, patch *RoomPatch) error {
	ctx, cancel := that.bound(ctx)
	defer cancel()

	recordKey := recordKeyPrefix + recordID

	exists, err := that.client.Exists(ctx, recordKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check room record: %w", err)
	}
	if exists == 0 {
		return ErrRoomNotFound
	}

	fields, err := patch.fields()
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		return nil
	}

	if err = that.client.HSet(ctx, recordKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to update room record: %w", err)
	}

	roomID, err := that.client.HGet(ctx, recordKey, "room_id").Result()
	if err == nil {
		that.refreshTTL(ctx, recordID, roomID)
	}

	return nil
}

func (that *dbRoom) Delete(ctx context.Context, recordID, roomID string) error {
	ctx, cancel := that.bound(ctx)
	defer cancel()

	if err := that.client.Del(ctx, recordKeyPrefix+recordID).Err(); err != nil {
		return fmt.Errorf("failed to delete room record: %w", err)
	}

	if err := that.client.SRem(ctx, indexKeyPrefix+roomID, recordID).Err(); err != nil {
		return fmt.Errorf("failed to unindex room record: %w", err)
	}

	return nil
}

func (that *dbRoom) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if that.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, that.opTimeout)
}

// refreshTTL - keeps abandoned rooms from living forever. Best effort: an
// expiry failure never fails the write that triggered it.
func (that *dbRoom) refreshTTL(ctx context.Context, recordID, roomID string) {
	if that.roomTTL <= 0 {
		return
	}

	that.client.Expire(ctx, recordKeyPrefix+recordID, that.roomTTL)
	that.client.Expire(ctx, indexKeyPrefix+roomID, that.roomTTL)
}

// decodeRoom - turns a raw record into a Room, defaulting every missing or
// corrupt field. Concurrent partial writes and legacy records may omit
// fields; decoding must never fail because of them.
func decodeRoom(recordID, roomID string, fields map[string]string) *entity.Room {
	room := &entity.Room{
		RecordID: recordID,
		RoomID:   roomID,
		Board:    entity.NewBoard(),
		Turn:     entity.MarkX,
		Status:   entity.StatusOpen,
	}

	if storedRoomID, ok := fields["room_id"]; ok && storedRoomID != "" {
		room.RoomID = storedRoomID
	}

	if boardJSON, ok := fields["board"]; ok {
		var board entity.Board
		if err := json.Unmarshal([]byte(boardJSON), &board); err == nil {
			room.Board = board
		}
	}

	if turn, ok := fields["turn"]; ok {
		room.Turn = turn
	}

	if status, ok := fields["status"]; ok && status != "" {
		room.Status = status
	}

	room.Winner = fields["winner"]

	if participantsJSON, ok := fields["participants"]; ok {
		var participants []entity.Participant
		if err := json.Unmarshal([]byte(participantsJSON), &participants); err == nil {
			room.Participants = participants
		}
	}

	if createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64); err == nil {
		room.CreatedAt = createdAt
	}

	return room
}
