package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playgrid/roomsync-backend/internal/apperror"
	"github.com/playgrid/roomsync-backend/internal/entity"
	"github.com/playgrid/roomsync-backend/internal/pkg"
	"github.com/playgrid/roomsync-backend/internal/repository"
	"github.com/playgrid/roomsync-backend/internal/usecase"
)

const deviceCookieName = "device_id"

const storeWarning = "could not save to the room store, refresh to see the latest state"

func (that *Server) handleRoomChoices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, roomChoicesResponse{Rooms: that.choices})
}

// handleState - one reconciliation tick: refresh the caller's view of the
// room from the authoritative record.
func (that *Server) handleState(w http.ResponseWriter, r *http.Request) {
	deviceID := that.deviceID(w, r)
	roomID := chi.URLParam(r, "roomID")

	session := that.reconciler.Reconcile(r.Context(), usecase.Session{
		DeviceID:    deviceID,
		RoomID:      roomID,
		EnteredRoom: true,
	})

	writeJSON(w, http.StatusOK, stateResponse{
		RoomID:           session.RoomID,
		MyRole:           session.MyMark,
		Turn:             session.Turn,
		Board:            session.Board,
		Status:           session.Status,
		Winner:           session.Winner,
		ParticipantCount: session.ParticipantCount,
		InRoom:           session.EnteredRoom,
		Warning:          session.Notice,
	})
}

func (that *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	deviceID := that.deviceID(w, r)
	roomID := chi.URLParam(r, "roomID")

	room, err := that.rooms.Join(r.Context(), roomID, deviceID)
	if errors.Is(err, apperror.ErrRoomFull) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}

	that.respondRoom(w, roomID, deviceID, room, err)
}

func (that *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	deviceID := that.deviceID(w, r)
	roomID := chi.URLParam(r, "roomID")

	room, err := that.rooms.Leave(r.Context(), roomID, deviceID)
	if err == nil && room == nil {
		// last participant gone, room dissolved
		writeJSON(w, http.StatusOK, stateResponse{RoomID: roomID})
		return
	}

	that.respondRoom(w, roomID, deviceID, room, err)
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	deviceID := that.deviceID(w, r)
	roomID := chi.URLParam(r, "roomID")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	room, err := that.rooms.ApplyMove(r.Context(), roomID, deviceID, req.Cell)

	switch {
	case errors.Is(err, apperror.ErrInvalidCell):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, apperror.ErrNotParticipant),
		errors.Is(err, apperror.ErrGameNotStarted),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}

	that.respondRoom(w, roomID, deviceID, room, err)
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	deviceID := that.deviceID(w, r)
	roomID := chi.URLParam(r, "roomID")

	room, err := that.rooms.Reset(r.Context(), roomID)
	that.respondRoom(w, roomID, deviceID, room, err)
}

// respondRoom - maps a manager result onto the render model. A write
// failure with a locally updated room degrades to a warning rather than an
// error: the caller keeps its optimistic state and the next tick re-derives
// truth from the store.
func (that *Server) respondRoom(w http.ResponseWriter, roomID, deviceID string, room *entity.Room, err error) {
	if err != nil && room == nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "room not found"})
			return
		}

		that.logger.Warn("store operation failed", "room_id", roomID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "room store unavailable"})
		return
	}

	resp := stateResponse{
		RoomID:           room.RoomID,
		Turn:             room.Turn,
		Board:            room.Board,
		Status:           room.Status,
		Winner:           room.Winner,
		ParticipantCount: len(room.Participants),
	}

	if participant, ok := room.ParticipantByDevice(deviceID); ok {
		resp.MyRole = participant.Mark
		resp.InRoom = true
	}

	if err != nil {
		that.logger.Warn("store write failed", "room_id", roomID, "error", err)
		resp.Warning = storeWarning
	}

	writeJSON(w, http.StatusOK, resp)
}

// deviceID - returns the caller's device identity, minting and pinning a
// new one in a cookie on first contact.
func (that *Server) deviceID(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(deviceCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := pkg.GenerateDeviceID()
	http.SetCookie(w, &http.Cookie{
		Name:    deviceCookieName,
		Value:   id,
		Expires: time.Now().Add(24 * time.Hour),
		Path:    "/",
	})

	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
