package rest

// moveRequest - body of POST /rooms/{roomID}/move.
type moveRequest struct {
	Cell int `json:"cell"`
}

// stateResponse is the render model handed to the presentation layer: the
// full local view of a room after one tick.
type stateResponse struct {
	RoomID           string    `json:"room_id"`
	MyRole           string    `json:"my_role,omitempty"`
	Turn             string    `json:"turn,omitempty"`
	Board            [9]string `json:"board"`
	Status           string    `json:"status,omitempty"`
	Winner           string    `json:"winner,omitempty"`
	ParticipantCount int       `json:"participant_count"`
	InRoom           bool      `json:"in_room"`
	Warning          string    `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type roomChoicesResponse struct {
	Rooms []string `json:"rooms"`
}
