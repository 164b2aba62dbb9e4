package pkg

import "github.com/google/uuid"

// GenerateDeviceID - mints the per-client identity token. Generated once per
// browsing session and carried in a cookie; a full reload may legitimately
// mint a new one.
func GenerateDeviceID() string {
	return uuid.NewString()
}

// GenerateRecordID - mints the opaque store handle assigned to a room record
// on creation.
func GenerateRecordID() string {
	return uuid.NewString()
}
