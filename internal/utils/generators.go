package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// TicketID derives a ticket identifier from the booking pair. A content-derived
// id makes repeated issuance for the same (event, email) trivially idempotent:
// two racing Book calls compute the same id and the unique constraint picks
// one winner.
func TicketID(eventID, email string) string {
	sum := sha256.Sum256([]byte(eventID + "|" + strings.ToLower(email)))
	return "tkt_" + hex.EncodeToString(sum[:])[:32]
}

// GenerateUUID creates a random UUID v4 without external coordination.
func GenerateUUID() string {
	uuid := make([]byte, 16)
	if _, err := rand.Read(uuid); err != nil {
		return ""
	}

	// Set version to 4 (random)
	uuid[6] = (uuid[6] & 0x0F) | 0x40
	// Set variant to RFC4122
	uuid[8] = (uuid[8] & 0x3F) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:])
}

// NormalizeEmail lowercases and trims an email so set membership and ticket
// identity never depend on caller casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
