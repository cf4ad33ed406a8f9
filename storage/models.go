package storage

import "time"

type Passcode struct {
	Passcode string `json:"passcode"`
	Level    int    `json:"level"`
}

type Event struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Level         int    `json:"level"`
	Description   string `json:"description"`
	DriveFolderID string `json:"driveFolderId"`
	BookingURL    string `json:"bookingUrl"`
}

// Session is an audit row written on every successful login. It is never read back.
type Session struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CodeLevel *int      `json:"code_level"`
	CreatedAt time.Time `json:"created_at"`
	IP        string    `json:"ip"`
	UA        string    `json:"ua"`
}

type Rating struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Stars     int       `json:"stars"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	SessionTypeAdmin    = "admin"
	SessionTypePasscode = "passcode"
)
