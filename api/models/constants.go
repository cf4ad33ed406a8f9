package models

const (
	MinLevel = 1
	MaxLevel = 4

	MinStars     = 1
	MaxStars     = 5
	DefaultStars = 5

	DefaultAnnouncementSubject = "Announcement"
	OTPEmailSubject            = "Your Admin OTP"

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)
