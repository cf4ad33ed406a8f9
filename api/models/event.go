package models

import "github.com/alex-pricope/family-portal/storage"

type CreateEventRequest struct {
	Title         string     `json:"title"`
	Date          string     `json:"date"`
	Level         FlexNumber `json:"level"`
	Description   string     `json:"description"`
	DriveFolderID string     `json:"driveFolderId"`
	BookingURL    string     `json:"bookingUrl"`
}

type CreateEventResponse struct {
	ID string `json:"id"`
}

type EventResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Level         int    `json:"level"`
	Description   string `json:"description"`
	DriveFolderID string `json:"driveFolderId"`
	BookingURL    string `json:"bookingUrl"`
}

func TransformEventFromStorage(e *storage.Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		Title:         e.Title,
		Date:          e.Date,
		Level:         e.Level,
		Description:   e.Description,
		DriveFolderID: e.DriveFolderID,
		BookingURL:    e.BookingURL,
	}
}
