// Package bookingapi is the client side of the /api/booking relay contract.
package bookingapi

import "errors"

const (
	ActionGetBookings = "getBookings"
	ActionBook        = "book"
)

// Status is the outcome reported by the scheduling backend for a booking.
type Status string

const (
	StatusOK    Status = "ok"
	StatusTaken Status = "taken"
)

var (
	// ErrNetwork wraps transport-level failures reaching the relay.
	ErrNetwork = errors.New("bookingapi: network error")

	// ErrBadResponse wraps bodies that are not the expected JSON.
	ErrBadResponse = errors.New("bookingapi: unexpected response")

	// ErrUpstream wraps error payloads returned by the relay.
	ErrUpstream = errors.New("bookingapi: upstream error")
)

// BookingRequest is the POST body accepted by the relay.
type BookingRequest struct {
	Action    string `json:"action"`
	Name      string `json:"name"`
	WhatsApp  string `json:"whatsapp"`
	Date      string `json:"date"`
	DateLabel string `json:"dateLabel"`
	SlotID    string `json:"slotId"`
	SlotTime  string `json:"slotTime"`
	// Answers is a JSON-serialized map of question id to "Yes" or "No".
	Answers string `json:"answers"`
}

// BookingsResponse is returned by GET ?action=getBookings.
type BookingsResponse struct {
	Booked []string `json:"booked"`
	Error  string   `json:"error,omitempty"`
}

// BookResponse is returned by POST.
type BookResponse struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}
