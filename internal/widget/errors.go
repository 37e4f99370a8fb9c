package widget

import "errors"

var (
	// ErrWrongPage is returned when an action does not apply to the current page.
	ErrWrongPage = errors.New("widget: action not available on this page")

	// ErrUnknownQuestion is returned for answers to questions not in the form.
	ErrUnknownQuestion = errors.New("widget: unknown question")

	// ErrContactRequired blocks leaving the form until name and WhatsApp are set.
	ErrContactRequired = errors.New("widget: name and whatsapp number are required")

	// ErrLoading is returned while the booked slots are still being fetched.
	ErrLoading = errors.New("widget: bookings still loading")

	// ErrDayUnavailable is returned for out-of-range or fully booked days.
	ErrDayUnavailable = errors.New("widget: day not available")

	// ErrNoDaySelected is returned when picking a slot before a day.
	ErrNoDaySelected = errors.New("widget: select a day first")

	// ErrSlotUnavailable is returned for unknown or already booked slots.
	ErrSlotUnavailable = errors.New("widget: slot not available")

	// ErrSubmitting is returned when the selection changes while a booking is in flight.
	ErrSubmitting = errors.New("widget: booking submission in flight")

	// ErrCannotSubmit is returned when the selection is incomplete or a submission is in flight.
	ErrCannotSubmit = errors.New("widget: booking cannot be submitted yet")
)

// NoticeKind classifies the inline warning shown on the booking page.
type NoticeKind int

const (
	NoticeConflict NoticeKind = iota + 1
	NoticeNetwork
	NoticeGeneric
)

const (
	msgConflict = "Sorry, that slot was just booked by someone else. Please choose another time."
	msgNetwork  = "Network error. Please check your connection and try again."
	msgGeneric  = "Something went wrong while booking. Please try again."
)

// Notice is a dismissable inline warning.
type Notice struct {
	Kind    NoticeKind
	Message string
}

func conflictNotice() *Notice { return &Notice{Kind: NoticeConflict, Message: msgConflict} }
func networkNotice() *Notice  { return &Notice{Kind: NoticeNetwork, Message: msgNetwork} }
func genericNotice() *Notice  { return &Notice{Kind: NoticeGeneric, Message: msgGeneric} }
