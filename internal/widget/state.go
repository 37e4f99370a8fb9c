package widget

import (
	"cloud.google.com/go/civil"

	"github.com/wolfman30/consult-booking/internal/bookingapi"
	"github.com/wolfman30/consult-booking/internal/slots"
)

// Page names the screen a state renders.
type Page string

const (
	PageForm      Page = "form"
	PageBooking   Page = "booking"
	PageConfirmed Page = "confirmed"
)

// State is one of *FormState, *BookingState or *ConfirmedState. States returned
// by Flow.State are owned by the flow and must be treated as read-only.
type State interface {
	Page() Page
	isState()
}

// FormState collects the screening answers and contact details.
type FormState struct {
	Contact Contact
}

func (*FormState) Page() Page { return PageForm }
func (*FormState) isState()   {}

// NoDay marks an empty day selection.
const NoDay = -1

// Selection is the chosen day index and slot id on the booking page.
type Selection struct {
	Day  int
	Slot slots.ID
}

func (s Selection) HasDay() bool  { return s.Day != NoDay }
func (s Selection) HasSlot() bool { return s.Slot != "" }

// BookingState is the day/slot picker.
type BookingState struct {
	Contact    Contact
	Days       []slots.Day
	Booked     *slots.BookedSet
	Loading    bool
	Submitting bool
	Selection  Selection
	Notice     *Notice

	pending *attempt
}

func (*BookingState) Page() Page { return PageBooking }
func (*BookingState) isState()   {}

type attempt struct {
	key slots.Key
	req bookingapi.BookingRequest
}

// ConfirmedState is the terminal summary of a committed booking.
type ConfirmedState struct {
	Result Confirmation
}

func (*ConfirmedState) Page() Page { return PageConfirmed }
func (*ConfirmedState) isState()   {}

// Confirmation is what the user submitted, exactly as sent.
type Confirmation struct {
	Name      string
	WhatsApp  string
	Date      civil.Date
	DateLabel string
	SlotID    slots.ID
	SlotTime  string
	Answers   map[string]string
	Status    bookingapi.Status
}

// DayView renders one day card.
type DayView struct {
	Index       int
	Date        civil.Date
	Label       string
	FullyBooked bool
	Selected    bool
	Placeholder bool
}

// SlotView renders one slot card for the selected day.
type SlotView struct {
	slots.Slot
	Booked      bool
	Selected    bool
	Selectable  bool
	Placeholder bool
}
