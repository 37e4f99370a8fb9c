package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/consult-booking/internal/bookingapi"
	"github.com/wolfman30/consult-booking/internal/slots"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

// stubService records calls and replays canned results.
type stubService struct {
	booked      []string
	bookingsErr error
	status      bookingapi.Status
	bookErr     error

	bookingsCalls int
	requests      []bookingapi.BookingRequest
}

func (s *stubService) Bookings(context.Context) ([]string, error) {
	s.bookingsCalls++
	return s.booked, s.bookingsErr
}

func (s *stubService) Book(_ context.Context, req bookingapi.BookingRequest) (bookingapi.Status, error) {
	s.requests = append(s.requests, req)
	return s.status, s.bookErr
}

var june10 = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func newTestFlow(t *testing.T, svc *stubService, opts ...Option) *Flow {
	t.Helper()
	opts = append([]Option{WithClock(slots.FixedClock(june10)), WithLogger(logging.New("error"))}, opts...)
	return New(svc, opts...)
}

// toBooking fills the form and loads bookings from svc.
func toBooking(t *testing.T, f *Flow) {
	t.Helper()
	require.NoError(t, f.SetName("  Asha Rao "))
	require.NoError(t, f.SetWhatsApp(" +91 98000 00000"))
	ticket, err := f.Continue()
	require.NoError(t, err)
	require.NoError(t, f.LoadBookings(context.Background(), ticket))
}

func TestFormRequiresContactFields(t *testing.T) {
	f := newTestFlow(t, &stubService{})

	assert.False(t, f.CanContinue())
	_, err := f.Continue()
	assert.ErrorIs(t, err, ErrContactRequired)

	require.NoError(t, f.SetName("Asha"))
	require.NoError(t, f.SetWhatsApp("   "))
	assert.False(t, f.CanContinue(), "whitespace-only number is empty")
	_, err = f.Continue()
	assert.ErrorIs(t, err, ErrContactRequired)
	assert.Equal(t, PageForm, f.Page())

	require.NoError(t, f.SetWhatsApp("+919800000000"))
	assert.True(t, f.CanContinue())
}

func TestAnswersAreOptionalAndValidated(t *testing.T) {
	f := newTestFlow(t, &stubService{})

	assert.ErrorIs(t, f.SetAnswer("favourite_colour", true), ErrUnknownQuestion)
	for _, q := range Questions() {
		require.NoError(t, f.SetAnswer(q.ID, true))
	}
	require.NoError(t, f.SetAnswer("has_injuries", false))

	form, ok := f.State().(*FormState)
	require.True(t, ok)
	assert.Equal(t, map[string]bool{"trained_before": true, "has_injuries": false, "ready_to_commit": true}, form.Contact.Answers)
}

func TestContinueEntersBookingAndResetsScroll(t *testing.T) {
	scrolled := 0
	f := newTestFlow(t, &stubService{}, WithHooks(Hooks{OnScrollReset: func() { scrolled++ }}))
	require.NoError(t, f.SetName("Asha"))
	require.NoError(t, f.SetWhatsApp("+919800000000"))

	_, err := f.Continue()
	require.NoError(t, err)

	assert.Equal(t, PageBooking, f.Page())
	assert.Equal(t, 1, scrolled)
	assert.True(t, f.Loading())
	for _, d := range f.Days() {
		assert.True(t, d.Placeholder)
		assert.False(t, d.FullyBooked)
	}
	for _, s := range f.Slots() {
		assert.True(t, s.Placeholder)
		assert.False(t, s.Selectable)
	}
	assert.ErrorIs(t, f.SelectDay(0), ErrLoading)
	assert.ErrorIs(t, f.SetName("x"), ErrWrongPage)
}

func TestBookingWindowFromClock(t *testing.T) {
	f := newTestFlow(t, &stubService{})
	toBooking(t, f)

	days := f.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2025-06-10", days[0].Date.String())
	assert.Equal(t, "2025-06-11", days[1].Date.String())
	assert.Equal(t, "2025-06-12", days[2].Date.String())
	assert.Equal(t, "Tue, 10 Jun", days[0].Label)
}

func TestScenarioTwoSlotsBookedOnFirstDay(t *testing.T) {
	svc := &stubService{booked: []string{"2025-06-10_morning", "2025-06-10_evening1"}}
	f := newTestFlow(t, svc)
	toBooking(t, f)

	assert.False(t, f.Loading())
	assert.False(t, f.Days()[0].FullyBooked)
	require.NoError(t, f.SelectDay(0))

	assert.ErrorIs(t, f.SelectSlot(slots.Morning), ErrSlotUnavailable)
	assert.ErrorIs(t, f.SelectSlot(slots.Evening1), ErrSlotUnavailable)
	require.NoError(t, f.SelectSlot(slots.Evening2))

	views := f.Slots()
	assert.True(t, views[0].Booked)
	assert.True(t, views[1].Booked)
	assert.False(t, views[2].Booked)
	assert.True(t, views[2].Selected)
	assert.True(t, views[2].Selectable)
}

func TestFullyBookedDayIsNotSelectable(t *testing.T) {
	svc := &stubService{booked: []string{
		"2025-06-11_morning",
		"Wed Jun 11 2025 00:00:00 GMT+0530 (India Standard Time)_evening1",
		"2025-06-11_evening2",
	}}
	f := newTestFlow(t, svc)
	toBooking(t, f)

	assert.True(t, f.Days()[1].FullyBooked)
	assert.ErrorIs(t, f.SelectDay(1), ErrDayUnavailable)
	assert.ErrorIs(t, f.SelectDay(3), ErrDayUnavailable)
	assert.ErrorIs(t, f.SelectDay(-1), ErrDayUnavailable)
	require.NoError(t, f.SelectDay(2))
}

func TestSelectSlotRequiresDay(t *testing.T) {
	f := newTestFlow(t, &stubService{})
	toBooking(t, f)

	assert.ErrorIs(t, f.SelectSlot(slots.Morning), ErrNoDaySelected)
	require.NoError(t, f.SelectDay(0))
	assert.ErrorIs(t, f.SelectSlot("brunch"), ErrSlotUnavailable)
}

func TestSelectingDayClearsSlotAndError(t *testing.T) {
	svc := &stubService{status: bookingapi.Status("error")}
	f := newTestFlow(t, svc)
	toBooking(t, f)

	require.NoError(t, f.SelectDay(0))
	require.NoError(t, f.SelectSlot(slots.Morning))
	require.NoError(t, f.Submit(context.Background()))
	require.NotNil(t, f.Notice())

	require.NoError(t, f.SelectSlot(slots.Evening1))
	require.NoError(t, f.SelectDay(1))

	s := f.State().(*BookingState)
	assert.Equal(t, Selection{Day: 1}, s.Selection)
	assert.Nil(t, f.Notice())
	assert.False(t, f.CanSubmit())

	// Re-selecting the same day also clears the slot.
	require.NoError(t, f.SelectSlot(slots.Morning))
	require.NoError(t, f.SelectDay(1))
	assert.False(t, f.State().(*BookingState).Selection.HasSlot())
}

func TestSubmitOKConfirmsWithSubmittedDetails(t *testing.T) {
	svc := &stubService{status: bookingapi.StatusOK}
	f := newTestFlow(t, svc)
	require.NoError(t, f.SetAnswer("trained_before", true))
	require.NoError(t, f.SetAnswer("has_injuries", false))
	toBooking(t, f)

	require.NoError(t, f.SelectDay(1))
	require.NoError(t, f.SelectSlot(slots.Evening1))
	assert.True(t, f.CanSubmit())
	require.NoError(t, f.Submit(context.Background()))

	require.Len(t, svc.requests, 1)
	req := svc.requests[0]
	assert.Equal(t, bookingapi.ActionBook, req.Action)
	assert.Equal(t, "Asha Rao", req.Name)
	assert.Equal(t, "+91 98000 00000", req.WhatsApp)
	assert.Equal(t, "2025-06-11", req.Date)
	assert.Equal(t, "Wednesday, 11 June 2025", req.DateLabel)
	assert.Equal(t, "evening1", req.SlotID)
	assert.Equal(t, "6:00 PM - 7:00 PM", req.SlotTime)

	var answers map[string]string
	require.NoError(t, json.Unmarshal([]byte(req.Answers), &answers))
	assert.Equal(t, map[string]string{"trained_before": "Yes", "has_injuries": "No"}, answers)

	assert.Equal(t, PageConfirmed, f.Page())
	conf, ok := f.Confirmation()
	require.True(t, ok)
	assert.Equal(t, req.Name, conf.Name)
	assert.Equal(t, req.DateLabel, conf.DateLabel)
	assert.Equal(t, req.SlotTime, conf.SlotTime)
	assert.Equal(t, req.WhatsApp, conf.WhatsApp)
	assert.Equal(t, slots.Evening1, conf.SlotID)
	assert.Equal(t, bookingapi.StatusOK, conf.Status)
}

func TestSubmitTakenPatchesBookedSetWithoutRefetch(t *testing.T) {
	svc := &stubService{status: bookingapi.StatusTaken}
	f := newTestFlow(t, svc)
	toBooking(t, f)
	require.Equal(t, 1, svc.bookingsCalls)

	require.NoError(t, f.SelectDay(1))
	require.NoError(t, f.SelectSlot(slots.Evening1))
	require.False(t, f.IsBooked(1, slots.Evening1))
	require.NoError(t, f.Submit(context.Background()))

	assert.Equal(t, PageBooking, f.Page())
	notice := f.Notice()
	require.NotNil(t, notice)
	assert.Equal(t, NoticeConflict, notice.Kind)
	assert.NotEmpty(t, notice.Message)

	s := f.State().(*BookingState)
	assert.Equal(t, 1, s.Selection.Day)
	assert.False(t, s.Selection.HasSlot())
	assert.True(t, f.IsBooked(1, slots.Evening1))
	assert.ErrorIs(t, f.SelectSlot(slots.Evening1), ErrSlotUnavailable)
	assert.Equal(t, 1, svc.bookingsCalls, "no re-fetch after a conflict")

	f.DismissError()
	assert.Nil(t, f.Notice())
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  bookingapi.Status
		err     error
		want    NoticeKind
		message string
	}{
		{"unknown status", bookingapi.Status("error"), nil, NoticeGeneric, msgGeneric},
		{"empty status", "", nil, NoticeGeneric, msgGeneric},
		{"bad response", "", fmt.Errorf("book: %w", bookingapi.ErrBadResponse), NoticeGeneric, msgGeneric},
		{"network", "", fmt.Errorf("book: %w: dial tcp: refused", bookingapi.ErrNetwork), NoticeNetwork, msgNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{status: tt.status, bookErr: tt.err}
			f := newTestFlow(t, svc)
			toBooking(t, f)
			require.NoError(t, f.SelectDay(0))
			require.NoError(t, f.SelectSlot(slots.Morning))
			require.NoError(t, f.Submit(context.Background()))

			assert.Equal(t, PageBooking, f.Page())
			require.NotNil(t, f.Notice())
			assert.Equal(t, tt.want, f.Notice().Kind)
			assert.Equal(t, tt.message, f.Notice().Message)

			s := f.State().(*BookingState)
			assert.Equal(t, Selection{Day: 0, Slot: slots.Morning}, s.Selection)
			assert.False(t, f.IsBooked(0, slots.Morning))
			assert.True(t, f.CanSubmit(), "user may retry")
		})
	}
}

func TestBookingsFetchFailureLeavesEmptySet(t *testing.T) {
	svc := &stubService{bookingsErr: errors.New("relay down")}
	f := newTestFlow(t, svc)
	toBooking(t, f)

	assert.False(t, f.Loading())
	s := f.State().(*BookingState)
	assert.Zero(t, s.Booked.Len())
	require.NoError(t, f.SelectDay(0))
	require.NoError(t, f.SelectSlot(slots.Morning))
}

func TestSubmitDisabledWhileInFlight(t *testing.T) {
	f := newTestFlow(t, &stubService{})
	toBooking(t, f)
	require.NoError(t, f.SelectDay(0))
	require.NoError(t, f.SelectSlot(slots.Evening2))

	ticket, _, err := f.BeginSubmit()
	require.NoError(t, err)
	assert.True(t, f.Submitting())
	assert.False(t, f.CanSubmit())
	_, _, err = f.BeginSubmit()
	assert.ErrorIs(t, err, ErrCannotSubmit)
	assert.ErrorIs(t, f.SelectDay(1), ErrSubmitting)
	assert.ErrorIs(t, f.SelectSlot(slots.Morning), ErrSubmitting)

	f.ApplySubmitResult(ticket, bookingapi.StatusOK, nil)
	assert.Equal(t, PageConfirmed, f.Page())
}

func TestStaleResultsAreIgnored(t *testing.T) {
	f := newTestFlow(t, &stubService{})
	require.NoError(t, f.SetName("Asha"))
	require.NoError(t, f.SetWhatsApp("+919800000000"))

	first, err := f.Continue()
	require.NoError(t, err)
	require.NoError(t, f.Back())
	second, err := f.Continue()
	require.NoError(t, err)

	f.ApplyBookings(first, []string{"2025-06-10_morning"}, nil)
	assert.True(t, f.Loading(), "result of the earlier visit must not apply")
	assert.Error(t, f.LoadBookings(context.Background(), first))

	f.ApplyBookings(second, []string{"2025-06-10_morning"}, nil)
	assert.False(t, f.Loading())
	assert.True(t, f.IsBooked(0, slots.Morning))

	require.NoError(t, f.SelectDay(0))
	require.NoError(t, f.SelectSlot(slots.Evening1))
	ticket, _, err := f.BeginSubmit()
	require.NoError(t, err)
	require.NoError(t, f.Back())
	f.ApplySubmitResult(ticket, bookingapi.StatusOK, nil)
	assert.Equal(t, PageForm, f.Page(), "navigating away drops the submission result")
}

func TestBackKeepsContact(t *testing.T) {
	f := newTestFlow(t, &stubService{})
	require.NoError(t, f.SetAnswer("ready_to_commit", true))
	toBooking(t, f)
	require.NoError(t, f.Back())

	form := f.State().(*FormState)
	assert.Equal(t, "  Asha Rao ", form.Contact.Name)
	assert.True(t, form.Contact.Answers["ready_to_commit"])
	assert.ErrorIs(t, f.Back(), ErrWrongPage)
}

func TestRestartClearsDraft(t *testing.T) {
	svc := &stubService{status: bookingapi.StatusOK}
	f := newTestFlow(t, svc)
	toBooking(t, f)
	require.NoError(t, f.SelectDay(0))
	require.NoError(t, f.SelectSlot(slots.Morning))
	require.NoError(t, f.Submit(context.Background()))
	require.Equal(t, PageConfirmed, f.Page())

	f.Restart()
	assert.Equal(t, PageForm, f.Page())
	form := f.State().(*FormState)
	assert.Equal(t, Contact{}, form.Contact)
	assert.False(t, f.CanContinue())
	_, ok := f.Confirmation()
	assert.False(t, ok)
}

func TestViewsOutsideBookingPage(t *testing.T) {
	f := newTestFlow(t, &stubService{})
	assert.Nil(t, f.Days())
	assert.Nil(t, f.Slots())
	assert.Nil(t, f.Notice())
	assert.False(t, f.Loading())
	assert.False(t, f.IsBooked(0, slots.Morning))
	assert.ErrorIs(t, f.SelectDay(0), ErrWrongPage)
	_, _, err := f.BeginSubmit()
	assert.ErrorIs(t, err, ErrWrongPage)
}
