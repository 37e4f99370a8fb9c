// Package widget implements the consultation booking flow: screening form,
// day/slot picker reconciled against upstream bookings, and confirmation.
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/consult-booking/internal/bookingapi"
	"github.com/wolfman30/consult-booking/internal/slots"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

// BookingService is the relay contract the flow depends on.
type BookingService interface {
	Bookings(ctx context.Context) ([]string, error)
	Book(ctx context.Context, req bookingapi.BookingRequest) (bookingapi.Status, error)
}

// Hooks are UI side effects triggered by transitions.
type Hooks struct {
	OnScrollReset func()
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the wall clock used to build the day window.
func WithClock(c slots.Clock) Option {
	return func(f *Flow) { f.clock = c }
}

// WithHooks installs UI side-effect hooks.
func WithHooks(h Hooks) Option {
	return func(f *Flow) { f.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// Ticket ties an asynchronous result to the page visit that requested it.
// Results carrying a ticket from an earlier visit are ignored.
type Ticket struct {
	epoch uint64
}

// Flow drives one widget session. It is not safe for concurrent use; drive it
// from a single goroutine and hand network results back via the Apply methods.
type Flow struct {
	state   State
	epoch   uint64
	service BookingService
	clock   slots.Clock
	hooks   Hooks
	logger  *logging.Logger
}

// New starts a flow on the form page.
func New(service BookingService, opts ...Option) *Flow {
	f := &Flow{
		state:   &FormState{},
		service: service,
		clock:   slots.SystemClock,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.Component("widget")
	return f
}

// State returns the current page state.
func (f *Flow) State() State { return f.state }

// Page returns the current page.
func (f *Flow) Page() Page { return f.state.Page() }

func (f *Flow) enter(s State) {
	f.epoch++
	f.state = s
}

func (f *Flow) form() (*FormState, error) {
	s, ok := f.state.(*FormState)
	if !ok {
		return nil, fmt.Errorf("%w: on %s", ErrWrongPage, f.state.Page())
	}
	return s, nil
}

func (f *Flow) booking() (*BookingState, error) {
	s, ok := f.state.(*BookingState)
	if !ok {
		return nil, fmt.Errorf("%w: on %s", ErrWrongPage, f.state.Page())
	}
	return s, nil
}

// SetAnswer records a yes/no screening answer.
func (f *Flow) SetAnswer(questionID string, yes bool) error {
	s, err := f.form()
	if err != nil {
		return err
	}
	if !knownQuestion(questionID) {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	if s.Contact.Answers == nil {
		s.Contact.Answers = make(map[string]bool, len(questions))
	}
	s.Contact.Answers[questionID] = yes
	return nil
}

// SetName sets the contact name.
func (f *Flow) SetName(name string) error {
	s, err := f.form()
	if err != nil {
		return err
	}
	s.Contact.Name = name
	return nil
}

// SetWhatsApp sets the contact number.
func (f *Flow) SetWhatsApp(number string) error {
	s, err := f.form()
	if err != nil {
		return err
	}
	s.Contact.WhatsApp = number
	return nil
}

// CanContinue reports whether the form may advance to the booking page.
func (f *Flow) CanContinue() bool {
	s, err := f.form()
	return err == nil && s.Contact.Complete()
}

// Continue moves to the booking page and marks the bookings fetch pending.
// Pass the returned ticket to ApplyBookings or LoadBookings.
func (f *Flow) Continue() (Ticket, error) {
	s, err := f.form()
	if err != nil {
		return Ticket{}, err
	}
	if !s.Contact.Complete() {
		return Ticket{}, ErrContactRequired
	}
	f.enter(&BookingState{
		Contact:   s.Contact.clone(),
		Days:      slots.Window(f.clock.Now()),
		Booked:    slots.NewBookedSet(),
		Loading:   true,
		Selection: Selection{Day: NoDay},
	})
	if f.hooks.OnScrollReset != nil {
		f.hooks.OnScrollReset()
	}
	return Ticket{epoch: f.epoch}, nil
}

// LoadBookings fetches the booked records and applies them. Fetch failures
// leave an empty booked set; the returned error only reports a stale ticket.
func (f *Flow) LoadBookings(ctx context.Context, t Ticket) error {
	if !f.current(t) {
		return fmt.Errorf("%w: stale bookings ticket", ErrWrongPage)
	}
	records, err := f.service.Bookings(ctx)
	f.ApplyBookings(t, records, err)
	return nil
}

// ApplyBookings completes the bookings fetch started by Continue.
func (f *Flow) ApplyBookings(t Ticket, records []string, fetchErr error) {
	s, ok := f.state.(*BookingState)
	if !ok || t.epoch != f.epoch || !s.Loading {
		f.logger.Debug("ignoring stale bookings result")
		return
	}
	s.Loading = false
	if fetchErr != nil {
		f.logger.Warn("failed to load bookings", "error", fetchErr)
		s.Booked = slots.NewBookedSet()
		return
	}
	set, skipped := slots.ParseBookedSet(records)
	for _, err := range skipped {
		f.logger.Debug("skipping booked record", "error", err)
	}
	s.Booked = set
}

func (f *Flow) current(t Ticket) bool {
	_, ok := f.state.(*BookingState)
	return ok && t.epoch == f.epoch
}

// Loading reports whether the bookings fetch is pending.
func (f *Flow) Loading() bool {
	s, err := f.booking()
	return err == nil && s.Loading
}

// Submitting reports whether a booking request is in flight.
func (f *Flow) Submitting() bool {
	s, err := f.booking()
	return err == nil && s.Submitting
}

// Notice returns the inline warning, if any.
func (f *Flow) Notice() *Notice {
	s, err := f.booking()
	if err != nil || s.Notice == nil {
		return nil
	}
	n := *s.Notice
	return &n
}

// DismissError clears the inline warning.
func (f *Flow) DismissError() {
	if s, err := f.booking(); err == nil {
		s.Notice = nil
	}
}

// Days renders the day cards. While loading every card is a placeholder.
func (f *Flow) Days() []DayView {
	s, err := f.booking()
	if err != nil {
		return nil
	}
	out := make([]DayView, len(s.Days))
	for i, d := range s.Days {
		out[i] = DayView{
			Index:       d.Index,
			Date:        d.Date,
			Label:       d.Label(),
			FullyBooked: !s.Loading && s.Booked.DayFullyBooked(d.Date),
			Selected:    s.Selection.Day == i,
			Placeholder: s.Loading,
		}
	}
	return out
}

// Slots renders the slot cards for the selected day.
func (f *Flow) Slots() []SlotView {
	s, err := f.booking()
	if err != nil {
		return nil
	}
	catalog := slots.Catalog()
	out := make([]SlotView, len(catalog))
	for i, slot := range catalog {
		v := SlotView{Slot: slot, Placeholder: s.Loading}
		if s.Selection.HasDay() && !s.Loading {
			v.Booked = s.Booked.IsBooked(s.Days[s.Selection.Day], slot.ID)
			v.Selected = s.Selection.Slot == slot.ID
			v.Selectable = !v.Booked && !s.Submitting
		}
		out[i] = v
	}
	return out
}

// IsBooked reports whether slot id on the given window day is taken.
func (f *Flow) IsBooked(day int, id slots.ID) bool {
	s, err := f.booking()
	if err != nil || day < 0 || day >= len(s.Days) {
		return false
	}
	return s.Booked.IsBooked(s.Days[day], id)
}

// SelectDay picks a day that still has an open slot. It always clears the
// slot selection and the inline warning.
func (f *Flow) SelectDay(i int) error {
	s, err := f.booking()
	if err != nil {
		return err
	}
	switch {
	case s.Loading:
		return ErrLoading
	case s.Submitting:
		return ErrSubmitting
	case i < 0 || i >= len(s.Days):
		return fmt.Errorf("%w: index %d", ErrDayUnavailable, i)
	case s.Booked.DayFullyBooked(s.Days[i].Date):
		return fmt.Errorf("%w: %s is fully booked", ErrDayUnavailable, s.Days[i].Date)
	}
	s.Selection = Selection{Day: i}
	s.Notice = nil
	return nil
}

// SelectSlot picks an open slot on the selected day.
func (f *Flow) SelectSlot(id slots.ID) error {
	s, err := f.booking()
	if err != nil {
		return err
	}
	switch {
	case s.Loading:
		return ErrLoading
	case s.Submitting:
		return ErrSubmitting
	case !s.Selection.HasDay():
		return ErrNoDaySelected
	}
	if _, ok := slots.LookupSlot(id); !ok {
		return fmt.Errorf("%w: unknown slot %q", ErrSlotUnavailable, id)
	}
	if s.Booked.IsBooked(s.Days[s.Selection.Day], id) {
		return fmt.Errorf("%w: %s already booked", ErrSlotUnavailable, id)
	}
	s.Selection.Slot = id
	return nil
}

// CanSubmit reports whether a day and slot are chosen and nothing is in flight.
func (f *Flow) CanSubmit() bool {
	s, err := f.booking()
	return err == nil && !s.Loading && !s.Submitting && s.Selection.HasDay() && s.Selection.HasSlot()
}

// BeginSubmit builds the booking request and marks it in flight. Send the
// request and hand the outcome to ApplySubmitResult with the returned ticket.
func (f *Flow) BeginSubmit() (Ticket, bookingapi.BookingRequest, error) {
	s, err := f.booking()
	if err != nil {
		return Ticket{}, bookingapi.BookingRequest{}, err
	}
	if !f.CanSubmit() {
		return Ticket{}, bookingapi.BookingRequest{}, ErrCannotSubmit
	}
	day := s.Days[s.Selection.Day]
	slot, _ := slots.LookupSlot(s.Selection.Slot)
	req := bookingapi.BookingRequest{
		Action:    bookingapi.ActionBook,
		Name:      strings.TrimSpace(s.Contact.Name),
		WhatsApp:  strings.TrimSpace(s.Contact.WhatsApp),
		Date:      day.Date.String(),
		DateLabel: day.Heading(),
		SlotID:    string(slot.ID),
		SlotTime:  slot.TimeRange,
		Answers:   s.Contact.serializedAnswers(),
	}
	s.Submitting = true
	s.Notice = nil
	s.pending = &attempt{key: slots.KeyFor(day, slot.ID), req: req}
	return Ticket{epoch: f.epoch}, req, nil
}

// ApplySubmitResult applies the outcome of the request from BeginSubmit.
func (f *Flow) ApplySubmitResult(t Ticket, status bookingapi.Status, sendErr error) {
	s, ok := f.state.(*BookingState)
	if !ok || t.epoch != f.epoch || s.pending == nil {
		f.logger.Debug("ignoring stale booking result", "status", status)
		return
	}
	p := s.pending
	s.pending = nil
	s.Submitting = false

	switch {
	case sendErr != nil:
		f.logger.Warn("booking submission failed", "slot", p.key.String(), "error", sendErr)
		if errors.Is(sendErr, bookingapi.ErrNetwork) {
			s.Notice = networkNotice()
		} else {
			s.Notice = genericNotice()
		}
	case status == bookingapi.StatusOK:
		f.logger.Info("booking confirmed", "slot", p.key.String())
		f.enter(&ConfirmedState{Result: Confirmation{
			Name:      p.req.Name,
			WhatsApp:  p.req.WhatsApp,
			Date:      p.key.Date,
			DateLabel: p.req.DateLabel,
			SlotID:    p.key.Slot,
			SlotTime:  p.req.SlotTime,
			Answers:   s.Contact.answerLabels(),
			Status:    status,
		}})
	case status == bookingapi.StatusTaken:
		f.logger.Info("slot taken by another booking", "slot", p.key.String())
		s.Booked.MarkUnavailable(p.key)
		s.Selection.Slot = ""
		s.Notice = conflictNotice()
	default:
		f.logger.Warn("booking rejected", "slot", p.key.String(), "status", status)
		s.Notice = genericNotice()
	}
}

// Submit sends the booking and applies the outcome. The returned error only
// reports why no request was sent; outcomes are reflected in the state.
func (f *Flow) Submit(ctx context.Context) error {
	t, req, err := f.BeginSubmit()
	if err != nil {
		return err
	}
	status, sendErr := f.service.Book(ctx, req)
	f.ApplySubmitResult(t, status, sendErr)
	return nil
}

// Confirmation returns the committed booking once confirmed.
func (f *Flow) Confirmation() (Confirmation, bool) {
	s, ok := f.state.(*ConfirmedState)
	if !ok {
		return Confirmation{}, false
	}
	return s.Result, true
}

// Back returns from the booking page to the form, keeping the contact details.
// A fetch or submission still in flight is ignored when it resolves.
func (f *Flow) Back() error {
	s, err := f.booking()
	if err != nil {
		return err
	}
	f.enter(&FormState{Contact: s.Contact.clone()})
	return nil
}

// Restart discards the draft and returns to an empty form.
func (f *Flow) Restart() {
	f.enter(&FormState{})
}
