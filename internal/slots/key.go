package slots

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

var (
	// ErrMalformedRecord is returned for records without a date/slot separator.
	ErrMalformedRecord = errors.New("slots: record has no date/slot separator")

	// ErrUnparsableDate is returned when a record's date part is not a date.
	ErrUnparsableDate = errors.New("slots: unparsable record date")
)

// Key identifies a bookable (date, slot) unit. Keys compare with ==.
type Key struct {
	Date civil.Date
	Slot ID
}

// KeyFor builds the key of slot id on day.
func KeyFor(day Day, id ID) Key {
	return Key{Date: day.Date, Slot: id}
}

// String renders the wire form "YYYY-MM-DD_<slot>".
func (k Key) String() string {
	return k.Date.String() + "_" + string(k.Slot)
}

// recordLayouts covers the shapes the spreadsheet backend has been seen to emit
// besides ISO dates: JavaScript Date.prototype.toString and RFC timestamps.
var recordLayouts = []string{
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
}

// ParseRecord normalizes a raw booked record into a Key. The record is split
// at its last underscore; the date part is reduced to its calendar date in the
// record's own offset.
func ParseRecord(raw string) (Key, error) {
	i := strings.LastIndex(raw, "_")
	if i < 0 {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedRecord, raw)
	}
	datePart, slotPart := raw[:i], raw[i+1:]
	date, err := parseRecordDate(datePart)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrUnparsableDate, datePart)
	}
	return Key{Date: date, Slot: ID(slotPart)}, nil
}

func parseRecordDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, errors.New("empty date")
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	s = stripZoneName(s)
	for _, layout := range recordLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

// stripZoneName drops a trailing " (India Standard Time)" style suffix.
func stripZoneName(s string) string {
	if !strings.HasSuffix(s, ")") {
		return s
	}
	if i := strings.LastIndex(s, " ("); i > 0 {
		return s[:i]
	}
	return s
}
