// Package calendar renders bookings as iCalendar documents.
package calendar

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

const productID = "-//slotbook//booking-service//EN"

// Invite is what goes into a booking's VEVENT.
type Invite struct {
	Booking     model.Booking
	Title       string
	Description string
	// Domain qualifies the UID, e.g. "slotbook.example.com".
	Domain string
}

// Encode returns the ICS bytes for a single booking. Cancelled bookings are
// emitted with METHOD:CANCEL so calendar clients drop the event.
func Encode(inv Invite, now time.Time) ([]byte, error) {
	b := inv.Booking
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if b.Status == model.StatusCancelled {
		cal.Props.SetText(ical.PropMethod, "CANCEL")
	} else {
		cal.Props.SetText(ical.PropMethod, "PUBLISH")
	}
	cal.Children = append(cal.Children, vevent(inv, now))

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode ics: %w", err)
	}
	return buf.Bytes(), nil
}

func vevent(inv Invite, now time.Time) *ical.Component {
	b := inv.Booking
	domain := strings.TrimSpace(inv.Domain)
	if domain == "" {
		domain = "slotbook"
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, b.ID+"@"+domain)
	ve.Props.SetText(ical.PropSummary, summary(inv))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, b.Slot.Start())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, b.Slot.End())
	ve.Props.SetText(ical.PropStatus, status(b.Status))
	// SEQUENCE must grow on every change for clients to accept updates.
	ve.Props.SetText(ical.PropSequence, fmt.Sprintf("%d", b.UpdatedAt.Unix()-b.CreatedAt.Unix()))

	if desc := description(inv); desc != "" {
		ve.Props.SetText(ical.PropDescription, desc)
	}

	attendee := ical.NewProp(ical.PropAttendee)
	attendee.Value = "mailto:" + b.Guest.Email
	attendee.Params.Set(ical.ParamCommonName, b.Guest.Name)
	ve.Props.Add(attendee)
	return ve
}

func summary(inv Invite) string {
	title := strings.TrimSpace(inv.Title)
	if title == "" {
		title = "Meeting"
	}
	return title + " with " + inv.Booking.Guest.Name
}

func description(inv Invite) string {
	var lines []string
	if d := strings.TrimSpace(inv.Description); d != "" {
		lines = append(lines, d)
	}
	for _, r := range inv.Booking.Responses {
		lines = append(lines, r.Question+": "+r.Answer)
	}
	if inv.Booking.CancelReason != "" {
		lines = append(lines, "Cancelled: "+inv.Booking.CancelReason)
	}
	return strings.Join(lines, "\n")
}

func status(s model.Status) string {
	switch s {
	case model.StatusCancelled:
		return "CANCELLED"
	default:
		return "CONFIRMED"
	}
}
