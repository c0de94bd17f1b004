package report

import (
	"time"
)

// Column headers of the report tables, in display order.
var (
	UserColumns     = []string{"ID", "First Name", "Last Name", "Email", "Location", "Role", "Date Created", "Date Modified"}
	DeviceColumns   = []string{"ID", "Device Name", "Owner", "Pairing Code", "Paired At", "Registered At", "Status"}
	ReviewColumns   = []string{"ID", "Rating", "Message", "Email", "Date Created"}
	FeedbackColumns = []string{"ID", "Type", "Message", "Email", "Date Created", "Status"}
)

// UserRows converts users into display rows matching UserColumns.
func UserRows(users []User) [][]string {
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{
			u.UID.Or(NotAvailable),
			u.FirstName.Or(NotAvailable),
			u.LastName.Or(NotAvailable),
			u.Email.Or(NotAvailable),
			u.Location.Or(NotAvailable),
			u.Role.Or(NotAvailable),
			u.CreatedAt.Or(NotAvailable),
			u.DateModified.Or(NotAvailable),
		}
	}
	return rows
}

// DeviceRows converts devices into display rows matching DeviceColumns.
// Pairing and registration times are shown as calendar days.
func DeviceRows(devices []Device) [][]string {
	rows := make([][]string, len(devices))
	for i, d := range devices {
		rows[i] = []string{
			d.ID.Or(NotAvailable),
			d.DeviceName.Or(NotAvailable),
			d.Owner.Or(NotAvailable),
			d.PairingCode.Or(NotAvailable),
			day(d.PairedAt).Or(NotAvailable),
			day(d.RegisteredAt).Or(NotAvailable),
			d.Status.Or(NotAvailable),
		}
	}
	return rows
}

// ReviewRows converts reviews into display rows matching ReviewColumns.
func ReviewRows(reviews []Review) [][]string {
	rows := make([][]string, len(reviews))
	for i, r := range reviews {
		rows[i] = []string{
			r.ID.Or(NotAvailable),
			r.Rating.Or(NotAvailable),
			r.Message.Or(NotAvailable),
			r.Email.Or(NotAvailable),
			r.CreatedAt.Or(NotAvailable),
		}
	}
	return rows
}

// FeedbackRows converts feedback into display rows matching FeedbackColumns.
func FeedbackRows(feedback []Feedback) [][]string {
	rows := make([][]string, len(feedback))
	for i, f := range feedback {
		rows[i] = []string{
			f.ID.Or(NotAvailable),
			f.Type.Or(NotAvailable),
			f.Message.Or(NotAvailable),
			f.Email.Or(NotAvailable),
			f.DateCreated.Or(NotAvailable),
			f.Status.Or(NotAvailable),
		}
	}
	return rows
}

// day truncates a value that starts with a calendar date to that date.
// Anything else is returned unchanged.
func day(f Field) Field {
	s := string(f)
	if len(s) < len(ReportDateLayout) {
		return f
	}
	prefix := s[:len(ReportDateLayout)]
	if _, err := time.Parse(ReportDateLayout, prefix); err != nil {
		return f
	}
	return Field(prefix)
}
