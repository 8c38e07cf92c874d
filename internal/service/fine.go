package service

import "time"

// DailyFineRate is the fine charged per started day past the due date.
const DailyFineRate int64 = 1

const day = 24 * time.Hour

// DaysOverdue counts started days between due and asOf. Partial days count
// as a full day; asOf at or before due is zero.
func DaysOverdue(due, asOf time.Time) int64 {
	late := asOf.Sub(due)
	if late <= 0 {
		return 0
	}
	days := int64(late / day)
	if late%day != 0 {
		days++
	}
	return days
}

// CalculateFine is the amount owed for a book returned at returnedAt.
func CalculateFine(due, returnedAt time.Time) int64 {
	return DaysOverdue(due, returnedAt) * DailyFineRate
}
