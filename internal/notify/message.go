package notify

import "fmt"

// OverdueReminder renders the SMS sent for a book that is days overdue.
func OverdueReminder(title string, days int64) string {
	return fmt.Sprintf(`Reminder: Your book "%s" was due %d days ago. Please return it to the library as soon as possible.`, title, days)
}
