package models

import "time"

// Notification is a classroom invitation in a recipient's mailbox. It has
// consume-once semantics: accepting or declining deletes the row, no
// accepted/declined state is ever persisted.
type Notification struct {
	ID             string    `db:"id" json:"id"`
	RecipientEmail string    `db:"recipient_email" json:"recipient_email"`
	Message        string    `db:"message" json:"message"`
	ClassroomCode  string    `db:"classroom_code" json:"classroom_code"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
