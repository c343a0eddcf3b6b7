package models

import (
	"time"

	"github.com/lib/pq"
)

// Classroom is a teacher-owned class joined by students via its code.
// The code is generated once at creation and never changes; it doubles as
// the join key students store in their joined set.
type Classroom struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Description   *string        `db:"description" json:"description,omitempty"`
	Code          string         `db:"code" json:"code"`
	CreatedBy     string         `db:"created_by" json:"created_by"`
	CreatorName   string         `db:"creator_name" json:"creator_name"`
	InvitedEmails pq.StringArray `db:"invited_emails" json:"invited_emails,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
