package dto

// CreateClassroomRequest defines the payload for creating a classroom.
// Invite emails are optional; each one receives an invitation notification.
type CreateClassroomRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  *string  `json:"description,omitempty"`
	InviteEmails []string `json:"invite_emails,omitempty" validate:"omitempty,dive,email"`
}

// JoinClassroomRequest joins a classroom by its generated code.
type JoinClassroomRequest struct {
	Code string `json:"code" validate:"required"`
}

// InviteRequest sends invitation notifications for an existing classroom.
type InviteRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
}
