package dto

import "github.com/classdesk/classdesk-api/internal/models"

// NotificationList bundles a mailbox page with its unread badge count.
type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}
