package model

// Notification types, named after the collection that produced them.
const (
	NotificationInfo         = "info"
	NotificationEvent        = "event"
	NotificationUser         = "user"
	NotificationRegistration = "registration"
)

// Notification is one entry of the admin notification panel.
type Notification struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Time    string `json:"time"`
	Read    bool   `json:"read"`
}
