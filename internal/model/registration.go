package model

import "technofest/internal/store"

// StatusRegistered is the only status a registration is created with.
const StatusRegistered = "registered"

// Registration records a user's sign-up for an event. Registrations are
// append-only.
type Registration struct {
	ID           string `json:"id"`
	EventID      string `json:"eventId"`
	UserID       string `json:"userId"`
	RegisteredAt int64  `json:"registeredAt"`
	Status       string `json:"status"`
}

// RegistrationFromValue normalizes a stored registration record.
func RegistrationFromValue(key string, v store.Value) Registration {
	return Registration{
		ID:           key,
		EventID:      v.String("eventId"),
		UserID:       v.String("userId"),
		RegisteredAt: Millis(v["registeredAt"]),
		Status:       orDefault(v.String("status"), StatusRegistered),
	}
}
