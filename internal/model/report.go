package model

// EventStatus is how an event relates to today.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
)

// Activity kinds.
const (
	ActivityEvent        = "event"
	ActivityRegistration = "registration"
)

// Stats are the dashboard totals.
type Stats struct {
	TotalEvents        int `json:"totalEvents"`
	TotalUsers         int `json:"totalUsers"`
	TotalRegistrations int `json:"totalRegistrations"`
	UpcomingEvents     int `json:"upcomingEvents"`
}

// Activity is one line of the recent activity feed.
type Activity struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Time    int64  `json:"time"`
	Icon    string `json:"icon"`
	TimeAgo string `json:"timeAgo"`
}

// PopularEvent is an event with its 1-based rank by participants.
type PopularEvent struct {
	Rank         int    `json:"rank"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	Participants int    `json:"participants"`
}

// Report is everything the admin dashboard shows.
type Report struct {
	Stats          Stats          `json:"stats"`
	RecentActivity []Activity     `json:"recentActivity"`
	PopularEvents  []PopularEvent `json:"popularEvents"`
	GeneratedAt    int64          `json:"generatedAt"`
}

// EventRow is an events table entry.
type EventRow struct {
	Event
	Status EventStatus `json:"status"`
}

// Backup is a full export of the main collections.
type Backup struct {
	Events        map[string]map[string]any `json:"events"`
	Users         map[string]map[string]any `json:"users"`
	Registrations map[string]map[string]any `json:"registrations"`
	BackedUpAt    string                    `json:"backedUpAt"`
}
