package foodspot

import "time"

// Status is the lifecycle state of a listing. ACTIVE is the only non-terminal state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusExpired  Status = "EXPIRED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusFinished, StatusExpired:
		return true
	}
	return false
}

func (s Status) Closed() bool {
	return s != StatusActive
}

type Listing struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	ImageURL          string    `json:"imageUrl"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	VerificationCount int       `json:"verificationCount"`
}

// Image is an uploaded picture attached to a creation request.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

type CreateRequest struct {
	Title           string
	Description     string
	Latitude        float64
	Longitude       float64
	DeviceLatitude  float64
	DeviceLongitude float64
	Image           *Image
}

type VoteResult struct {
	ID                string `json:"id"`
	VerificationCount int    `json:"verificationCount"`
	Status            Status `json:"status"`
}

type EventType string

const (
	EventCreated  EventType = "created"
	EventVoted    EventType = "voted"
	EventFinished EventType = "finished"
	EventExpired  EventType = "expired"
)

// Event is published on every listing state change for the live feed.
type Event struct {
	Type    EventType `json:"type"`
	Listing Listing   `json:"listing"`
}

// ValidCoordinates reports whether lat/lon lie in the ranges the distance
// calculation is defined for. NaN is rejected.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
