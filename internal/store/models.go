package store

import "time"

type User struct {
	ID                string    `json:"id"` // UUID
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"` // Do not expose this in JSON responses
	Name              string    `json:"name"`
	Phone             string    `json:"phone,omitempty"`
	Location          string    `json:"location,omitempty"`
	PreferredLanguage string    `json:"preferredLanguage"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type ChatMessage struct {
	ID          string    `json:"id"` // UUID
	UserID      string    `json:"userId"`
	Message     string    `json:"message"`
	Response    string    `json:"response"`
	MessageType string    `json:"messageType"` // "text" or "voice"
	Language    string    `json:"language"`
	Timestamp   time.Time `json:"timestamp"`
}

type DiseaseDetection struct {
	ID         string  `json:"id"` // UUID
	UserID     string  `json:"userId"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"` // 0-1 fraction
	Severity   string  `json:"severity"`   // Low, Medium, High
	Treatment  string  `json:"treatment"`
	Description string `json:"description"`
	Prevention string  `json:"prevention"`
	PlantType  string  `json:"plantType,omitempty"`
	Source     string  `json:"source"` // which fallback tier produced the result
	// ImageData holds only a truncated prefix of the uploaded payload.
	ImageData      string    `json:"imageData,omitempty"`
	Location       string    `json:"location,omitempty"`
	PredictiveJSON string    `json:"-"` // serialized weather risk assessment
	Timestamp      time.Time `json:"timestamp"`
}
