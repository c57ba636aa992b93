package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DevotionalStatus represents the lifecycle status of a devotional record.
// Values include DevotionalStatusDraft and DevotionalStatusPublished.
type DevotionalStatus string

const (
	DevotionalStatusDraft     DevotionalStatus = "draft"
	DevotionalStatusPublished DevotionalStatus = "published"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Devotional represents a fully assembled devotional content record:
// generated text fields, synthesized narration audio, and an optional
// cover image migrated to durable storage.
type Devotional struct {
	ID              string           `gorm:"type:text;primaryKey" json:"id"`
	Title           string           `gorm:"type:text;not null" json:"title"`
	Subtitle        string           `gorm:"type:text" json:"subtitle,omitempty"`
	Description     string           `gorm:"type:text" json:"description,omitempty"`
	Theme           string           `gorm:"type:text" json:"theme"`
	ScripturalBasis string           `gorm:"type:text" json:"scriptural_basis"`
	CategoryID      string           `gorm:"type:text;index:idx_devotionals_category" json:"category_id"`
	Preparation     string           `gorm:"type:text" json:"preparation,omitempty"`
	MainText        string           `gorm:"type:text;not null" json:"main_text"`
	FinalMessage    string           `gorm:"type:text" json:"final_message,omitempty"`
	Transcript      string           `gorm:"type:text" json:"transcript"`
	AudioURL        string           `gorm:"type:text;not null" json:"audio_url"`
	DurationSeconds float64          `json:"duration_seconds"`
	VoiceID         string           `gorm:"type:text" json:"voice_id"`
	ImageURL        *string          `gorm:"type:text" json:"image_url"`
	ModelUsed       string           `gorm:"type:text" json:"model_used,omitempty"`
	Status          DevotionalStatus `gorm:"type:text;index:idx_devotionals_status;default:published" json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName returns the database table name for Devotional.
func (Devotional) TableName() string {
	return "devotionals"
}
