package types

import "time"

// Form maps an external form identifier to a Discord webhook plus the
// per-form presentation and mention settings. The mention and title columns
// hold the provider's raw encodings; the components packages parse them and
// substitute documented defaults when they do not parse.
type Form struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	FormID     string `gorm:"size:128;uniqueIndex;not null" json:"form_id"`
	FormName   string `gorm:"size:255" json:"form_name"`
	WebhookURL string `gorm:"size:512;not null" json:"webhook_url"`

	Title       string `gorm:"size:255" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Color       string `gorm:"size:16" json:"color"` // #RRGGBB
	Footer      string `gorm:"size:255" json:"footer"`

	Mentions            string `gorm:"type:text" json:"mentions"`             // comma-separated role ids
	DiscordIDFields     string `gorm:"type:text" json:"discord_id_fields"`    // JSON array of answer indices
	ConditionalMentions string `gorm:"type:text" json:"conditional_mentions"` // JSON array of rules
	QuestionTitles      string `gorm:"type:text" json:"question_titles"`      // JSON, flat array or {index,title} pairs

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RelayLog records one relay attempt. Writes are fire-and-forget.
type RelayLog struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	FormID    string    `gorm:"size:128;index" json:"form_id"`
	Status    string    `gorm:"size:32" json:"status"` // ok|error
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Setting struct {
	ID    uint16 `gorm:"primaryKey"`
	Name  string `gorm:"size:64;uniqueIndex;not null"`
	Value string `gorm:"size:255;not null"`
}
