package model

import "time"

// Draft is the current generated answer for a request. At most one draft is
// active per request: regeneration overwrites GeneratedText and clears
// EditedText instead of versioning.
type Draft struct {
	ID            int64      `json:"id"`
	RequestID     int64      `json:"request_id"`
	GeneratedText string     `json:"generated_text"`
	EditedText    *string    `json:"edited_text,omitempty"`
	ReviewerID    *int64     `json:"reviewer_id,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// EffectiveText is the text a reviewer decision acts on: the reviewer's edit
// when present, the generated text otherwise.
func (d *Draft) EffectiveText() string {
	if d.EditedText != nil {
		return *d.EditedText
	}
	return d.GeneratedText
}

// IsEdited reports whether a reviewer has replaced the generated text.
func (d *Draft) IsEdited() bool {
	return d.EditedText != nil
}

// IsDecided reports whether the draft has been finalized by an approve or
// reject.
func (d *Draft) IsDecided() bool {
	return d.DecidedAt != nil
}
