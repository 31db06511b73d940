package content

// RecordSummary is a record without its content body.
// Used for listings (status, install output) to reduce data transfer.
type RecordSummary struct {
	ID        int64  `json:"id"`
	Kind      Kind   `json:"kind"`
	Status    string `json:"status"`
	Slug      string `json:"slug"`
	Title     string `json:"title,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// ToSummary strips the content body.
func (r *Record) ToSummary() RecordSummary {
	return RecordSummary{
		ID:        r.ID,
		Kind:      r.Kind,
		Status:    r.Status,
		Slug:      r.Slug,
		Title:     r.Title,
		MimeType:  r.MimeType,
		UpdatedAt: r.UpdatedAt,
	}
}
