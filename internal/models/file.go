package models

// FileDescriptor is what the service retains about a blob held by the file store.
type FileDescriptor struct {
	ID       string `gorm:"size:255" json:"id"`
	URL      string `gorm:"size:512" json:"url"`
	Name     string `gorm:"size:255" json:"name"`
	Size     int64  `json:"size"`
	MimeType string `gorm:"size:128" json:"mime_type"`
}

// IsZero reports whether the descriptor references no stored file.
func (f FileDescriptor) IsZero() bool {
	return f.ID == "" && f.URL == ""
}
