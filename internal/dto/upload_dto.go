package dto

// UploadResponse describes the stored asset metadata returned to the client.
type UploadResponse struct {
	ID        uint   `json:"id"`
	FileID    string `json:"file_id"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
	Checksum  string `json:"checksum"`
	FileName  string `json:"file_name"`
}
