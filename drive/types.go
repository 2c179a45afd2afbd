package drive

import "time"

// File is the listing view of a remote file.
type File struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MimeType      string    `json:"mimeType"`
	CreatedTime   time.Time `json:"createdTime"`
	ThumbnailLink string    `json:"thumbnailLink,omitempty"`
	WebViewLink   string    `json:"webViewLink,omitempty"`
}

// Meta is the subset of file metadata fetched before a download.
type Meta struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type listResponse struct {
	Files []File `json:"files"`
}
