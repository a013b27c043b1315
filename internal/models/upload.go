package models

import "time"

// FileInfo describes a local recording file.
type FileInfo struct {
	Filename      string `json:"filename"`
	Filetype      string `json:"filetype"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
}

// UploadProgress is reported after each acknowledged chunk.
type UploadProgress struct {
	BytesUploaded int64 `json:"bytes_uploaded"`
	BytesTotal    int64 `json:"bytes_total"`
	Percentage    int   `json:"percentage"`
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	URL        string   `json:"url"`
	ObjectPath string   `json:"object_path"`
	FileInfo   FileInfo `json:"file_info"`
}

// UploadSession is the resume record of an interrupted multipart transfer, keyed by fingerprint.
type UploadSession struct {
	UploadID    string    `json:"upload_id"`
	Bucket      string    `json:"bucket"`
	ObjectPath  string    `json:"object_path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ChunkSize   int64     `json:"chunk_size"`
	CreatedAt   time.Time `json:"created_at"`
}
