package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType is the broad kind of an artifact.
type FileType string

const (
	// FileTypeVideo is a container holding a video stream.
	FileTypeVideo FileType = "video"
	// FileTypeAudio is an audio-only container.
	FileTypeAudio FileType = "audio"
	// FileTypeImage is a still image such as a thumbnail.
	FileTypeImage FileType = "image"
	// FileTypeOther is anything unrecognised.
	FileTypeOther FileType = "other"
)

// DefaultMimeType is returned for unknown extensions.
const DefaultMimeType = "application/octet-stream"

// VideoExtensions lists video containers ffmpeg is commonly asked to write.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".webm": true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".ts":   true,
	".mpg":  true,
	".mpeg": true,
}

// AudioExtensions lists audio-only containers.
var AudioExtensions = map[string]bool{
	".m4a":  true,
	".mp3":  true,
	".aac":  true,
	".ogg":  true,
	".opus": true,
	".flac": true,
	".wav":  true,
}

// ImageExtensions lists still image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Video
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".ts":   "video/mp2t",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",

	// Audio
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".wav":  "audio/wav",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
}

// GetFileType returns the FileType for a lowercase extension including the
// leading dot.
func GetFileType(ext string) FileType {
	switch {
	case VideoExtensions[ext]:
		return FileTypeVideo
	case AudioExtensions[ext]:
		return FileTypeAudio
	case ImageExtensions[ext]:
		return FileTypeImage
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a lowercase extension including the
// leading dot.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return DefaultMimeType
}

// ContentType returns the MIME type for a file path or object key.
func ContentType(path string) string {
	return GetMimeType(strings.ToLower(filepath.Ext(path)))
}
