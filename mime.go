package gemini

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps lowercase file extensions to MIME types. The response meta
// carries the type verbatim, so the table is static rather than consulting
// the host OS registry.
var mimeTypes = map[string]string{
	".gmi":    "text/gemini",
	".gemini": "text/gemini",
	".txt":    "text/plain",
	".md":     "text/markdown",
	".html":   "text/html",
	".htm":    "text/html",
	".css":    "text/css",
	".xml":    "application/xml",
	".json":   "application/json",
	".pdf":    "application/pdf",
	".zip":    "application/zip",
	".gz":     "application/gzip",
	".tar":    "application/x-tar",
	".png":    "image/png",
	".jpg":    "image/jpeg",
	".jpeg":   "image/jpeg",
	".gif":    "image/gif",
	".webp":   "image/webp",
	".svg":    "image/svg+xml",
	".ico":    "image/x-icon",
	".mp3":    "audio/mpeg",
	".ogg":    "audio/ogg",
	".flac":   "audio/flac",
	".mp4":    "video/mp4",
	".webm":   "video/webm",
}

// DetectMimeType maps a file path to a MIME type by extension, falling back
// to application/octet-stream.
func DetectMimeType(path string) string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return "application/octet-stream"
}
