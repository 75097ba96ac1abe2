package storage

// Config holds upload storage configuration
type Config struct {
	Dir          string   // Local directory for uploads (e.g., "./uploads")
	MaxFileSize  int64    // Bytes; 0 means the default of 5 MiB
	AllowedTypes []string // Sniffed MIME types accepted; empty means images only
}

const defaultMaxFileSize = 5 << 20

var defaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
