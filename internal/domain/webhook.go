package domain

import "time"

// RawRecord is one stored webhook dump as read from the record store.
// Payload is opaque: a base64+gzip string, a plain JSON string, or an
// already-decoded map.
type RawRecord struct {
	Payload    any
	ReceivedAt time.Time
}

// Document is a decoded webhook payload.
type Document = map[string]any
