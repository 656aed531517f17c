package reader

import "time"

// NoticeKind classifies a transient user-facing notification.
type NoticeKind string

const (
	// NoticePersistence signals a failed position or annotation write.
	// The session stays usable and the write is not retried.
	NoticePersistence NoticeKind = "persistence"

	// NoticeValidation signals input rejected before any store call.
	NoticeValidation NoticeKind = "validation"

	// NoticeDuplicate signals a bookmark that already exists for the page.
	NoticeDuplicate NoticeKind = "duplicate"
)

// Notice is a transient notification surfaced to the reader and then
// forgotten. Nothing represented by a notice escalates past the session.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}
