package sqlutil

import (
	"github.com/sqlc-dev/pqtype"
)

// ToNullRawMessage wraps a JSON document for a nullable jsonb column.
// An empty document is stored as SQL NULL.
func ToNullRawMessage(doc []byte) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: doc, Valid: len(doc) > 0}
}

// FromNullRawMessage returns the JSON document, or nil for SQL NULL
func FromNullRawMessage(m pqtype.NullRawMessage) []byte {
	if !m.Valid {
		return nil
	}
	return []byte(m.RawMessage)
}
