package persistence

import (
	"database/sql"
	"time"
)

type (

	// Callback table - one row per provider call
	Callback struct {
		ID                  string
		Email               string
		Phone               string
		Status              string
		StructuredData      map[string]string
		AISummary           sql.NullString
		AISummaryTranslated sql.NullString
		AISummaryAt         sql.NullTime
		Created             time.Time
		Updated             sql.NullTime
		Version             int
	}
)
