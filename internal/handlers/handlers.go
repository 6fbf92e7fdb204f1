package handlers

import (
	"streamhive/internal/auth"
	"streamhive/internal/database"
	"streamhive/internal/ingest"
)

// Handlers bundles the dependencies shared by all HTTP handlers.
type Handlers struct {
	db        *database.Database
	ingest    *ingest.Service
	auth      *auth.Manager
	uploadDir string
}

// New creates the handler set. uploadDir is where raw uploads are
// staged before ingestion.
func New(db *database.Database, svc *ingest.Service, authMgr *auth.Manager, uploadDir string) *Handlers {
	return &Handlers{
		db:        db,
		ingest:    svc,
		auth:      authMgr,
		uploadDir: uploadDir,
	}
}
