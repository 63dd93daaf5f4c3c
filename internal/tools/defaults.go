package tools

import (
	"go.uber.org/zap"

	"sidekick/internal/audit"
	"sidekick/internal/kvstore"
)

// DefaultRegistry wires the reference tool bundle: calendar, document
// lookup, and the curated offline search.
func DefaultRegistry(store *kvstore.Store, docsRoot string, auditLog *audit.Log, logger *zap.Logger) *Registry {
	r := NewRegistry(auditLog, logger)
	r.MustRegister(NewCalendarTool(store))
	r.MustRegister(NewDocumentLookupTool(docsRoot))
	r.MustRegister(NewCuratedWebSearchTool())
	return r
}
