// internal/api/router.go
package api

import "net/http"

// NewMux wires every endpoint onto a ServeMux. Method-scoped patterns
// keep dispatch in the router instead of the handlers.
func NewMux(snapshots *SnapshotHandler, intents *IntentHandler, configs *ConfigHandler, syncs *SyncHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("POST /api/snapshots", snapshots.Create)
	mux.HandleFunc("GET /api/snapshots", snapshots.List)
	mux.HandleFunc("GET /api/snapshots/{id}", snapshots.Get)
	mux.HandleFunc("POST /api/snapshots/{id}/publish", snapshots.Publish)
	mux.HandleFunc("POST /api/snapshots/{id}/rollback", snapshots.Rollback)
	mux.HandleFunc("POST /api/snapshots/compare", snapshots.Compare)

	mux.HandleFunc("POST /api/intents", intents.Create)
	mux.HandleFunc("GET /api/intents", intents.List)
	mux.HandleFunc("POST /api/intents/{id}/versions", intents.CreateVersion)
	mux.HandleFunc("POST /api/versions/{id}/activate", intents.ActivateVersion)
	mux.HandleFunc("POST /api/versions/{id}/offline", intents.OfflineVersion)
	mux.HandleFunc("DELETE /api/versions/{id}", intents.DeleteVersion)
	mux.HandleFunc("POST /api/versions/{id}/copy", intents.CopyVersion)

	mux.HandleFunc("GET /api/config", configs.Get)

	mux.HandleFunc("POST /api/sync", syncs.Sync)
	mux.HandleFunc("POST /api/sync/all", syncs.SyncAll)

	return mux
}
