package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/fnb-console/oauthmodel"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the {"detail": ...} error body of the REST backend.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, oauthmodel.ErrorResponse{Detail: detail})
}
