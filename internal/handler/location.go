package handler

import (
	"net/http"
)

// DefaultLocation is reported until the client shares a position.
var DefaultLocation = map[string]string{
	"city":  "Pune",
	"state": "MH",
}

// GET /api/location
func Location(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DefaultLocation)
}
