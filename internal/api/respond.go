package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	errNoSnapshot    = errors.New("no financial snapshot for company")
	errBadActionKind = errors.New("action kind must be contacted, snoozed or note")
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
