package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewOpsRouter serves the operational endpoints on their own listener.
func NewOpsRouter(metrics http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", metrics).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return r
}
