package handlers

import "net/http"

// MetricsSource is the registry surface the metrics endpoint consumes.
type MetricsSource interface {
	ContentType() string
	Render() (string, error)
}

// Metrics serves the registry's serialized metrics. Serialization failures
// surface the raw error text; the endpoint is a trusted scrape target, not
// user-facing.
func Metrics(source MetricsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := source.Render()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", source.ContentType())
		_, _ = w.Write([]byte(text))
	}
}
