package server

import (
	"encoding/json"
	"net/http"

	"github.com/HerbHall/startpage/pkg/models"
)

const problemBase = "https://startpage.dev/problems/"

// problemSlugs names the problem types the server itself emits. Plugin
// handlers use their own <plugin>-error types.
var problemSlugs = map[int]string{
	http.StatusBadRequest:          "bad-request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusNotFound:            "not-found",
	http.StatusTooManyRequests:     "rate-limited",
	http.StatusInternalServerError: "internal-error",
}

// ProblemType returns the problem type URI for status, or "about:blank" for
// statuses without a dedicated type.
func ProblemType(status int) string {
	if slug, ok := problemSlugs[status]; ok {
		return problemBase + slug
	}
	return "about:blank"
}

// WriteProblem writes an application/problem+json response for r. The title
// is the status text and the instance is the request path.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:     ProblemType(status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}
