package pkg

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON     string
	Text     string
	HTML     string
	Markdown string
}{
	JSON:     "application/json",
	Text:     "text/plain; charset=utf-8",
	HTML:     "text/html; charset=utf-8",
	Markdown: "text/markdown; charset=utf-8",
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

// IsJSONRequest reports whether the request body is declared as JSON.
// Charset and other parameters are ignored.
func IsJSONRequest(r *http.Request) bool {
	mediaType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	return strings.TrimSpace(mediaType) == ContentType.JSON
}
