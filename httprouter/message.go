package httprouter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"

	"go.vocdoni.io/ballot/log"
)

// DefaultContentType is the content type of the responses unless set otherwise
const DefaultContentType = "application/json"

// HTTPContext is the Context for an HTTP request.
type HTTPContext struct {
	Writer  http.ResponseWriter
	Request *http.Request

	contentType string
}

// NewHTTPContext wraps a request and its response writer.
func NewHTTPContext(w http.ResponseWriter, req *http.Request) *HTTPContext {
	return &HTTPContext{Writer: w, Request: req}
}

// SetResponseContentType sets the content type for the response (the default content type is used if not defined).
func (h *HTTPContext) SetResponseContentType(contentType string) {
	h.contentType = contentType
}

// URLParam is a wrapper around go-chi to get a URL parameter (specified in the path pattern as {key})
func (h *HTTPContext) URLParam(key string) string {
	return chi.URLParam(h.Request, key)
}

// SendJSON marshals v and replies the request with it.
func (h *HTTPContext) SendJSON(v interface{}, httpStatusCode int) error {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Warnf("cannot marshal response: %v", err)
		return h.Send([]byte(`{"error":"Unknown","message":"marshal failed"}`), http.StatusInternalServerError)
	}
	return h.Send(msg, httpStatusCode)
}

// Send replies the request with the provided message.
func (h *HTTPContext) Send(msg []byte, httpStatusCode int) error {
	if httpStatusCode < 100 || httpStatusCode >= 600 {
		return fmt.Errorf("http status code %d not supported", httpStatusCode)
	}
	if h.Request.Context().Err() != nil {
		// The connection was closed, so don't try to write to it.
		return fmt.Errorf("connection is closed")
	}
	if h.contentType == "" {
		h.Writer.Header().Set("Content-Type", DefaultContentType)
	} else {
		h.Writer.Header().Set("Content-Type", h.contentType)
	}

	if httpStatusCode == http.StatusNoContent {
		h.Writer.WriteHeader(httpStatusCode)
		log.Debugw("http response", "status", httpStatusCode)
		return nil
	}

	// Content length will be message length plus newline character
	h.Writer.Header().Set("Content-Length", fmt.Sprintf("%d", len(msg)+1))
	h.Writer.WriteHeader(httpStatusCode)

	log.Debugw("http response", "status", httpStatusCode, "data", func() string {
		if len(msg) > 256 {
			return string(msg[:256]) + "..."
		}
		return string(msg)
	}())
	if _, err := h.Writer.Write(msg); err != nil {
		return err
	}
	// Ensure we end the response with a newline, to be nice.
	_, err := h.Writer.Write([]byte("\n"))
	return err
}
