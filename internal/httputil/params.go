package httputil

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WantsJSON reports whether the client expects a JSON response rather than
// a redirect or page
func WantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// IsJSONBody reports whether the request body is JSON
func IsJSONBody(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// OptionalFormValue returns a pointer to a submitted form field, or nil when
// the field is absent so callers can tell "unchanged" from "cleared"
func OptionalFormValue(c *gin.Context, key string) *string {
	value, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &value
}

// Bind decodes a JSON, urlencoded or multipart body into obj using the
// json or form struct tags
func Bind(c *gin.Context, obj any) error {
	if IsJSONBody(c.Request) {
		return c.ShouldBindJSON(obj)
	}
	return c.ShouldBind(obj)
}
