package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin adapts a net/http middleware to gin. When the middleware answers the
// request itself (redirect, error) the gin chain is aborted.
func Gin(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		if !called {
			c.Abort()
		}
	}
}
