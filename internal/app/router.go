package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/makolaconnect/makola"
	"github.com/makolaconnect/makola/guard"
	"github.com/makolaconnect/makola/media"
	"github.com/makolaconnect/makola/metrics/export/prometheus"
	"github.com/makolaconnect/makola/middleware"
	"github.com/makolaconnect/makola/session"
)

const maxUploadBytes = 10 << 20

// NewRouter mounts the views, the session API and the operational
// endpoints.
func NewRouter(engine *makola.Engine, rdb redis.UniversalClient, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), RequestMeta())

	r.GET("/health", healthHandler(rdb))
	r.GET("/metrics", gin.WrapH(prometheus.New(engine).Handler()))

	sessions := r.Group("/", middleware.Gin(engine.SessionMiddleware()))
	guarded := func(p guard.Policy) gin.HandlerFunc {
		return middleware.Gin(engine.Guard(p))
	}

	public := sessions.Group("/", guarded(guard.Public()))
	for path, view := range map[string]string{
		"/":        "home",
		"/login":   "login",
		"/signup":  "signup",
		"/sellers": "sellers",
		"/kayayos": "kayayos",
	} {
		public.GET(path, renderView(view))
	}

	buyer := sessions.Group("/", guarded(guard.Protect(session.Buyer)))
	buyer.GET("/cart", renderView("cart"))
	buyer.GET("/checkout", renderView("checkout"))
	buyer.GET("/orders", renderView("orders"))

	seller := sessions.Group("/seller", guarded(guard.Protect(session.Seller)))
	seller.GET("/dashboard", renderView("seller_dashboard"))
	seller.GET("/products", renderView("seller_products"))

	kayayo := sessions.Group("/kayayo", guarded(guard.Protect(session.Kayayo)))
	kayayo.GET("/dashboard", renderView("kayayo_dashboard"))
	kayayo.GET("/orders", renderView("kayayo_orders"))

	rider := sessions.Group("/rider", guarded(guard.Protect(session.Rider)))
	rider.GET("/dashboard", renderView("rider_dashboard"))
	rider.GET("/deliveries", renderView("rider_deliveries"))

	sessions.GET("/profile", guarded(guard.Protect()), renderView("profile"))

	h := &sessionHandler{engine: engine}
	api := sessions.Group("/api")
	api.GET("/session", h.state)
	api.POST("/session/login", h.login)
	api.POST("/session/logout", h.logout)

	sellerAPI := api.Group("/media", guarded(guard.Protect(session.Seller)))
	sellerAPI.POST("", h.upload)
	sellerAPI.DELETE("", h.deleteMedia)

	return r
}

// RequestLogger logs one line per request at a level chosen by status.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := middleware.ClientIDFromContext(c.Request.Context()); ok {
			fields = append(fields, zap.String("client_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// RequestMeta copies the caller's IP and User-Agent into the request
// context for audit events.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := makola.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = makola.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func healthHandler(rdb redis.UniversalClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

type viewModel struct {
	View string        `json:"view"`
	User *session.User `json:"user"`
}

// renderView answers with the view model of the snapshot the guard
// authorized.
func renderView(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, _ := middleware.StateFromContext(c.Request.Context())
		c.JSON(http.StatusOK, viewModel{View: name, User: st.User})
	}
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user"`
	Token         string        `json:"token,omitempty"`
}

func newSessionResponse(st session.State) sessionResponse {
	return sessionResponse{Authenticated: st.IsAuthenticated(), User: st.User, Token: st.Token}
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type sessionHandler struct {
	engine *makola.Engine
}

func (h *sessionHandler) state(c *gin.Context) {
	store := session.MustFromContext(c.Request.Context())
	c.JSON(http.StatusOK, newSessionResponse(store.Snapshot()))
}

func (h *sessionHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier and password are required"})
		return
	}
	clientID, _ := middleware.ClientIDFromContext(c.Request.Context())

	st, err := h.engine.Login(c.Request.Context(), clientID, req.Identifier, req.Password)
	switch {
	case errors.Is(err, makola.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case errors.Is(err, makola.ErrLoginThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many failed attempts"})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login unavailable"})
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(st))
}

func (h *sessionHandler) logout(c *gin.Context) {
	clientID, _ := middleware.ClientIDFromContext(c.Request.Context())
	if err := h.engine.Logout(c.Request.Context(), clientID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "logout unavailable"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *sessionHandler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}

	files := form.File["images"]
	images := make([]media.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file " + fh.Filename})
			return
		}
		defer f.Close()
		images = append(images, media.Image{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	urls, err := h.engine.Upload(c.Request.Context(), c.PostForm("group"), images...)
	switch {
	case errors.Is(err, media.ErrInvalidUpload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "group and at least one image are required"})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"urls": urls})
}

func (h *sessionHandler) deleteMedia(c *gin.Context) {
	if err := h.engine.DeleteMedia(c.Request.Context(), c.Query("url")); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
