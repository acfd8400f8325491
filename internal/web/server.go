// Package web serves the paper catalog over HTTP.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperdock/paperdock/internal/embedding"
	"github.com/paperdock/paperdock/internal/semantic"
	"github.com/paperdock/paperdock/internal/store"
)

// Server holds the dependencies of the HTTP API. The index and provider
// may be nil, in which case the similarity routes report the backend as
// unavailable instead of failing at startup.
type Server struct {
	db       *store.DB
	index    *semantic.Index
	provider embedding.Provider
}

// NewServer wires the API around an open store and an optional
// similarity index.
func NewServer(db *store.DB, index *semantic.Index, provider embedding.Provider) *Server {
	return &Server{db: db, index: index, provider: provider}
}

// Router builds the HTTP handler for the API.
func (s *Server) Router() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept-Language, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
		}
		c.Next()
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	})

	router.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})

	router.POST("/api/login", s.Login)
	router.GET("/api/papers", s.ListPapers)
	router.POST("/api/papers/save", s.SavePaper)
	router.POST("/api/papers/unsave", s.UnsavePaper)
	router.GET("/api/papers/saved", s.SavedPapers)
	router.GET("/api/papers/:id/similar", s.SimilarPapers)
	router.GET("/api/search", s.Search)

	return router
}
