package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const userCookie = "user_id"

// Login creates the user on first sight and hands back its id in a
// cookie. There is no password, the catalog is a single-trust-domain
// tool.
func (s *Server) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	userID, err := s.db.EnsureUser(c.Request.Context(), body.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.SetCookie(userCookie, strconv.FormatInt(userID, 10), 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user_id": userID,
	})
}

// currentUser extracts the user id from the login cookie. A missing or
// mangled cookie yields ok=false and a 401 already written to c.
func (s *Server) currentUser(c *gin.Context) (int64, bool) {
	raw, err := c.Cookie(userCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid login cookie"})
		return 0, false
	}
	return userID, true
}
