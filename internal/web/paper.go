package web

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperdock/paperdock/internal/semantic"
	"github.com/paperdock/paperdock/internal/store"
)

const (
	defaultListLimit = 10
	defaultK         = 5
	maxK             = 50
)

type paperResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ArxivID      string    `json:"arxiv_id"`
	Published    time.Time `json:"published"`
	Updated      time.Time `json:"updated"`
	Summary      string    `json:"summary"`
	Authors      []string  `json:"authors"`
	Categories   []string  `json:"categories"`
	PDFLink      string    `json:"pdf_link"`
	AbstractLink string    `json:"abstract_link"`
	ArxivLink    string    `json:"arxiv_link"`
}

type matchResponse struct {
	paperResponse
	Distance float32 `json:"distance"`
}

func toResponse(p store.Paper) paperResponse {
	return paperResponse{
		ID:           p.ID,
		Title:        p.Title,
		ArxivID:      p.ArxivID,
		Published:    p.Published,
		Updated:      p.Updated,
		Summary:      p.Summary,
		Authors:      p.Authors,
		Categories:   p.Categories,
		PDFLink:      p.PDFLink,
		AbstractLink: p.AbstractLink,
		ArxivLink:    p.ArxivLink,
	}
}

func toResponses(papers []store.Paper) []paperResponse {
	out := make([]paperResponse, len(papers))
	for i, p := range papers {
		out[i] = toResponse(p)
	}
	return out
}

// ListPapers returns the most recently published papers.
func (s *Server) ListPapers(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	papers, err := s.db.RecentPapers(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toResponses(papers)})
}

// SavePaper adds a paper to the logged-in user's reading list.
func (s *Server) SavePaper(c *gin.Context) {
	userID, ok := s.currentUser(c)
	if !ok {
		return
	}
	paperID, ok := bindPaperID(c)
	if !ok {
		return
	}

	if _, err := s.db.PaperByID(c.Request.Context(), paperID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("paper %d not found", paperID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := s.db.SavePaper(c.Request.Context(), userID, paperID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Paper saved successfully"})
}

// UnsavePaper removes a paper from the logged-in user's reading list.
func (s *Server) UnsavePaper(c *gin.Context) {
	userID, ok := s.currentUser(c)
	if !ok {
		return
	}
	paperID, ok := bindPaperID(c)
	if !ok {
		return
	}

	if err := s.db.UnsavePaper(c.Request.Context(), userID, paperID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Paper removed"})
}

// SavedPapers lists the logged-in user's reading list.
func (s *Server) SavedPapers(c *gin.Context) {
	userID, ok := s.currentUser(c)
	if !ok {
		return
	}

	papers, err := s.db.SavedPapers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toResponses(papers)})
}

// SimilarPapers returns the k nearest neighbors of an indexed paper.
func (s *Server) SimilarPapers(c *gin.Context) {
	if s.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "semantic index not available"})
		return
	}

	paperID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	k, ok := bindK(c)
	if !ok {
		return
	}

	matches, err := s.index.SearchByID(paperID, k)
	if err != nil {
		if errors.Is(err, semantic.ErrPaperNotIndexed) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("paper %d is not in the index", paperID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results, err := s.resolveMatches(c, matches)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

// Search embeds a free-text query and returns the nearest papers.
func (s *Server) Search(c *gin.Context) {
	if s.index == nil || s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "semantic search not available"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	k, ok := bindK(c)
	if !ok {
		return
	}

	vectors, err := s.provider.EmbedBatch(c.Request.Context(), []string{query})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("embedding query: %s", err)})
		return
	}
	if len(vectors) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "embedding backend returned no vector"})
		return
	}

	matches, err := s.index.SearchVector(vectors[0], k)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results, err := s.resolveMatches(c, matches)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

// resolveMatches joins index matches back to stored papers, keeping the
// index ordering and dropping matches whose paper has gone missing.
func (s *Server) resolveMatches(c *gin.Context, matches []semantic.Match) ([]matchResponse, error) {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	papers, err := s.db.PapersByIDs(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]store.Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	results := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.ID]
		if !ok {
			continue
		}
		results = append(results, matchResponse{
			paperResponse: toResponse(p),
			Distance:      m.Distance,
		})
	}
	return results, nil
}

func bindPaperID(c *gin.Context) (int64, bool) {
	var body struct {
		PaperID int64 `json:"paper_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	if body.PaperID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paper_id is required"})
		return 0, false
	}
	return body.PaperID, true
}

func bindK(c *gin.Context) (int, bool) {
	k := defaultK
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxK {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("k must be between 1 and %d", maxK)})
			return 0, false
		}
		k = n
	}
	return k, true
}
