package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hupe1980/devcrew/assistant"
)

type pageData struct {
	Title    string
	BasePath string
	Query    string
	Examples []string
	Reply    *assistant.Reply
}

type askRequest struct {
	Query string `json:"query" binding:"max=4000"`
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.handleIndex)
	r.POST("/", s.handleSubmit)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.GET("/topology", s.handleTopology)
}

func (s *Server) page(query string, reply *assistant.Reply) pageData {
	return pageData{
		Title:    PageTitle,
		BasePath: s.opts.BasePath,
		Query:    query,
		Examples: s.opts.Examples,
		Reply:    reply,
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index", s.page("", nil))
}

func (s *Server) handleSubmit(c *gin.Context) {
	query := c.PostForm("query")
	reply := s.asker.Ask(c.Request.Context(), query)
	c.HTML(http.StatusOK, "index", s.page(query, &reply))
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, assistant.Reply{Kind: assistant.ReplyError, Message: "Error: " + err.Error()})
		return
	}

	reply := s.asker.Ask(c.Request.Context(), req.Query)

	c.JSON(statusFor(reply.Kind), reply)
}

func (s *Server) handleTopology(c *gin.Context) {
	if s.opts.Topology == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "topology not available"})
		return
	}
	c.JSON(http.StatusOK, s.opts.Topology)
}

func statusFor(kind assistant.ReplyKind) int {
	switch kind {
	case assistant.ReplySuccess:
		return http.StatusOK
	case assistant.ReplyWarning:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
