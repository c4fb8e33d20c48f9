package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type chatMessageInput struct {
	Text string `json:"text" binding:"required"`
}

// StartChat opens a new conversation under a generated session id.
func (hb *HandlerBundle) StartChat(c *gin.Context) {
	var input chatMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	sessionID := uuid.New().String()
	reply, err := hb.Engine.HandleMessage(c.Request.Context(), sessionID, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// PostMessage handles one chat turn on an existing (or externally keyed)
// session.
func (hb *HandlerBundle) PostMessage(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input chatMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	reply, err := hb.Engine.HandleMessage(c.Request.Context(), sessionID, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GetSession returns the stored session, transcript included.
func (hb *HandlerBundle) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	s, err := hb.Engine.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, s)
}
