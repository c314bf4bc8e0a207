package ui

import (
	"bytes"

	"github.com/gin-gonic/gin"
)

// renderTemplate executes a template into a buffer first so a failure never leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.WithError(err).WithField("template", templateName).Error("Template error")
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.logger.WithError(err).Warn("Error writing template response")
	}
}
