// Package server wires the engine into an OpenAI-compatible HTTP
// surface.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openllm/llamagate/internal/clients"
	"github.com/openllm/llamagate/internal/config"
	"github.com/openllm/llamagate/internal/engine"
	"github.com/openllm/llamagate/internal/logger"
	"github.com/openllm/llamagate/internal/models"
)

// Server serves chat completions over HTTP
type Server struct {
	engine *engine.Engine
	config *config.Config
	logger *logger.Logger
}

// New creates a new server around a ready engine
func New(eng *engine.Engine, cfg *config.Config) *Server {
	return &Server{
		engine: eng,
		config: cfg,
		logger: logger.GetLogger().WithComponent("server"),
	}
}

// Router builds the gin router with all routes and middleware
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	if s.config.Server.APIKey != "" {
		r.Use(s.authMiddleware())
	}

	r.GET("/v1/models", s.handleListModels)
	r.POST("/v1/chat/completions", s.handleChatCompletions)
	return r
}

// Run starts the HTTP listener
func (s *Server) Run() error {
	s.logger.Info("Listening on %s", s.config.Server.Addr)
	return s.Router().Run(s.config.Server.Addr)
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+s.config.Server.APIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) handleListModels(c *gin.Context) {
	c.JSON(http.StatusOK, models.ModelList{
		Object: "list",
		Data: []models.ModelInfo{
			{
				ID:      s.config.Model.Name,
				Object:  "model",
				Created: time.Now().Unix(),
				OwnedBy: "llamagate",
			},
		},
	})
}

func (s *Server) handleChatCompletions(c *gin.Context) {
	var req models.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promptText := s.engine.ApplyChatTemplate(req.Messages, req.Functions, req.Tools)

	opts := clients.GenerationOptions{
		Stream:      req.Stream,
		Stop:        mergeStop(req.Stop, s.engine.StopSequences()),
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}

	if !req.Stream {
		resp, err := s.engine.CreateChatCompletion(c.Request.Context(), promptText, opts)
		if err != nil {
			s.logger.WithError(err).Error("Chat completion failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	stream, err := s.engine.CreateChatCompletionStream(c.Request.Context(), promptText, opts)
	if err != nil {
		s.logger.WithError(err).Error("Chat completion stream failed to start")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			fmt.Fprint(w, "data: [DONE]\n\n")
			return false
		}
		if err != nil {
			s.logger.WithError(err).Warn("Chat completion stream aborted")
			return false
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			s.logger.WithError(err).Error("Failed to marshal chunk")
			return false
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		return true
	})
}

// mergeStop combines caller-provided stop strings with the adapter's,
// dropping duplicates while keeping order.
func mergeStop(requested, adapter []string) []string {
	if len(adapter) == 0 {
		return requested
	}
	seen := make(map[string]struct{}, len(requested)+len(adapter))
	var out []string
	for _, s := range append(append([]string{}, requested...), adapter...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
