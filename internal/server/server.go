// Copyright 2024 Survey Insights Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server wires the HTTP surface: the insight pipeline endpoint plus
// the ping, key-check, health and metrics endpoints.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/survey-insights/internal/config"
	"github.com/your-org/survey-insights/internal/health"
	"github.com/your-org/survey-insights/internal/insight"
	"github.com/your-org/survey-insights/internal/openai"
)

// InsightResponse is the stable success contract. All four insight fields
// are always present regardless of model behavior.
type InsightResponse struct {
	OK      bool     `json:"ok"`
	Summary string   `json:"summary"`
	Actions []string `json:"actions"`
	Risks   []string `json:"risks"`
	Answer  string   `json:"answer"`
}

// ErrorResponse is the error contract shared by all failure paths.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Server holds the immutable collaborators shared across request handlers.
// The completion client is nil when no API key is configured; the insight
// endpoint reports that as a configuration error at invocation time.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  *openai.Client
	health  *health.Manager
	metrics *Metrics
}

// New creates a server. client may be nil when the API key is absent.
func New(cfg *config.Config, logger *zap.Logger, client *openai.Client, healthManager *health.Manager) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		health:  healthManager,
		metrics: NewMetrics(),
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(s.cfg.Server.CORSOrigin))
	router.Use(RequestLogger(s.logger))
	router.Use(s.metrics.Middleware())

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "Use POST"})
	})

	router.POST("/api/insight", s.handleInsight)
	router.GET("/api/ping", s.handlePing)
	router.POST("/api/ping", s.handlePing)
	router.GET("/api/key-check", s.handleKeyCheck)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", s.metrics.Handler())

	return router
}

// handleInsight runs the pipeline: validate, build prompt, invoke the
// completion backend once, normalize, respond. Validation failures never
// reach the backend.
func (s *Server) handleInsight(c *gin.Context) {
	var req insight.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("Malformed insight request body",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	if err := insight.Validate(req); err != nil {
		s.logger.Warn("Invalid insight request",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if s.client == nil {
		s.logger.Error("Insight request rejected: no API key configured",
			zap.String("request_id", c.GetString(RequestIDKey)),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:  "configuration error",
			Detail: openai.ErrMissingAPIKey.Error(),
		})
		return
	}

	payload, err := insight.UserPayload(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:  "internal error",
			Detail: err.Error(),
		})
		return
	}

	schema := insight.Schema()
	raw, err := s.client.CreateInsightCompletion(c.Request.Context(), openai.InsightCompletionRequest{
		Model:        s.cfg.Insight.Model,
		SystemPrompt: insight.SystemPrompt(),
		UserPayload:  payload,
		MaxTokens:    s.cfg.Insight.MaxTokens,
		Temperature:  float32(s.cfg.Insight.Temperature),
		SchemaName:   insight.SchemaName,
		Schema:       &schema,
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	result := insight.Normalize(raw)

	s.logger.Info("Insight generated",
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.String("survey_title", req.SurveyTitle),
		zap.Int("kpi_count", len(req.KPIs)),
		zap.Bool("has_user_prompt", req.UserPrompt != ""),
		zap.Int("risks", len(result.Risks)),
		zap.Int("actions", len(result.Actions)),
	)

	c.JSON(http.StatusOK, InsightResponse{
		OK:      true,
		Summary: result.Summary,
		Actions: result.Actions,
		Risks:   result.Risks,
		Answer:  result.Answer,
	})
}

// respondBackendError maps invoker failures onto the 5xx contract:
// missing credential is local misconfiguration, everything else is an
// upstream service failure.
func (s *Server) respondBackendError(c *gin.Context, err error) {
	requestID := c.GetString(RequestIDKey)

	if errors.Is(err, openai.ErrMissingAPIKey) {
		s.logger.Error("Insight completion misconfigured", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:  "configuration error",
			Detail: err.Error(),
		})
		return
	}

	s.logger.Error("Insight completion failed", zap.String("request_id", requestID), zap.Error(err))
	c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:  "AI backend error",
		Detail: err.Error(),
	})
}

// handlePing answers liveness checks on any accepted method.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "pong"})
}

// handleKeyCheck reports whether the API credential is configured and its
// length, for operational diagnostics only.
func (s *Server) handleKeyCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"hasKey":    s.cfg.OpenAI.APIKey != "",
		"keyLength": len(s.cfg.OpenAI.APIKey),
	})
}

// handleHealth serves the aggregated health check.
func (s *Server) handleHealth(c *gin.Context) {
	resp := s.health.Check(c.Request.Context())

	status := http.StatusOK
	if resp.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
