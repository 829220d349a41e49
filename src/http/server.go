// MIT License
//
// Copyright (c) 2025 nexus-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/http/server.go
package http

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nexus-core/go/src/api"
	"github.com/nexus-core/go/src/core/prover"
	"github.com/nexus-core/go/src/core/result"
	"github.com/nexus-core/go/src/core/types"
	"github.com/nexus-core/go/src/core/verifier"
)

// Server exposes the boundary call surface over HTTP: proof
// verification, the two proving modes, Prometheus metrics and a
// websocket feed of completed proofs. Every envelope produced by a
// handler is released before the handler returns; the JSON response is
// the only copy that leaves the process.
type Server struct {
	address  string
	router   *gin.Engine
	verifier *verifier.Verifier
	prover   *prover.Prover
	log      *zap.Logger

	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]struct{}
}

// NewServer creates the boundary HTTP server.
func NewServer(address string, v *verifier.Verifier, p *prover.Prover, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		address:     address,
		router:      gin.New(),
		verifier:    v,
		prover:      p,
		log:         log,
		upgrader:    websocket.Upgrader{},
		subscribers: make(map[*websocket.Conn]struct{}),
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// setupRoutes defines the HTTP endpoints.
func (s *Server) setupRoutes() {
	s.router.POST("/v1/verify", s.handleVerify)
	s.router.POST("/v1/prove", s.handleProve)
	s.router.POST("/v1/prove/anonymous", s.handleProveAnonymous)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws/events", s.handleEvents)
}

// handleVerify checks a proof and returns the reconstructed output.
func (s *Server) handleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := s.verifier.Verify(req.ProgramID, req.TaskID, req.PublicInputs, req.ProofData)
	resp := VerifyResponse{
		Success:      res.Success,
		ErrorMessage: res.ErrorMessage,
		ExitCode:     res.ExitCode,
		PublicOutput: res.PublicOutput,
		Logs:         res.Logs,
	}
	c.JSON(http.StatusOK, resp)
	res.Release()
}

// handleProve produces an authenticated proof for the submitted task.
func (s *Server) handleProve(c *gin.Context) {
	var req ProveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task := &types.Task{
		TaskID:       req.TaskID,
		ProgramID:    req.ProgramID,
		PublicInputs: req.PublicInputs,
	}
	res := s.prover.ProveAuthenticated(task)
	s.respondProve(c, res, req.ProgramID, req.TaskID)
}

// handleProveAnonymous produces a proof of the default computation.
func (s *Server) handleProveAnonymous(c *gin.Context) {
	res := s.prover.ProveAnonymously()
	s.respondProve(c, res, prover.DefaultProgramID, "")
}

// respondProve serializes a prover envelope, broadcasts the completion
// event and releases the envelope.
func (s *Server) respondProve(c *gin.Context, res *result.ProverResult, programID, taskID string) {
	resp := ProveResponse{
		Success:      res.Success,
		ErrorMessage: res.ErrorMessage,
	}
	if res.Success {
		resp.ProofID = api.ProofID(res.ProofData)
		resp.ProofData = res.ProofData
	}
	c.JSON(http.StatusOK, resp)
	res.Release()

	if resp.Success {
		s.broadcast(ProofEvent{
			Type:      "proof",
			ProgramID: programID,
			TaskID:    taskID,
			ProofID:   resp.ProofID,
		})
	}
}

// handleEvents upgrades the connection and registers it for proof
// events.
func (s *Server) handleEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.subscribers[conn] = struct{}{}
	s.mu.Unlock()

	// Reader loop only drains control frames; the feed is one-way.
	go func() {
		defer s.dropSubscriber(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast pushes a proof event to every subscriber, dropping
// connections that fail to accept it.
func (s *Server) broadcast(ev ProofEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.subscribers {
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			delete(s.subscribers, conn)
		}
	}
}

// dropSubscriber closes and forgets a websocket connection.
func (s *Server) dropSubscriber(conn *websocket.Conn) {
	conn.Close()
	s.mu.Lock()
	delete(s.subscribers, conn)
	s.mu.Unlock()
}

// Handler exposes the router, mainly for tests driving the surface
// through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server on the configured address.
func (s *Server) Start() error {
	s.log.Info("boundary http server listening", zap.String("address", s.address))
	return s.router.Run(s.address)
}
