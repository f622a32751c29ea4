// Package web exposes the batch resizer over HTTP: an API to start a
// run and a websocket that streams per-file progress.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"img-resizer-go/internal/config"
	"img-resizer-go/internal/resizer"
	"img-resizer-go/internal/statistics"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server serves the resize API and progress websocket.
type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex

	// Current operation state.
	operationMutex sync.RWMutex
	isRunning      bool
	currentStats   *statistics.Statistics
	lastResults    []resizer.FileResult
}

// APIResponse is the envelope for all JSON responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ResizeRequest describes a batch resize job submission.
type ResizeRequest struct {
	InputPath           string `json:"input_path"`
	TargetSizeKB        int64  `json:"target_size_kb,omitempty"`
	Dimensions          string `json:"dimensions,omitempty"` // "WIDTHxHEIGHT"
	OutputDir           string `json:"output_dir,omitempty"`
	MaintainAspectRatio bool   `json:"maintain_aspect_ratio"`
	AutoScale           bool   `json:"auto_scale"`
	Parallel            bool   `json:"parallel"`
}

// WSMessage is the envelope for websocket events.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewServer creates a configured server.
func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, no cross-origin concerns
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/resize", s.handleResize).Methods("POST")
	api.HandleFunc("/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/results", s.handleResults).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Start runs the HTTP server on the given port. Blocks until shutdown.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	running := s.isRunning
	stats := s.currentStats
	s.operationMutex.RUnlock()

	var summary interface{}
	if stats != nil {
		summary = stats.GetSummary()
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running": running,
			"summary": summary,
		},
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	results := s.lastResults
	s.operationMutex.RUnlock()

	s.writeJSON(w, APIResponse{
		Success: true,
		Data:    results,
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.InputPath == "" {
		s.writeError(w, "input_path is required", http.StatusBadRequest)
		return
	}

	if _, err := os.Stat(req.InputPath); os.IsNotExist(err) {
		s.writeError(w, "Input path does not exist", http.StatusBadRequest)
		return
	}

	width, height, err := resizer.ParseDimensions(req.Dimensions)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.operationMutex.Lock()
	if s.isRunning {
		s.operationMutex.Unlock()
		s.writeError(w, "Operation already in progress", http.StatusConflict)
		return
	}
	s.isRunning = true
	s.currentStats = statistics.NewStatistics()
	s.operationMutex.Unlock()

	go s.runResizeAsync(req, width, height)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Resize started",
	})
}

// handleStop clears the running flag so a new job can be submitted.
// In-flight file work drains on its own; there is no per-file
// cancellation.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.Lock()
	s.isRunning = false
	s.operationMutex.Unlock()

	s.broadcastWSMessage("operation_stopped", map[string]interface{}{
		"message": "Operation stopped by user",
	})

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Operation stopped",
	})
}

func (s *Server) runResizeAsync(req ResizeRequest, width, height int) {
	s.broadcastWSMessage("resize_started", map[string]interface{}{
		"input_path":     req.InputPath,
		"target_size_kb": req.TargetSizeKB,
	})

	opts := resizer.Options{
		InputPath:           req.InputPath,
		TargetSizeKB:        req.TargetSizeKB,
		Width:               width,
		Height:              height,
		OutputDir:           req.OutputDir,
		MaintainAspectRatio: req.MaintainAspectRatio,
		AutoScale:           req.AutoScale,
		Parallel:            req.Parallel,
		Workers:             s.cfg.Performance.WorkerThreads,
		DefaultQuality:      s.cfg.Resize.DefaultQuality,
		OutputDirName:       s.cfg.Resize.OutputDirName,
		OutputSuffix:        s.cfg.Resize.OutputSuffix,
	}

	s.operationMutex.RLock()
	stats := s.currentStats
	s.operationMutex.RUnlock()

	rz := resizer.New(opts, s.log, stats)
	rz.SetProgressFunc(func(res resizer.FileResult) {
		s.broadcastWSMessage("file_done", res)
	})

	results, err := rz.Run()

	s.operationMutex.Lock()
	s.isRunning = false
	s.lastResults = results
	s.operationMutex.Unlock()

	if err != nil {
		s.broadcastWSMessage("resize_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	summary := resizer.Summarize(results)
	s.broadcastWSMessage("resize_completed", map[string]interface{}{
		"successful":  summary.Successful,
		"failed":      summary.Failed,
		"saved_bytes": summary.TotalSaved,
		"summary":     stats.GetSummary(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	// Keep the connection alive until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	msgBytes, err := json.Marshal(WSMessage{Type: messageType, Data: data})
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			go func(c *websocket.Conn) {
				s.wsMutex.Lock()
				delete(s.wsClients, c)
				s.wsMutex.Unlock()
				c.Close()
			}(conn)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
