package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/config"
	"pdf-compressor-go/internal/ghostscript"
	"pdf-compressor-go/internal/preset"
	"pdf-compressor-go/internal/settings"
	"pdf-compressor-go/internal/statistics"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

//go:embed static
var staticFiles embed.FS

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	runner     *compressor.Runner
	store      *settings.Store
	session    *statistics.Session
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.Mutex

	// Batches run under ctx; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	// Current batch state
	operationMutex sync.RWMutex
	currentBatch   string
	lastEvent      *compressor.Event
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type CompressRequest struct {
	Files           []string `json:"files"`
	OutputDirectory string   `json:"output_directory,omitempty"`
	Level           string   `json:"level,omitempty"`
	Recursive       bool     `json:"recursive"`
}

type SettingsRequest struct {
	Theme           *string `json:"theme,omitempty"`
	DefaultLevel    *string `json:"default_level,omitempty"`
	OutputDirectory *string `json:"output_directory,omitempty"`
}

type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	IsDirectory  bool   `json:"is_directory"`
	Size         int64  `json:"size"`
	SizeText     string `json:"size_text,omitempty"`
	ModifiedTime string `json:"modified_time"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewServer(cfg *config.Config, log *logrus.Logger, runner *compressor.Runner, store *settings.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		log:       log,
		runner:    runner,
		store:     store,
		session:   statistics.NewSession(),
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local UI only
			},
		},
	}

	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving the API and the page.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/levels", s.handleLevels).Methods("GET")
	api.HandleFunc("/compress", s.handleCompress).Methods("POST")
	api.HandleFunc("/files", s.handleListFiles).Methods("GET")
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods("PUT")
	api.HandleFunc("/recent", s.handleGetRecent).Methods("GET")
	api.HandleFunc("/recent", s.handleClearRecent).Methods("DELETE")

	s.router.HandleFunc("/ws", s.handleWebSocket)

	static, _ := fs.Sub(staticFiles, "static")
	s.router.Handle("/", http.FileServer(http.FS(static))).Methods("GET")
}

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

// Stop cancels any running batch, killing its Ghostscript process, and
// shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	batchID := s.currentBatch
	last := s.lastEvent
	s.operationMutex.RUnlock()

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":    s.runner.Running(),
			"batch_id":   batchID,
			"last_event": last,
			"session":    s.session.Snapshot(),
		},
	})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.store.Get()
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to load settings: %v", err), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"levels":  preset.Levels(),
			"default": prefs.DefaultLevel,
		},
	})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if s.runner.Running() {
		s.writeError(w, "Compression already in progress", http.StatusConflict)
		return
	}

	prefs, err := s.store.Get()
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to load settings: %v", err), http.StatusInternalServerError)
		return
	}

	levelName := req.Level
	if levelName == "" {
		levelName = prefs.DefaultLevel
	}
	level, err := preset.Lookup(levelName)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	inputs, err := compressor.CollectInputs(req.Files, req.Recursive || s.cfg.Compression.Recursive)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	outputDir := firstNonEmpty(req.OutputDirectory, prefs.OutputDirectory, s.cfg.Compression.OutputDirectory)
	if outputDir == "" && len(inputs) > 0 {
		outputDir = filepath.Dir(inputs[0])
	}

	batchID, events, err := s.runner.Start(s.ctx, compressor.Request{
		InputPaths: inputs,
		OutputDir:  outputDir,
		Level:      level.Label,
		Profile:    level.Profile(),
	})
	switch {
	case errors.Is(err, compressor.ErrBusy):
		s.writeError(w, "Compression already in progress", http.StatusConflict)
		return
	case errors.Is(err, ghostscript.ErrNotFound):
		s.writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.operationMutex.Lock()
	s.currentBatch = batchID
	s.lastEvent = nil
	s.operationMutex.Unlock()

	if err := s.store.AddRecentFiles(inputs); err != nil {
		s.log.Warnf("Failed to update recent files: %v", err)
	}
	if req.OutputDirectory != "" {
		if err := s.store.SetOutputDirectory(req.OutputDirectory); err != nil {
			s.log.Warnf("Failed to save output directory: %v", err)
		}
	}

	s.broadcastWSMessage("batch_started", map[string]interface{}{
		"batch_id":         batchID,
		"total":            len(inputs),
		"level":            level.Label,
		"output_directory": outputDir,
	})
	go s.forwardEvents(events)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Compression started",
		Data: map[string]interface{}{
			"batch_id":         batchID,
			"total":            len(inputs),
			"level":            level.Label,
			"output_directory": outputDir,
		},
	})
}

// forwardEvents drains one batch's event stream into the WebSocket clients.
func (s *Server) forwardEvents(events <-chan compressor.Event) {
	for e := range events {
		event := e
		s.operationMutex.Lock()
		// A newer batch may have started once this one stopped running.
		if event.BatchID == s.currentBatch {
			s.lastEvent = &event
		}
		s.operationMutex.Unlock()

		if event.Terminal() && event.Summary != nil {
			s.session.RecordBatch(*event.Summary, event.Type == compressor.EventBatchFailed)
		}
		s.broadcastWSMessage(string(event.Type), event)
	}
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "."
	}

	// Security check - prevent directory traversal
	path = filepath.Clean(path)
	if strings.Contains(path, "..") {
		s.writeError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to read directory: %v", err), http.StatusInternalServerError)
		return
	}

	files := []FileInfo{}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.IsDir() && !compressor.IsPDF(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		fi := FileInfo{
			Path:         filepath.Join(path, entry.Name()),
			Name:         entry.Name(),
			IsDirectory:  entry.IsDir(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		}
		if !entry.IsDir() {
			fi.SizeText = statistics.FormatBytes(info.Size())
		}
		files = append(files, fi)
	}

	// Directories first
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].IsDirectory && !files[j].IsDirectory
	})

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"path":    path,
			"entries": files,
		},
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.store.Get()
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to load settings: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, APIResponse{Success: true, Data: prefs})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Theme != nil {
		if err := s.store.SetTheme(*req.Theme); err != nil {
			s.writeSettingsError(w, err)
			return
		}
	}
	if req.DefaultLevel != nil {
		if err := s.store.SetDefaultLevel(*req.DefaultLevel); err != nil {
			s.writeSettingsError(w, err)
			return
		}
	}
	if req.OutputDirectory != nil {
		if err := s.store.SetOutputDirectory(*req.OutputDirectory); err != nil {
			s.writeSettingsError(w, err)
			return
		}
	}

	s.handleGetSettings(w, r)
}

func (s *Server) handleGetRecent(w http.ResponseWriter, r *http.Request) {
	recent, err := s.store.RecentFiles()
	if err != nil {
		s.writeError(w, fmt.Sprintf("Failed to load recent files: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, APIResponse{Success: true, Data: recent})
}

func (s *Server) handleClearRecent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearRecentFiles(); err != nil {
		s.writeError(w, fmt.Sprintf("Failed to clear recent files: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, APIResponse{Success: true, Message: "Recent files cleared"})
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

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcastWSMessage holds the client lock while writing so each connection
// has a single writer.
func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	msgBytes, err := json.Marshal(WSMessage{Type: messageType, Data: data})
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			delete(s.wsClients, conn)
			conn.Close()
		}
	}
}

func (s *Server) writeSettingsError(w http.ResponseWriter, err error) {
	if errors.Is(err, settings.ErrInvalidTheme) || errors.Is(err, preset.ErrUnknownLevel) {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeError(w, err.Error(), http.StatusInternalServerError)
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
