// Package api exposes the thermal analysis engine over HTTP/JSON.
package api

import (
	"encoding/json"
	"fmt"
	"image/jpeg"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/thermal.report/internal/db"
	"github.com/banshee-data/thermal.report/internal/thermal"
	"github.com/banshee-data/thermal.report/internal/units"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	engine *thermal.Engine
	db     *db.DB
	units  string
}

// NewServer wires the engine and the history store into an HTTP API. db may
// be nil, in which case history endpoints report empty and nothing is
// recorded.
func NewServer(engine *thermal.Engine, db *db.DB, units string) *Server {
	return &Server{
		engine: engine,
		db:     db,
		units:  units,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/video", s.handleVideo)
	mux.HandleFunc("/calibration", s.handleCalibration)
	mux.HandleFunc("/temperature", s.handleTemperature)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/analyses", s.handleAnalyses)
	mux.HandleFunc("/profile/chart", s.handleProfileChart)
	mux.HandleFunc("/frame.jpg", s.handleFrameJPG)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("failed to encode json error response: %v", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// intParam parses a required integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %q parameter", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %q parameter", name)
	}
	return v, nil
}

// channelParam parses an RGB channel parameter and range-checks it.
func channelParam(r *http.Request, name string) (int, error) {
	v, err := intParam(r, name)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%q must be between 0 and 255", name)
	}
	return v, nil
}

type loadRequest struct {
	Path string `json:"path"`
}

func (s *Server) decodeLoadRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req loadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.Path == "" {
		s.writeJSONError(w, http.StatusBadRequest, "path is required")
		return "", false
	}
	return req.Path, true
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, s.engine.VideoInfo())
	case http.MethodPost:
		path, ok := s.decodeLoadRequest(w, r)
		if !ok {
			return
		}
		info, err := s.engine.LoadVideo(path)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, info)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCalibration(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.db == nil {
			s.writeJSON(w, nil)
			return
		}
		latest, err := s.db.LatestCalibration()
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("failed to read calibration history: %v", err))
			return
		}
		s.writeJSON(w, latest)
	case http.MethodPost:
		path, ok := s.decodeLoadRequest(w, r)
		if !ok {
			return
		}
		entries, err := s.engine.LoadCalibration(path)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if s.db != nil {
			if err := s.db.RecordCalibration(path, entries); err != nil {
				log.Printf("failed to record calibration load: %v", err)
			}
		}
		s.writeJSON(w, map[string]int{"entries": entries})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type temperatureResponse struct {
	Temperature *float64 `json:"temperature"`
	Unit        string   `json:"unit"`
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	red, err := channelParam(r, "r")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	green, err := channelParam(r, "g")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	blue, err := channelParam(r, "b")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := temperatureResponse{Unit: units.Symbol(s.units)}
	if celsius, ok := s.engine.PixelTemperature(red, green, blue); ok {
		converted := units.Convert(celsius, s.units)
		resp.Temperature = &converted
	}
	s.writeJSON(w, resp)
}

type statsResponse struct {
	Samples int      `json:"samples"`
	Valid   int      `json:"valid"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Mean    *float64 `json:"mean"`
	P50     *float64 `json:"p50"`
	P95     *float64 `json:"p95"`
}

type analyzeResponse struct {
	Frame        int           `json:"frame"`
	Unit         string        `json:"unit"`
	Temperatures []*float64    `json:"temperatures"`
	Stats        statsResponse `json:"stats"`
}

// analyzeParams pulls frame and endpoint parameters off the query string.
func (s *Server) analyzeParams(w http.ResponseWriter, r *http.Request) (frame int, p1, p2 thermal.Point, ok bool) {
	var err error
	if frame, err = intParam(r, "frame"); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return 0, p1, p2, false
	}
	coords := [4]int{}
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		if coords[i], err = intParam(r, name); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return 0, p1, p2, false
		}
	}
	return frame, thermal.Point{X: coords[0], Y: coords[1]}, thermal.Point{X: coords[2], Y: coords[3]}, true
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	frame, p1, p2, ok := s.analyzeParams(w, r)
	if !ok {
		return
	}
	if !s.engine.Ready() {
		s.writeJSONError(w, http.StatusServiceUnavailable, "no video loaded")
		return
	}

	samples := s.engine.AnalyzeLine(frame, p1, p2)
	stats := thermal.Summarize(samples)

	resp := analyzeResponse{
		Frame:        frame,
		Unit:         units.Symbol(s.units),
		Temperatures: make([]*float64, len(samples)),
		Stats:        statsResponse{Samples: stats.Samples, Valid: stats.Valid},
	}
	for i, sample := range samples {
		if sample.Valid {
			converted := units.Convert(sample.Celsius, s.units)
			resp.Temperatures[i] = &converted
		}
	}
	if stats.Valid > 0 {
		resp.Stats.Min = s.converted(stats.Min)
		resp.Stats.Max = s.converted(stats.Max)
		resp.Stats.Mean = s.converted(stats.Mean)
		resp.Stats.P50 = s.converted(stats.P50)
		resp.Stats.P95 = s.converted(stats.P95)
	}

	s.recordAnalysis(frame, p1, p2, stats)
	s.writeJSON(w, resp)
}

func (s *Server) converted(celsius float64) *float64 {
	v := units.Convert(celsius, s.units)
	return &v
}

// recordAnalysis persists a line analysis. History is best effort: a storage
// failure is logged, never surfaced to the requester.
func (s *Server) recordAnalysis(frame int, p1, p2 thermal.Point, stats thermal.Stats) {
	if s.db == nil {
		return
	}
	a := &db.Analysis{
		VideoPath:   s.engine.VideoPath(),
		Frame:       frame,
		X1:          p1.X,
		Y1:          p1.Y,
		X2:          p2.X,
		Y2:          p2.Y,
		SampleCount: stats.Samples,
		ValidCount:  stats.Valid,
	}
	if stats.Valid > 0 {
		a.MinC = &stats.Min
		a.MaxC = &stats.Max
		a.MeanC = &stats.Mean
		a.P50C = &stats.P50
		a.P95C = &stats.P95
	}
	if err := s.db.RecordAnalysis(a); err != nil {
		log.Printf("failed to record analysis: %v", err)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, map[string]bool{"ready": s.engine.Ready()})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSON(w, []db.Analysis{})
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	analyses, err := s.db.ListAnalyses(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to retrieve analyses: %v", err))
		return
	}
	if analyses == nil {
		analyses = []db.Analysis{}
	}
	s.writeJSON(w, analyses)
}

func (s *Server) handleFrameJPG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	frame, err := intParam(r, "frame")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := s.engine.Frame(frame)
	if f == nil {
		s.writeJSONError(w, http.StatusNotFound, "frame not available")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if err := jpeg.Encode(w, f.ToImage(), &jpeg.Options{Quality: 90}); err != nil {
		log.Printf("failed to encode frame %d: %v", frame, err)
	}
}
