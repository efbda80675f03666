package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/models"
	"github.com/hyperjump/simrec/internal/recommend"
	"github.com/hyperjump/simrec/internal/storage"
)

const (
	internalErrorDetail    = "Internal server error"
	unavailableErrorDetail = "Service Unavailable: Database connection failed"
	rootMessage            = "Dataset Recommendation Service is running."
)

// handleRecommend serves GET /recommend?dataset=&iid=&n=. An absent n and an explicit
// n=0 both select the configured default count; n=0 never yields an empty list.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := recommend.RecommendRequest{Dataset: q.Get("dataset"), IID: q.Get("iid")}
	if raw := q.Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondServiceError(w, r, recommend.NewFieldError("n",
				"Input should be a valid integer, unable to parse string as an integer", "int_parsing"))
			return
		}
		req.N = n
	}
	s.logger.Debug("recommend request",
		zap.String("dataset", req.Dataset), zap.String("iid", req.IID), zap.Int("n", req.N))

	resp, err := s.service.Recommend(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReferrers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := s.service.Referrers(r.Context(), q.Get("dataset"), q.Get("iid"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Health(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.RootResponse{Status: "ok", Message: rootMessage})
}

// respondServiceError maps service errors to the status codes of the API.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	q := r.URL.Query()
	var verr *recommend.ValidationError
	switch {
	case errors.As(err, &verr):
		s.logger.Warn("invalid request", zap.String("path", r.URL.Path), zap.Any("detail", verr.Fields))
		s.respondJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{
			Errors: []models.APIError{{Code: http.StatusUnprocessableEntity, Detail: verr.Fields}},
		})
	case errors.Is(err, recommend.ErrDatasetNotFound):
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Dataset '%s' not found", q.Get("dataset")))
	case errors.Is(err, recommend.ErrItemNotFound), errors.Is(err, storage.ErrItemNotFound):
		s.respondError(w, http.StatusNotFound,
			fmt.Sprintf("Item ID '%s' not found in dataset '%s'", q.Get("iid"), q.Get("dataset")))
	case errors.Is(err, storage.ErrStoreUnavailable):
		s.logger.Error("store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, unavailableErrorDetail)
	default:
		s.logger.Error("unexpected error", zap.String("path", r.URL.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, internalErrorDetail)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, models.ErrorResponse{
		Errors: []models.APIError{{Code: status, Detail: detail}},
	})
}
