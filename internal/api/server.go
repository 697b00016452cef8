// Package api exposes the engine over HTTP for the serve command. Schema
// validation beyond basic decoding is the caller's concern; handlers map the
// engine's typed failures onto status codes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/engine"
	"github.com/cartwheel-app/cartwheel/internal/insights"
	"github.com/cartwheel-app/cartwheel/internal/model"
	"github.com/cartwheel-app/cartwheel/internal/service"
	"github.com/cartwheel-app/cartwheel/internal/share"
)

// Server wires the engine components behind an HTTP mux.
type Server struct {
	store     service.Storage
	shares    service.ShareStore
	recorder  *engine.Recorder
	predictor *insights.Predictor
	miner     *insights.Miner
	processor *engine.Processor
	suggester *engine.Suggester
	metrics   *Metrics
}

// NewServer creates an API server. suggester may be nil when no generator is
// configured.
func NewServer(store service.Storage, shares service.ShareStore, recorder *engine.Recorder, predictor *insights.Predictor, miner *insights.Miner, processor *engine.Processor, suggester *engine.Suggester, metrics *Metrics) *Server {
	return &Server{
		store:     store,
		shares:    shares,
		recorder:  recorder,
		predictor: predictor,
		miner:     miner,
		processor: processor,
		suggester: suggester,
		metrics:   metrics,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, path string, handler http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.instrument(path, handler))
	}

	route("POST /api/receipts/process", "/api/receipts/process", s.handleProcessReceipt)
	route("POST /api/purchases", "/api/purchases", s.handleRecordPurchases)
	route("GET /api/predictions", "/api/predictions", s.handlePredictions)
	route("GET /api/suggestions", "/api/suggestions", s.handleSuggestions)

	route("POST /api/products", "/api/products", s.handleCreateProduct)
	route("GET /api/products", "/api/products", s.handleListProducts)
	route("GET /api/products/{id}", "/api/products/{id}", s.handleGetProduct)
	route("PATCH /api/products/{id}", "/api/products/{id}", s.handleUpdateProduct)
	route("DELETE /api/products/{id}", "/api/products/{id}", s.handleDeleteProduct)
	route("GET /api/products/{id}/associations", "/api/products/{id}/associations", s.handleAssociations)
	route("GET /api/products/{id}/purchases", "/api/products/{id}/purchases", s.handlePurchaseHistory)

	route("POST /api/share", "/api/share", s.handleCreateShare)
	route("GET /api/share/{id}", "/api/share/{id}", s.handleGetShare)
	route("DELETE /api/share/{id}", "/api/share/{id}", s.handleDeleteShare)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

type purchaseRequest struct {
	ProductID    string   `json:"product_id"`
	Name         string   `json:"name"`
	PurchaseDate string   `json:"purchase_date"`
	Price        *float64 `json:"price"`
	Quantity     float64  `json:"quantity"`
	StoreName    string   `json:"store_name"`
}

func (r purchaseRequest) toInsights() (insights.PurchaseRequest, error) {
	req := insights.PurchaseRequest{
		ProductID: r.ProductID,
		Name:      r.Name,
		Price:     r.Price,
		Quantity:  r.Quantity,
		StoreName: r.StoreName,
	}
	if r.PurchaseDate != "" {
		ts, err := time.Parse(time.RFC3339, r.PurchaseDate)
		if err != nil {
			return req, fmt.Errorf("%w: bad purchase_date: %v", common.ErrInvalidArgument, err)
		}
		req.PurchaseDate = ts
	}
	return req, nil
}

func (s *Server) handleRecordPurchases(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []purchaseRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err))
		return
	}
	if len(body.Items) == 0 {
		writeError(w, fmt.Errorf("%w: no items", common.ErrInvalidArgument))
		return
	}

	reqs := make([]insights.PurchaseRequest, 0, len(body.Items))
	for _, item := range body.Items {
		req, err := item.toInsights()
		if err != nil {
			writeError(w, err)
			return
		}
		reqs = append(reqs, req)
	}

	events, err := s.recorder.RecordBasket(r.Context(), reqs)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.purchasesTotal.Add(float64(len(events)))
	writeJSON(w, http.StatusCreated, map[string]any{"events": events})
}

func (s *Server) handleProcessReceipt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OCRText string `json:"ocrText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err))
		return
	}
	if body.OCRText == "" {
		writeError(w, fmt.Errorf("%w: ocrText must be provided", common.ErrInvalidArgument))
		return
	}

	result, err := s.processor.ProcessReceipt(r.Context(), body.OCRText)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.receiptsTotal.WithLabelValues(string(result.Method)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"receipt":          result.Receipt,
		"method":           result.Method,
		"processingTimeMs": result.Elapsed.Milliseconds(),
	})
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	daysAhead := queryInt(r, "days_ahead", 7)
	minConfidence := queryFloat(r, "min_confidence", 0.5)

	predictions, err := s.predictor.PredictNeeded(r.Context(), daysAhead, minConfidence)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.predictionsServed.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"predictions": predictions})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if s.suggester == nil {
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": []engine.Suggestion{}})
		return
	}

	suggestions, err := s.suggester.Suggest(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		// The UI treats a dead generator as "no suggestions", not a failure.
		if errors.Is(err, common.ErrUpstreamUnavailable) {
			writeJSON(w, http.StatusOK, map[string]any{"suggestions": []engine.Suggestion{}, "error": err.Error()})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string   `json:"name"`
		Category     string   `json:"category"`
		TypicalPrice *float64 `json:"typical_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err))
		return
	}
	if body.Name == "" {
		writeError(w, fmt.Errorf("%w: name is required", common.ErrInvalidArgument))
		return
	}

	product := model.NewProduct(body.Name, body.Category, body.TypicalPrice)
	if err := s.store.CreateProduct(r.Context(), product); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if query := r.URL.Query().Get("q"); query != "" {
		products, err := s.store.SearchProducts(r.Context(), query, r.URL.Query().Get("category"), queryInt(r, "limit", 20))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products, "total": len(products)})
		return
	}

	products, err := s.store.GetAllProducts(r.Context(), service.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit", 100),
		Offset:   queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products, "total": len(products)})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var update model.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err))
		return
	}

	product, err := s.store.UpdateProduct(r.Context(), r.PathValue("id"), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAssociations(w http.ResponseWriter, r *http.Request) {
	associated, err := s.miner.Associated(r.Context(),
		r.PathValue("id"),
		queryFloat(r, "min_confidence", 0.3),
		queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"associations": associated})
}

func (s *Server) handlePurchaseHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.GetRecentPurchases(r.Context(), r.PathValue("id"), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": events})
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ListID     string `json:"listId"`
		Permission string `json:"permission"`
		DaysValid  int    `json:"daysValid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err))
		return
	}

	list, err := s.store.GetList(r.Context(), body.ListID)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.store.GetListItems(r.Context(), list.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	link, err := share.CreateLink(r.Context(), s.shares, list, items,
		model.SharePermission(body.Permission), body.DaysValid, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "shareInfo": link})
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	link, err := s.shares.Get(r.Context(), share.NormalizeID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}

	if link.Expired(time.Now().UTC()) {
		writeJSON(w, http.StatusGone, map[string]any{
			"success": false,
			"expired": true,
			"error":   "this share link has expired",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "expired": false, "shareInfo": link})
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	if err := s.shares.Delete(r.Context(), share.NormalizeID(r.PathValue("id"))); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the engine's typed failures onto HTTP status codes.
// Persistence failures surface as 500s; they are never masked.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrDuplicateEntry):
		status = http.StatusConflict
	case errors.Is(err, common.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, common.ErrRateLimit):
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
