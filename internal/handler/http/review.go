package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mahbub2001/morgan-backend/internal/domain"
	"github.com/Mahbub2001/morgan-backend/internal/service"
	"github.com/Mahbub2001/morgan-backend/pkg/httputil"
	"github.com/Mahbub2001/morgan-backend/pkg/middleware"
	"github.com/Mahbub2001/morgan-backend/pkg/pagination"
)

// ReviewService is the review API as seen by the HTTP layer.
type ReviewService interface {
	IsEligible(ctx context.Context, email, productID, color string) (bool, error)
	CreateReview(ctx context.Context, email string, req service.CreateReviewRequest) (*domain.Review, error)
	ListReviews(ctx context.Context, productID string, p pagination.Params) (*service.ReviewPage, error)
}

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	service ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(svc ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// EligibleRequest is the POST /eligible_reviews body.
type EligibleRequest struct {
	PageData struct {
		ProductID string `json:"productId"`
		Color     string `json:"color"`
	} `json:"pageData"`
	Email string `json:"email"`
}

type eligibleResponse struct {
	Eligible bool `json:"eligible"`
}

type reviewListResponse struct {
	httputil.PaginatedResponse[domain.Review]
	Summary domain.ReviewSummary `json:"summary"`
}

// Eligible handles POST /eligible_reviews
func (h *ReviewHandler) Eligible(w http.ResponseWriter, r *http.Request) {
	var req EligibleRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	ok, err := h.service.IsEligible(r.Context(), req.Email, req.PageData.ProductID, req.PageData.Color)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, eligibleResponse{Eligible: ok})
}

// CreateReview handles POST /reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReviewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var email string
	if c := middleware.ClaimsFromContext(r.Context()); c != nil {
		email = c.Email
	}
	review, err := h.service.CreateReview(r.Context(), email, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, review)
}

// ListReviews handles GET /products/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	page, err := h.service.ListReviews(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviewListResponse{
		PaginatedResponse: httputil.NewPaginatedResponse(page.Reviews, page.Total, p),
		Summary:           page.Summary,
	})
}
