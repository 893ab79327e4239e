package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillswap/internal/domain"
	"skillswap/internal/service"
)

type swapCreateRequest struct {
	ToUserID     string `json:"toUserId"`
	SkillOffered string `json:"skillOffered"`
	SkillWanted  string `json:"skillWanted"`
	Message      string `json:"message"`
}

type reviewCreateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// @Summary      Send a swap request
// @Tags         swaps
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body swapCreateRequest true "Swap request"
// @Success      201  {object}  domain.SwapRequest
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /swaps [post]
func handleCreateSwap(swaps *service.SwapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req swapCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		created, err := swaps.Send(r.Context(), service.SendSwapInput{
			ToUserID:     req.ToUserID,
			SkillOffered: req.SkillOffered,
			SkillWanted:  req.SkillWanted,
			Message:      req.Message,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// handleListSwaps serves the full list and the sent/received views.
func handleListSwaps(list func(ctx context.Context) ([]*domain.SwapRequest, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqs, err := list(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reqs)
	}
}

func handleGetSwap(swaps *service.SwapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := swaps.Get(r.Context(), chi.URLParam(r, "swapID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

// handleSwapTransition serves accept, reject, cancel and complete.
// @Summary      Change a swap request's status
// @Tags         swaps
// @Security     BearerAuth
// @Produce      json
// @Param        swapID  path  string  true  "Swap request id"
// @Success      200  {object}  domain.SwapRequest
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /swaps/{swapID}/accept [post]
func handleSwapTransition(apply func(ctx context.Context, id string) (*domain.SwapRequest, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := apply(r.Context(), chi.URLParam(r, "swapID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func handleCreateReview(reviews *service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		review, err := reviews.Submit(r.Context(), chi.URLParam(r, "swapID"), req.Rating, req.Comment)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, review)
	}
}
