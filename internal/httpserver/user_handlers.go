package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillswap/internal/service"
)

// @Summary      Browse users
// @Description  Search the directory by name, location or offered skill
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        q      query  string  false  "Search term"
// @Param        skill  query  string  false  "Offered skill filter"
// @Success      200  {array}  domain.User
// @Router       /users [get]
func handleListUsers(directory *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := directory.Search(r.Context(), service.DirectoryQuery{
			Term:  r.URL.Query().Get("q"),
			Skill: r.URL.Query().Get("skill"),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func handleGetUser(directory *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := directory.Get(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func handleListUserReviews(reviews *service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := reviews.ForUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
