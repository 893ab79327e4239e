package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"skillswap/internal/domain"
	"skillswap/internal/security"
	"skillswap/internal/service"
)

type registerRequest struct {
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Password      string         `json:"password"`
	ProfileImage  string         `json:"profileImage"`
	SkillsOffered []domain.Skill `json:"skillsOffered"`
	SkillsWanted  []string       `json:"skillsWanted"`
	Bio           string         `json:"bio"`
	Location      string         `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name          *string         `json:"name"`
	Email         *string         `json:"email"`
	ProfileImage  *string         `json:"profileImage"`
	SkillsOffered *[]domain.Skill `json:"skillsOffered"`
	SkillsWanted  *[]string       `json:"skillsWanted"`
	Bio           *string         `json:"bio"`
	Location      *string         `json:"location"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

func validSkills(skills []domain.Skill) bool {
	for _, s := range skills {
		if strings.TrimSpace(s.Name) == "" || !s.Level.Valid() {
			return false
		}
	}
	return true
}

// @Summary      Register a new user
// @Description  Register a new user and return an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body registerRequest true "Register input"
// @Success      201  {object}  tokenResponse
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /auth/register [post]
func handleRegister(sessions *Sessions, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("email is required"))
			return
		}
		if !validSkills(req.SkillsOffered) {
			writeJSON(w, http.StatusBadRequest, errorBody("every offered skill needs a name and a valid level"))
			return
		}

		sid, sess := sessions.New()
		ok, err := sess.Register(r.Context(), service.RegisterInput{
			Name:          req.Name,
			Email:         req.Email,
			ProfileImage:  req.ProfileImage,
			SkillsOffered: req.SkillsOffered,
			SkillsWanted:  req.SkillsWanted,
			Bio:           req.Bio,
			Location:      req.Location,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusConflict, errorBody("email is already registered"))
			return
		}
		issueToken(w, r, sessions, tokens, sid, sess, http.StatusCreated)
	}
}

// @Summary      Login
// @Description  Sign in with an email address. The password is not checked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body loginRequest true "Login input"
// @Success      200  {object}  tokenResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/login [post]
func handleLogin(sessions *Sessions, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}

		sid, sess := sessions.New()
		ok, err := sess.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid email or password"))
			return
		}
		issueToken(w, r, sessions, tokens, sid, sess, http.StatusOK)
	}
}

func issueToken(
	w http.ResponseWriter,
	r *http.Request,
	sessions *Sessions,
	tokens *security.TokenService,
	sid string,
	sess *service.Session,
	status int,
) {
	user := sess.User()
	token, err := tokens.CreateForSession(user.ID, sid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sessions.Add(sid, sess)
	writeJSON(w, status, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

// @Summary      Logout
// @Description  End the current session and clear its cached profile
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func handleLogout(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, sess := CurrentSession(r)
		if sess == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		sessions.Remove(sid)
		if err := sess.Logout(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// @Summary      Get Current User
// @Description  Get currently logged in user details
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess := CurrentSession(r)
		if sess == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		if err := sess.Refresh(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.User())
	}
}

// @Summary      Update Current User
// @Description  Merge the given fields into the signed-in user's profile
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body profileRequest true "Profile fields"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  map[string]string
// @Router       /auth/me [patch]
func handleUpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess := CurrentSession(r)
		if sess == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		if req.SkillsOffered != nil && !validSkills(*req.SkillsOffered) {
			writeJSON(w, http.StatusBadRequest, errorBody("every offered skill needs a name and a valid level"))
			return
		}

		err := sess.UpdateProfile(r.Context(), service.ProfileUpdate{
			Name:          req.Name,
			Email:         req.Email,
			ProfileImage:  req.ProfileImage,
			SkillsOffered: req.SkillsOffered,
			SkillsWanted:  req.SkillsWanted,
			Bio:           req.Bio,
			Location:      req.Location,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.User())
	}
}
