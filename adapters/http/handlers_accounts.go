package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/roadsafety/roadguard/app"
	"github.com/roadsafety/roadguard/domain/usage"
	"github.com/roadsafety/roadguard/ports"
)

// AccountHandler serves signup, login, and account self-service.
type AccountHandler struct {
	svc *app.AccountService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(svc *app.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name        string `json:"name"`
	NewPassword string `json:"new_password"`
}

// accountResponse is the public view of an account. The password hash
// never leaves the service.
type accountResponse struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	APIKey    string     `json:"api_key"`
	Tier      string     `json:"tier"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func toAccountResponse(a ports.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		APIKey:    a.APIKey,
		Tier:      string(a.Tier),
		CreatedAt: a.CreatedAt,
		LastLogin: a.LastLogin,
	}
}

// Signup registers a new account.
//
//	@Summary		Register a new account
//	@Description	Creates a free tier account and issues a fresh API key
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		signupRequest	true	"Signup details"
//	@Success		201		{object}	accountResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		409		{object}	errorResponse
//	@Router			/api/users/signup [post]
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a, err := h.svc.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(a))
}

// Login verifies credentials.
//
//	@Summary		Log in
//	@Description	Verifies email and password and returns the account with its API key
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	accountResponse
//	@Failure		401		{object}	errorResponse
//	@Router			/api/users/login [post]
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// Profile returns the account owning the presented API key.
//
//	@Summary		Get profile
//	@Tags			Users
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	accountResponse
//	@Failure		404	{object}	errorResponse
//	@Router			/api/users/me [get]
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	a, err := h.svc.Get(r.Context(), id.Key)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// UpdateProfile changes the display name and optionally the password.
//
//	@Summary		Update profile
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			request	body		updateProfileRequest	true	"Fields to change"
//	@Success		200		{object}	accountResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		404		{object}	errorResponse
//	@Router			/api/users/me [put]
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, _ := IdentityFrom(r.Context())

	a, err := h.svc.UpdateProfile(r.Context(), id.Key, req.Name, req.NewPassword)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// RegenerateKey replaces the caller's API key.
//
//	@Summary		Regenerate API key
//	@Description	Issues a fresh API key; the old key stops working immediately
//	@Tags			Users
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	accountResponse
//	@Failure		404	{object}	errorResponse
//	@Router			/api/users/regenerate-key [post]
func (h *AccountHandler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	a, err := h.svc.RegenerateAPIKey(r.Context(), id.Key)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// accountUsageResponse is the per-account usage report.
type accountUsageResponse struct {
	CurrentHour  int64           `json:"current_hour"`
	Today        int64           `json:"today"`
	Total        int64           `json:"total"`
	Hourly       []hourBucket    `json:"hourly"`
	TopEndpoints []endpointCount `json:"top_endpoints"`
}

type hourBucket struct {
	Hour  time.Time `json:"hour"`
	Count int64     `json:"count"`
}

type endpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}

func toAccountUsageResponse(s usage.AccountStats) accountUsageResponse {
	resp := accountUsageResponse{
		CurrentHour:  s.CurrentHour,
		Today:        s.Today,
		Total:        s.Total,
		Hourly:       make([]hourBucket, 0, len(s.Hourly)),
		TopEndpoints: make([]endpointCount, 0, len(s.TopEndpoints)),
	}
	for _, b := range s.Hourly {
		resp.Hourly = append(resp.Hourly, hourBucket{Hour: b.Hour, Count: b.Count})
	}
	for _, e := range s.TopEndpoints {
		resp.TopEndpoints = append(resp.TopEndpoints, endpointCount{Endpoint: e.Endpoint, Count: e.Count})
	}
	return resp
}

// UsageStats returns the caller's usage history.
//
//	@Summary		Per-account usage statistics
//	@Tags			Users
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	accountUsageResponse
//	@Failure		404	{object}	errorResponse
//	@Router			/api/users/usage-stats [get]
func (h *AccountHandler) UsageStats(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	stats, err := h.svc.UsageStats(r.Context(), id.Key)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountUsageResponse(stats))
}

// writeAccountError maps account service errors to HTTP statuses.
func writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidEmail), errors.Is(err, app.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
