// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/bankgate/bankgate/internal/audit"
	"github.com/bankgate/bankgate/internal/auth"
	"github.com/bankgate/bankgate/internal/authz"
	"github.com/bankgate/bankgate/internal/credstore"
	"github.com/bankgate/bankgate/internal/csrf"
	"github.com/bankgate/bankgate/internal/logging"
	"github.com/bankgate/bankgate/internal/password"
	"github.com/bankgate/bankgate/internal/token"
)

// Account is a sample account record.
type Account struct {
	Number string `json:"number"`
	Owner  string `json:"owner"`
	Type   string `json:"type"`
	Branch string `json:"branch"`
}

// Loan is a sample loan record with an owner for post-filtering.
type Loan struct {
	ID          int     `json:"id"`
	Owner       string  `json:"owner"`
	Type        string  `json:"type"`
	Outstanding float64 `json:"outstanding"`
}

// OwnerID implements authz.Owned.
func (l Loan) OwnerID() string { return l.Owner }

// Card is a sample card record.
type Card struct {
	ID    int     `json:"id"`
	Owner string  `json:"owner"`
	Type  string  `json:"type"`
	Limit float64 `json:"limit"`
}

// Notice is a public announcement.
type Notice struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handlers holds the sample banking endpoints. They are deliberately thin;
// their purpose is to exercise every pipeline stage.
type Handlers struct {
	issuer              *token.Issuer
	activeKID           string
	tokenResponseHeader string
	store               credstore.Store
	hasher              *password.Hasher
	audit               *audit.Logger
	csrfGuard           *csrf.Guard
	validate            *validator.Validate

	notices  []Notice
	accounts map[string]Account
	loans    []Loan
	cards    []Card
}

// NewHandlers wires the sample endpoints.
func NewHandlers(
	issuer *token.Issuer,
	activeKID string,
	tokenResponseHeader string,
	store credstore.Store,
	hasher *password.Hasher,
	auditLog *audit.Logger,
	csrfGuard *csrf.Guard,
) *Handlers {
	return &Handlers{
		issuer:              issuer,
		activeKID:           activeKID,
		tokenResponseHeader: tokenResponseHeader,
		store:               store,
		hasher:              hasher,
		audit:               auditLog,
		csrfGuard:           csrfGuard,
		validate:            validator.New(),
		notices: []Notice{
			{ID: 1, Subject: "Scheduled maintenance", Body: "Online banking is unavailable Sunday 02:00-04:00 UTC."},
			{ID: 2, Subject: "New card designs", Body: "Pick a new look for your debit card in the mobile app."},
		},
		accounts: map[string]Account{
			"alice": {Number: "4532-7711", Owner: "alice", Type: "Savings", Branch: "Downtown"},
			"bob":   {Number: "4532-8842", Owner: "bob", Type: "Checking", Branch: "Uptown"},
		},
		loans: []Loan{
			{ID: 1, Owner: "alice", Type: "Home", Outstanding: 182000},
			{ID: 2, Owner: "bob", Type: "Auto", Outstanding: 9400},
			{ID: 3, Owner: "alice", Type: "Personal", Outstanding: 2100},
		},
		cards: []Card{
			{ID: 1, Owner: "alice", Type: "Credit", Limit: 10000},
			{ID: 2, Owner: "bob", Type: "Credit", Limit: 5000},
		},
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// GetNotices serves the public notice board. It is the one endpoint with a
// relaxed cache policy.
func (h *Handlers) GetNotices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, r, http.StatusOK, h.notices)
}

// ContactRequest is the inbound contact form payload.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
}

// PostContact accepts a contact inquiry from anonymous callers.
func (h *Handlers) PostContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "validation failed"})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"ticket":     fmt.Sprintf("SR-%d", time.Now().UnixNano()%1000000),
		"received":   time.Now().UTC(),
		"subject":    req.Subject,
		"reply_to":   req.Email,
		"registered": true,
	})
}

// RegisterRequest is the inbound self-registration payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// PostRegister creates a credential with the USER authority. The secret is
// hashed with the modern scheme before it reaches the store.
func (h *Handlers) PostRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "validation failed"})
		return
	}

	if _, err := h.store.Lookup(r.Context(), req.Username); err == nil {
		writeJSON(w, r, http.StatusConflict, map[string]string{"error": "principal already exists"})
		return
	} else if !errors.Is(err, credstore.ErrNotFound) {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": "registration unavailable"})
		return
	}

	scheme, hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to hash registration secret")
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	err = h.store.Put(r.Context(), &credstore.Credential{
		PrincipalID: req.Username,
		Scheme:      scheme,
		SecretHash:  hash,
		Authorities: []string{authz.AuthorityUser},
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to store registration")
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]string{"username": req.Username})
}

// GetError is the generic error landing route.
func (h *Handlers) GetError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"message": "An error occurred. Please try again or contact support.",
	})
}

// GetUser returns the caller's identity and issues a fresh session token
// in the configured response header.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	if p == nil {
		WriteAuthenticationFailure(w, r, "")
		return
	}

	raw, err := h.issuer.Issue(p.ID, p.Authorities)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to issue session token")
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "token issuance failed"})
		return
	}

	w.Header().Set(h.tokenResponseHeader, "Bearer "+raw)
	h.audit.RecordTokenIssued(
		audit.Actor{ID: p.ID, Type: "user", Authorities: p.Authorities},
		audit.SourceFromRequest(r),
		h.activeKID,
		logging.RequestIDFromContext(r.Context()),
	)

	writeJSON(w, r, http.StatusOK, p)
}

// PostLogout retires the caller's anti-forgery token and expires the
// cookie. Bearer tokens are stateless and simply age out.
func (h *Handlers) PostLogout(w http.ResponseWriter, r *http.Request) {
	h.csrfGuard.Invalidate(w, r)
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "logged out"})
}

// GetAccount returns the caller's account.
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	if p == nil {
		WriteAuthenticationFailure(w, r, "")
		return
	}
	account, ok := h.accounts[p.ID]
	if !ok {
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "no account on file"})
		return
	}
	writeJSON(w, r, http.StatusOK, account)
}

// GetBalance returns the caller's balance.
func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	if p == nil {
		WriteAuthenticationFailure(w, r, "")
		return
	}
	account, ok := h.accounts[p.ID]
	if !ok {
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "no account on file"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"account": account.Number,
		"balance": 3420.75,
		"as_of":   time.Now().UTC(),
	})
}

// GetLoans returns loans after ownership filtering: users see their own,
// ADMIN sees all. The dropped count feeds the post-filter metric.
func (h *Handlers) GetLoans(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())

	visible := authz.FilterOwned(p, h.loans)
	if dropped := len(h.loans) - len(visible); dropped > 0 {
		authz.PostFilterDropped.Add(float64(dropped))
	}
	if visible == nil {
		visible = []Loan{}
	}
	writeJSON(w, r, http.StatusOK, visible)
}

// GetCards returns the caller's cards.
func (h *Handlers) GetCards(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	if p == nil {
		WriteAuthenticationFailure(w, r, "")
		return
	}

	out := []Card{}
	for _, c := range h.cards {
		if c.Owner == p.ID || p.HasAuthority(authz.AuthorityAdmin) {
			out = append(out, c)
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// GetHealth is the liveness probe.
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
