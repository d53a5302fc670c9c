package httpapi

import (
	"net/http"
	"strings"
	"time"

	"intelhub.dev/internal/audit"
)

type tokenRequest struct {
	User  string   `json:"user"`
	Roles []string `json:"roles"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if a.tokens == nil {
		writeError(w, r, http.StatusServiceUnavailable, "token issuance disabled")
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user := strings.TrimSpace(req.User)
	if user == "" {
		writeError(w, r, http.StatusBadRequest, "user is required")
		return
	}
	if len(req.Roles) == 0 {
		writeError(w, r, http.StatusBadRequest, "roles are required")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user, req.Roles, a.tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	_ = audit.Record(r.Context(), audit.Entry{
		Action: "auth.token.issued",
		Details: map[string]any{
			"user":       user,
			"roles":      req.Roles,
			"expires_at": expiresAt.Format(time.RFC3339),
		},
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}
