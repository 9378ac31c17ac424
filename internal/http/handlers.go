package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
	"github.com/freelanceflow/api/internal/service/activity"
	"github.com/freelanceflow/api/internal/service/auth"
	"github.com/freelanceflow/api/internal/service/client"
	"github.com/freelanceflow/api/internal/service/invoice"
	"github.com/freelanceflow/api/internal/service/project"
	"github.com/freelanceflow/api/internal/service/timeentry"
	"github.com/freelanceflow/api/internal/ws"
)

const sseHeartbeatInterval = 25 * time.Second

func decodeJSON(req *http.Request, dst any) error {
	defer req.Body.Close()
	return json.NewDecoder(req.Body).Decode(dst)
}

func userPayload(user *domain.User) map[string]any {
	return map[string]any{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"createdAt": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func clientPayload(c *domain.Client) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"contactName": c.ContactName,
		"email":       c.Email,
		"phone":       c.Phone,
		"website":     c.Website,
		"address":     c.Address,
		"status":      c.Status,
		"description": c.Description,
		"avatar":      c.Avatar,
		"createdAt":   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func projectPayload(p *domain.Project) map[string]any {
	var deadline any
	if p.Deadline != nil {
		deadline = p.Deadline.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"id":        p.ID,
		"clientId":  p.ClientID,
		"name":      p.Name,
		"status":    p.Status,
		"progress":  p.Progress,
		"deadline":  deadline,
		"createdAt": p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func invoicePayload(inv *domain.Invoice) map[string]any {
	var projectID any
	if inv.ProjectID != nil {
		projectID = *inv.ProjectID
	}
	return map[string]any{
		"id":        inv.ID,
		"clientId":  inv.ClientID,
		"projectId": projectID,
		"number":    inv.Number,
		"status":    inv.Status,
		"date":      inv.Date.UTC().Format(time.RFC3339),
		"dueDate":   inv.DueDate.UTC().Format(time.RFC3339),
		"total":     inv.Total,
		"createdAt": inv.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func timeEntryPayload(entry *domain.TimeEntry) map[string]any {
	var stoppedAt any
	if entry.StoppedAt != nil {
		stoppedAt = entry.StoppedAt.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"id":              entry.ID,
		"userId":          entry.UserID,
		"projectId":       entry.ProjectID,
		"description":     entry.Description,
		"startedAt":       entry.StartedAt.UTC().Format(time.RFC3339),
		"stoppedAt":       stoppedAt,
		"durationSeconds": entry.DurationSeconds,
		"createdAt":       entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(req, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if !strings.Contains(body.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}
	if len(body.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	user, err := r.auth.Register(req.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    userPayload(user),
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(req, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, token, err := r.auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		r.internalError(w, req, err)
		return
	}
	http.SetCookie(w, r.sessionCookie(token))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    userPayload(user),
	})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	http.SetCookie(w, r.expiredSessionCookie())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleMe reports the verified identity behind the session cookie.
// Unauthenticated callers get a JSON null body so clients can treat the
// response uniformly.
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	session, err := r.auth.Resolve(req.Context(), r.sessionToken(req), true)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    session.UserID,
		"email": session.Email,
		"name":  session.Name,
		"role":  session.Role,
	})
}

func (r *Router) handleClients(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		filter := repository.ClientFilter{
			Status: strings.TrimSpace(req.URL.Query().Get("status")),
			Search: strings.TrimSpace(req.URL.Query().Get("search")),
		}
		summaries, err := r.clients.List(req.Context(), filter)
		if err != nil {
			r.internalError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	case http.MethodPost:
		var input client.Input
		if err := decodeJSON(req, &input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := r.clients.Create(req.Context(), input)
		if err != nil {
			switch {
			case errors.Is(err, client.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, client.ErrEmailTaken):
				writeError(w, http.StatusConflict, client.ErrEmailTaken.Error())
			default:
				r.internalError(w, req, err)
			}
			return
		}
		writeJSON(w, http.StatusCreated, clientPayload(created))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleClientByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/api/clients/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		detail, err := r.clients.Get(req.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "client not found")
				return
			}
			r.internalError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	case http.MethodPut:
		var input client.Input
		if err := decodeJSON(req, &input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		updated, err := r.clients.Update(req.Context(), id, input)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				writeError(w, http.StatusNotFound, "client not found")
			case errors.Is(err, client.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, client.ErrEmailTaken):
				writeError(w, http.StatusBadRequest, client.ErrEmailTaken.Error())
			default:
				r.internalError(w, req, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, clientPayload(updated))
	case http.MethodDelete:
		err := r.clients.Delete(req.Context(), id)
		if err != nil {
			var hasRelations client.ErrHasRelations
			switch {
			case errors.Is(err, repository.ErrNotFound):
				writeError(w, http.StatusNotFound, "client not found")
			case errors.As(err, &hasRelations):
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error": hasRelations.Error(),
					"details": map[string]int{
						"projects": hasRelations.Projects,
						"invoices": hasRelations.Invoices,
					},
				})
			default:
				r.internalError(w, req, err)
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProjects(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		clientID := strings.TrimSpace(req.URL.Query().Get("clientId"))
		projects, err := r.projects.List(req.Context(), clientID)
		if err != nil {
			r.internalError(w, req, err)
			return
		}
		payload := make([]map[string]any, 0, len(projects))
		for i := range projects {
			payload = append(payload, projectPayload(&projects[i]))
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodPost:
		var input project.CreateInput
		if err := decodeJSON(req, &input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := r.projects.Create(req.Context(), input)
		if err != nil {
			if errors.Is(err, project.ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			r.internalError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, projectPayload(created))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProjectByID(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(req.URL.Path, "/api/projects/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	found, err := r.projects.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, projectPayload(found))
}

func (r *Router) handleInvoices(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		filter := repository.InvoiceFilter{
			ClientID: strings.TrimSpace(req.URL.Query().Get("clientId")),
			Status:   strings.TrimSpace(req.URL.Query().Get("status")),
		}
		invoices, err := r.invoices.List(req.Context(), filter)
		if err != nil {
			if errors.Is(err, invoice.ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			r.internalError(w, req, err)
			return
		}
		payload := make([]map[string]any, 0, len(invoices))
		for i := range invoices {
			payload = append(payload, invoicePayload(&invoices[i]))
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodPost:
		var input invoice.CreateInput
		if err := decodeJSON(req, &input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := r.invoices.Create(req.Context(), input)
		if err != nil {
			switch {
			case errors.Is(err, invoice.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, invoice.ErrNumberTaken):
				writeError(w, http.StatusConflict, invoice.ErrNumberTaken.Error())
			default:
				r.internalError(w, req, err)
			}
			return
		}
		writeJSON(w, http.StatusCreated, invoicePayload(created))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleInvoiceByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/api/invoices/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		found, err := r.invoices.Get(req.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "invoice not found")
				return
			}
			r.internalError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, invoicePayload(found))
	case http.MethodPatch, http.MethodPut:
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(req, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		updated, err := r.invoices.UpdateStatus(req.Context(), id, body.Status)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				writeError(w, http.StatusNotFound, "invoice not found")
			case errors.Is(err, invoice.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				r.internalError(w, req, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, invoicePayload(updated))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleTimeEntries(w http.ResponseWriter, req *http.Request) {
	session, ok := sessionFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	switch req.Method {
	case http.MethodGet:
		limit := 0
		if raw := req.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}
		entries, err := r.timeEntries.List(req.Context(), session.UserID, limit)
		if err != nil {
			r.internalError(w, req, err)
			return
		}
		payload := make([]map[string]any, 0, len(entries))
		for i := range entries {
			payload = append(payload, timeEntryPayload(&entries[i]))
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodPost:
		var body struct {
			ProjectID   string `json:"projectId"`
			Description string `json:"description"`
		}
		if err := decodeJSON(req, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		entry, err := r.timeEntries.Start(req.Context(), session.UserID, body.ProjectID, body.Description)
		if err != nil {
			switch {
			case errors.Is(err, timeentry.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, timeentry.ErrTimerRunning):
				writeError(w, http.StatusConflict, timeentry.ErrTimerRunning.Error())
			default:
				r.internalError(w, req, err)
			}
			return
		}
		writeJSON(w, http.StatusCreated, timeEntryPayload(entry))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleTimeEntryByID(w http.ResponseWriter, req *http.Request) {
	session, ok := sessionFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	rest := strings.TrimPrefix(req.URL.Path, "/api/time-entries/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || action != "stop" {
		r.notFound(w)
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	entry, err := r.timeEntries.Stop(req.Context(), session.UserID, id)
	if err != nil {
		switch {
		// Another user's entry reads as missing so ids cannot be probed.
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, timeentry.ErrNotOwner):
			writeError(w, http.StatusNotFound, "time entry not found")
		default:
			r.internalError(w, req, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, timeEntryPayload(entry))
}

func (r *Router) handleActivityWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	hub := r.activity.Hub()
	if hub == nil {
		writeError(w, http.StatusServiceUnavailable, "activity stream unavailable")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	subscriber := ws.NewClient(conn, r.logger)
	hub.Register(activity.Topic, subscriber)
	defer func() {
		hub.Unregister(activity.Topic, subscriber)
		subscriber.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *Router) handleActivitySSE(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	hub := r.activity.Hub()
	if hub == nil {
		writeError(w, http.StatusServiceUnavailable, "activity stream unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	subscriber := ws.NewSSEClient(w, flusher, r.logger)
	hub.Register(activity.Topic, subscriber)
	defer func() {
		hub.Unregister(activity.Topic, subscriber)
		subscriber.Close()
	}()

	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := subscriber.Heartbeat(); err != nil {
				return
			}
		}
	}
}
