package handler

import (
	"net/http"
	"net/url"

	"github.com/bcnelson/cidr-group-central/internal/domain"
	"github.com/bcnelson/cidr-group-central/internal/registry"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
)

// GroupHandler handles CIDR group endpoints.
type GroupHandler struct {
	registry *registry.Registry
	logger   *log.Logger
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(reg *registry.Registry, logger *log.Logger) *GroupHandler {
	return &GroupHandler{registry: reg, logger: logger}
}

// groupName extracts the {name} URL parameter.
func groupName(r *http.Request) string {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		return chi.URLParam(r, "name")
	}
	return name
}

// Create creates a new CIDR group.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	group, err := h.registry.Create(r.Context(), req.Name, req.Description, req.CIDR)
	if err != nil {
		h.logFailure(r, "create", req.Name, err)
		handleError(w, err)
		return
	}

	h.logger.Info("group created", "name", group.Name, "cidr", group.CIDR)
	SetGroupETag(w, group)
	w.Header().Set("Location", r.URL.Path+"/"+url.PathEscape(group.Name))
	respondJSON(w, http.StatusCreated, group)
}

// List lists all CIDR groups ordered by name.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.registry.List(r.Context())
	if err != nil {
		h.logFailure(r, "list", "", err)
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, groups)
}

// Get gets a CIDR group by name.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := groupName(r)

	group, err := h.registry.Get(r.Context(), name)
	if err != nil {
		h.logFailure(r, "get", name, err)
		handleError(w, err)
		return
	}

	SetGroupETag(w, group)
	respondJSON(w, http.StatusOK, group)
}

// Update updates the description and/or CIDR of a group.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := groupName(r)

	var req domain.UpdateGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	if r.Header.Get("If-Match") != "" {
		current, err := h.registry.Get(r.Context(), name)
		if err != nil {
			handleError(w, err)
			return
		}
		if !CheckGroupIfMatch(r, current) {
			RespondPreconditionFailed(w, current)
			return
		}
	}

	group, err := h.registry.Update(r.Context(), name, req.Description, req.CIDR)
	if err != nil {
		h.logFailure(r, "update", name, err)
		handleError(w, err)
		return
	}

	h.logger.Info("group updated", "name", group.Name, "cidr", group.CIDR)
	SetGroupETag(w, group)
	respondJSON(w, http.StatusOK, group)
}

// Delete deletes a CIDR group.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := groupName(r)

	if r.Header.Get("If-Match") != "" {
		current, err := h.registry.Get(r.Context(), name)
		if err != nil {
			handleError(w, err)
			return
		}
		if !CheckGroupIfMatch(r, current) {
			RespondPreconditionFailed(w, current)
			return
		}
	}

	if err := h.registry.Delete(r.Context(), name); err != nil {
		h.logFailure(r, "delete", name, err)
		handleError(w, err)
		return
	}

	h.logger.Info("group deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

// logFailure logs store and internal failures; client errors are left to
// the request log.
func (h *GroupHandler) logFailure(r *http.Request, op, name string, err error) {
	if isClientError(err) {
		return
	}
	h.logger.Error("group operation failed", "op", op, "name", name, "path", r.URL.Path, "err", err)
}
