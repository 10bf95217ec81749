package api

import (
	"net/http"
	"strings"

	"github.com/okian/merch/internal/domain/ranking"
)

type overrideRequest struct {
	ProductName string `json:"product_name"`
	Position    int    `json:"position"`
}

type productRequest struct {
	ProductName string `json:"product_name"`
}

type boostRequest struct {
	ProductName string  `json:"product_name"`
	Multiplier  float64 `json:"multiplier"`
}

type overridesResponse struct {
	TouchpointID string             `json:"touchpoint_id"`
	Overrides    []ranking.Override `json:"overrides"`
}

func productName(op, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", WrapKind(op, ErrMissingField, errMissingProduct)
	}
	return name, nil
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_overrides"
	id := r.PathValue("touchpoint")
	overrides, err := s.deps.Overrides(r.Context(), id)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, overridesResponse{TouchpointID: id, Overrides: overrides})
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_override"
	var req overrideRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	name, err := productName(op, req.ProductName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.SetOverride(r.Context(), r.PathValue("touchpoint"), name, req.Position); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "override_set"})
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_override"
	name, err := productName(op, r.PathValue("product"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.ClearOverride(r.Context(), r.PathValue("touchpoint"), name); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "override_cleared"})
}

func (s *Server) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	const op = "api.blacklist"
	var req productRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	name, err := productName(op, req.ProductName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Blacklist(r.Context(), r.PathValue("touchpoint"), name); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "blacklisted"})
}

func (s *Server) handleUpdateWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_weights"
	var updates map[string]float64
	if err := s.decodeJSON(w, r, &updates); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if err := s.deps.UpdateWeights(r.Context(), r.PathValue("touchpoint"), updates); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "weights_updated"})
}

func (s *Server) handleSeasonalBoost(w http.ResponseWriter, r *http.Request) {
	const op = "api.seasonal_boost"
	var req boostRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	name, err := productName(op, req.ProductName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.SetSeasonalBoost(r.Context(), r.PathValue("touchpoint"), name, req.Multiplier); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "boost_set"})
}
