package api

import (
	"net/http"
	"strconv"

	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/scoring"
	"github.com/okian/merch/internal/domain/types"
)

// rankingsResponse is the body of GET /rankings/{touchpoint}. Breakdowns
// are only filled when explain=true.
type rankingsResponse struct {
	types.Rankings
	Breakdowns map[string]scoring.Breakdown `json:"score_breakdowns,omitempty"`
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, ErrBadRequest
	}
	return b, nil
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	force, err := queryBool(r, "force_refresh")
	if err != nil {
		s.fail(w, r, NewKind(op, err))
		return
	}
	explain, err := queryBool(r, "explain")
	if err != nil {
		s.fail(w, r, NewKind(op, err))
		return
	}

	rankings, err := s.deps.Rankings(r.Context(), r.PathValue("touchpoint"), force)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	resp := rankingsResponse{Rankings: rankings}
	if explain {
		resp.Breakdowns = make(map[string]scoring.Breakdown, len(rankings.Products))
		for i := range rankings.Products {
			p := &rankings.Products[i].Product
			resp.Breakdowns[p.Name] = scoring.Score(p)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analytics"
	a, err := s.deps.Analytics(r.Context(), r.PathValue("touchpoint"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_performance"
	report, err := s.deps.Performance(r.Context(), r.PathValue("touchpoint"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTouchpoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_touchpoints"
	ids := s.deps.Touchpoints()
	out := make([]model.TouchpointConfig, 0, len(ids))
	for _, id := range ids {
		cfg, err := s.deps.Config(r.Context(), id)
		if err != nil {
			s.fail(w, r, Wrap(op, err))
			return
		}
		out = append(out, cfg)
	}
	writeJSON(w, http.StatusOK, out)
}
