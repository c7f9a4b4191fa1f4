package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/logging"
	"github.com/rushteam/gameark/recommend"
)

// recommendationsResponse 是推荐包响应。
type recommendationsResponse struct {
	*recommend.Bundle
	TotalCount int    `json:"total_count"`
	Status     string `json:"status"`
	SessionID  string `json:"session_id"`
}

type gamesResponse struct {
	Games any    `json:"games"`
	Type  string `json:"type,omitempty"`
	Count int    `json:"count"`
}

type imageResponse struct {
	GameID   int64   `json:"game_id"`
	ImageURL *string `json:"image_url"`
}

type imagesRequest struct {
	GameIDs []int64 `json:"game_ids" validate:"dive,gt=0"`
}

type imagesResponse struct {
	Images    map[string]string `json:"images"`
	Count     int               `json:"count"`
	Requested int               `json:"requested"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) bool {
	if s.engine.Ready() {
		return true
	}
	respondError(w, r, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable, "catalog not loaded"))
	return false
}

// decodeBody 读取并解析 JSON 请求体，空体视为非法输入。
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return invalidInput("read body", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return invalidInput("empty body", nil)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return invalidInput("invalid json", err)
	}
	return nil
}

// POST /api/recommendations
func (s *Server) createRecommendations(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w, r) {
		return
	}
	var prefs core.Preferences
	if err := s.decodeBody(w, r, &prefs); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.validate.Struct(&prefs); err != nil {
		respondError(w, r, err)
		return
	}

	sessionID := SessionFromContext(r.Context())
	b := s.engine.Bundle(r.Context(), sessionID, &prefs)
	logging.Ctx(r.Context()).Info().
		Str("session_id", sessionID).
		Int("main", len(b.Main)).
		Int("more_matches", len(b.MoreMatches)).
		Msg("recommendations generated")

	respondJSON(w, r, http.StatusOK, recommendationsResponse{
		Bundle:     b,
		TotalCount: len(b.Main),
		Status:     "success",
		SessionID:  sessionID,
	})
}

// GET /api/recommendations/last
func (s *Server) lastRecommendations(w http.ResponseWriter, r *http.Request) {
	sessionID := SessionFromContext(r.Context())
	b, err := s.engine.LastBundle(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, recommendationsResponse{
		Bundle:     b,
		TotalCount: len(b.Main),
		Status:     "success",
		SessionID:  sessionID,
	})
}

// GET /api/games/classic
func (s *Server) classicGames(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w, r) {
		return
	}
	games := s.engine.Classic(r.Context(), 0)
	respondJSON(w, r, http.StatusOK, gamesResponse{Games: games, Count: len(games)})
}

// GET /api/games/more?type=rating|newest|matches|popular&limit=
func (s *Server) moreGames(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w, r) {
		return
	}
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, invalidInput("invalid limit", err))
			return
		}
		limit = n
	}
	games, kind, err := s.engine.MoreGames(r.Context(), SessionFromContext(r.Context()), q.Get("type"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, gamesResponse{Games: games, Type: kind, Count: len(games)})
}

// GET /api/games/{id}/image
func (s *Server) gameImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, invalidInput("invalid game id", err))
		return
	}
	if s.images == nil {
		respondJSON(w, r, http.StatusNotFound, imageResponse{GameID: id})
		return
	}
	u, err := s.images.ImageURL(r.Context(), id)
	switch {
	case err == nil:
		respondJSON(w, r, http.StatusOK, imageResponse{GameID: id, ImageURL: &u})
	case core.IsNotFound(err):
		respondJSON(w, r, http.StatusNotFound, imageResponse{GameID: id})
	default:
		respondError(w, r, err)
	}
}

// POST /api/games/images，超过批量上限的 id 被忽略
func (s *Server) gameImages(w http.ResponseWriter, r *http.Request) {
	var req imagesRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	resp := imagesResponse{Images: map[string]string{}}
	if s.images == nil || len(req.GameIDs) == 0 {
		respondJSON(w, r, http.StatusOK, resp)
		return
	}
	ids := req.GameIDs
	if n := s.images.MaxBatch(); len(ids) > n {
		ids = ids[:n]
	}
	for id, u := range s.images.ImageURLs(r.Context(), ids) {
		resp.Images[strconv.FormatInt(id, 10)] = u
	}
	resp.Count = len(resp.Images)
	resp.Requested = len(ids)
	respondJSON(w, r, http.StatusOK, resp)
}
