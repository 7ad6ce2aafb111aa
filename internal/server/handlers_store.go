package server

import (
	"net/http"

	"github.com/jonathan/content-studio/internal/logging"
	"github.com/jonathan/content-studio/internal/recipes"
	"github.com/jonathan/content-studio/internal/server/middleware"
	"github.com/jonathan/content-studio/internal/types"
)

// ---------------------------------------------------------------------
// Recipe Handlers
// ---------------------------------------------------------------------

func (s *Server) handleFindRecipes(w http.ResponseWriter, r *http.Request) {
	var req types.FindRecipesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.deps.Recipes == nil {
		s.writeError(w, r, s.missing(FeatureRecipes))
		return
	}

	svc := recipes.NewService(s.deps.Recipes, nil, *logging.FromContext(r.Context()))
	resp, err := svc.Find(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateRecipe(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRecipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.deps.Recipes == nil && len(req.RecipeIDs) > 0 {
		s.writeError(w, r, s.missing(FeatureRecipes))
		return
	}

	client, err := s.client(r, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc := recipes.NewService(s.deps.Recipes, client, *logging.FromContext(r.Context()))
	svc.Usage = s.deps.Usage

	resp, err := svc.Generate(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------
// Travel Preset Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	userPtr := &userID
	if err != nil {
		userPtr = nil
	}

	list, err := s.deps.Presets.List(r.Context(), userPtr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []types.TravelPreset{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"presets": list, "count": len(list)})
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		middleware.Unauthorized(w, r)
		return
	}

	var preset types.TravelPreset
	if err := decodeJSON(w, r, &preset); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.deps.Presets.Create(r.Context(), userID, preset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// ---------------------------------------------------------------------
// Profile Handlers
// ---------------------------------------------------------------------

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		middleware.Unauthorized(w, r)
		return
	}
	if s.deps.Profiles == nil {
		s.writeError(w, r, s.missing(FeatureProfiles))
		return
	}

	profile, err := s.deps.Profiles.GetProfile(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if profile == nil {
		s.writeError(w, r, &ErrNotFound{Resource: "profile"})
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		middleware.Unauthorized(w, r)
		return
	}

	var req types.UpsertProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.deps.Profiles == nil {
		s.writeError(w, r, s.missing(FeatureProfiles))
		return
	}

	profile, err := s.deps.Profiles.UpsertProfile(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}
