package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chirpd/internal/core"

	"github.com/go-chi/chi/v5"
)

const defaultFeedLimit = 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	var validation *core.ValidationError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": validation.Reason})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	case errors.Is(err, core.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]string{"message": "already exists"})
	case errors.Is(err, core.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "store unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
	}
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, core.Invalid("malformed request body"))
		return body, false
	}
	return body, true
}

func chirpID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, core.Invalid("malformed id"))
		return 0, false
	}
	return id, true
}

func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseFeedKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, core.Invalid("limit must be a positive integer"))
			return
		}
	}

	units := s.Assembler.Feed(r.Context(), kind, r.URL.Query().Get("viewer"), limit)
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	includeReplies := r.URL.Query().Get("replies") == "true"
	units := s.Assembler.Timeline(r.Context(), chi.URLParam(r, "id"), includeReplies)
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) getHashtag(w http.ResponseWriter, r *http.Request) {
	units := s.Assembler.ByHashtag(r.Context(), chi.URLParam(r, "tag"))
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) createChirp(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[struct {
		AuthorID      string `json:"authorId"`
		Content       string `json:"content"`
		WeeklySummary bool   `json:"weeklySummary"`
	}](w, r)
	if !ok {
		return
	}

	chirp, err := s.Coordinator.CreateChirp(r.Context(), body.AuthorID, body.Content, body.WeeklySummary)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chirp)
}

func (s *Server) createReply(w http.ResponseWriter, r *http.Request) {
	id, ok := chirpID(w, r)
	if !ok {
		return
	}
	body, ok := decode[struct {
		AuthorID string `json:"authorId"`
		Content  string `json:"content"`
	}](w, r)
	if !ok {
		return
	}

	reply, err := s.Coordinator.Reply(r.Context(), body.AuthorID, id, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (s *Server) deleteChirp(w http.ResponseWriter, r *http.Request) {
	id, ok := chirpID(w, r)
	if !ok {
		return
	}

	if err := s.Coordinator.DeleteChirp(r.Context(), id, r.URL.Query().Get("author")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) react(w http.ResponseWriter, r *http.Request) {
	id, ok := chirpID(w, r)
	if !ok {
		return
	}
	body, ok := decode[struct {
		UserID string `json:"userId"`
		Kind   string `json:"kind"`
	}](w, r)
	if !ok {
		return
	}

	active, err := s.Coordinator.React(r.Context(), id, body.UserID, body.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (s *Server) repost(w http.ResponseWriter, r *http.Request) {
	id, ok := chirpID(w, r)
	if !ok {
		return
	}
	body, ok := decode[struct {
		UserID string `json:"userId"`
	}](w, r)
	if !ok {
		return
	}

	active, err := s.Coordinator.Repost(r.Context(), id, body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) getUserByHandle(w http.ResponseWriter, r *http.Request) {
	user, err := s.Users.GetByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[struct {
		Bio           *string `json:"bio"`
		CustomHandle  *string `json:"customHandle"`
		ProfileImage  *string `json:"profileImageUrl"`
		BannerImage   *string `json:"bannerImageUrl"`
		ShowPlusBadge *bool   `json:"showPlusBadge"`
	}](w, r)
	if !ok {
		return
	}

	fields := map[string]any{}
	if body.Bio != nil {
		fields["bio"] = *body.Bio
	}
	if body.CustomHandle != nil {
		fields["custom_handle"] = *body.CustomHandle
	}
	if body.ProfileImage != nil {
		fields["profile_image"] = *body.ProfileImage
	}
	if body.BannerImage != nil {
		fields["banner_image"] = *body.BannerImage
	}
	if body.ShowPlusBadge != nil {
		fields["show_plus_badge"] = *body.ShowPlusBadge
	}

	if err := s.Coordinator.UpdateProfile(r.Context(), chi.URLParam(r, "id"), fields); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) getUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	chirps, err := s.Chirps.Count(r.Context(), core.ChirpFilter{AuthorID: userID})
	if err != nil {
		writeError(w, err)
		return
	}
	followers, following, err := s.Follows.Counts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"chirpCount":     chirps,
		"followerCount":  followers,
		"followingCount": following,
	})
}

func (s *Server) adjustCrystals(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[struct {
		Delta int64 `json:"delta"`
	}](w, r)
	if !ok {
		return
	}

	user, err := s.Coordinator.AdjustCrystals(r.Context(), chi.URLParam(r, "id"), body.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, core.Invalid("limit must be an integer"))
			return
		}
	}

	list, err := s.Coordinator.ListNotifications(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := chirpID(w, r)
	if !ok {
		return
	}

	if err := s.Coordinator.MarkNotificationRead(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[struct {
		FollowerID string `json:"followerId"`
		FolloweeID string `json:"followeeId"`
	}](w, r)
	if !ok {
		return
	}

	created, err := s.Coordinator.Follow(r.Context(), body.FollowerID, body.FolloweeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"created": created})
}

func (s *Server) unfollow(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[struct {
		FollowerID string `json:"followerId"`
		FolloweeID string `json:"followeeId"`
	}](w, r)
	if !ok {
		return
	}

	if err := s.Coordinator.Unfollow(r.Context(), body.FollowerID, body.FolloweeID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) block(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[struct {
		BlockerID string `json:"blockerId"`
		BlockedID string `json:"blockedId"`
	}](w, r)
	if !ok {
		return
	}

	if err := s.Coordinator.BlockUser(r.Context(), body.BlockerID, body.BlockedID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unblock(w http.ResponseWriter, r *http.Request) {
	body, ok := decode[struct {
		BlockerID string `json:"blockerId"`
		BlockedID string `json:"blockedId"`
	}](w, r)
	if !ok {
		return
	}

	if err := s.Coordinator.UnblockUser(r.Context(), body.BlockerID, body.BlockedID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
