package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/socialstats/engage/internal/core/domain"
	"github.com/socialstats/engage/internal/core/usecase"
)

const maxJSONBodySize = 1 << 20

type Handler struct {
	engagement *usecase.EngagementService
	stats      *usecase.StatsService
	corsOrigin []string
}

func NewHandler(engagement *usecase.EngagementService, stats *usecase.StatsService, corsOrigins []string) *Handler {
	return &Handler{engagement: engagement, stats: stats, corsOrigin: corsOrigins}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if len(h.corsOrigin) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.corsOrigin,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/healthz", h.healthz)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/posts", h.createPost)
		v1.Get("/posts", h.listPosts)
		v1.Get("/posts/{postID}", h.getPost)

		v1.Post("/posts/{postID}/view", h.recordView)
		v1.Post("/posts/{postID}/like", h.setLike)
		v1.Post("/posts/{postID}/comments", h.addComment)
		v1.Get("/posts/{postID}/comments", h.listComments)

		v1.Get("/stats/posts/{postID}", h.postStats)
		v1.Get("/stats/posts/{postID}/dynamics", h.dynamics)
		v1.Get("/stats/top/posts", h.topPosts)
		v1.Get("/stats/top/users", h.topUsers)
	})

	return r
}

type createPostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorID   int64  `json:"creator_id"`
	IsPrivate   bool   `json:"is_private"`
}

type postResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorID   int64  `json:"creator_id"`
	IsPrivate   bool   `json:"is_private"`
	ViewsCount  int64  `json:"views_count"`
	LikesCount  int64  `json:"likes_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type commentResponse struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	UserID    int64  `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type actorRequest struct {
	UserID int64 `json:"user_id"`
}

type likeRequest struct {
	UserID int64 `json:"user_id"`
	IsLike bool  `json:"is_like"`
}

type commentRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.engagement.CreatePost(r.Context(), domain.Post{
		Title:       req.Title,
		Description: req.Description,
		CreatorID:   req.CreatorID,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(post))
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}
	userID := parseInt64Query(r, "user_id", 0)

	post, err := h.engagement.GetPost(r.Context(), postID, userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(post))
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	userID := parseInt64Query(r, "user_id", 0)
	page := int(parseInt64Query(r, "page", 1))
	perPage := int(parseInt64Query(r, "per_page", 10))

	result, err := h.engagement.ListPosts(r.Context(), userID, page, perPage)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	posts := make([]postResponse, 0, len(result.Posts))
	for _, post := range result.Posts {
		posts = append(posts, toPostResponse(post))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":    posts,
		"total":    result.Total,
		"page":     result.Page,
		"per_page": result.PerPage,
	})
}

func (h *Handler) recordView(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.engagement.RecordView(r.Context(), postID, req.UserID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"views_count": result.ViewsCount,
	})
}

func (h *Handler) setLike(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}
	var req likeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.engagement.SetLike(r.Context(), postID, req.UserID, req.IsLike)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"likes_count": result.LikesCount,
	})
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.engagement.AddComment(r.Context(), postID, req.UserID, req.Text)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}
	page := int(parseInt64Query(r, "page", 1))
	perPage := int(parseInt64Query(r, "per_page", 10))

	result, err := h.engagement.ListComments(r.Context(), postID, page, perPage)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	comments := make([]commentResponse, 0, len(result.Comments))
	for _, comment := range result.Comments {
		comments = append(comments, toCommentResponse(comment))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"comments": comments,
		"total":    result.Total,
		"page":     result.Page,
		"per_page": result.PerPage,
	})
}

func (h *Handler) postStats(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.PostStats(r.Context(), postID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"post_id":        stats.PostID,
		"views_count":    stats.ViewsCount,
		"likes_count":    stats.LikesCount,
		"comments_count": stats.CommentsCount,
	})
}

func (h *Handler) dynamics(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	points, err := h.stats.Dynamics(r.Context(), postID, r.URL.Query().Get("metric"), domain.DateRange{
		Start: r.URL.Query().Get("start_date"),
		End:   r.URL.Query().Get("end_date"),
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	daily := make([]map[string]any, 0, len(points))
	for _, point := range points {
		daily = append(daily, map[string]any{"date": point.Date, "count": point.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{"post_id": postID, "daily_stats": daily})
}

func (h *Handler) topPosts(w http.ResponseWriter, r *http.Request) {
	limit := int(parseInt64Query(r, "limit", 0))

	entries, err := h.stats.TopPosts(r.Context(), r.URL.Query().Get("metric"), limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	posts := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		posts = append(posts, map[string]any{"post_id": entry.PostID, "count": entry.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *Handler) topUsers(w http.ResponseWriter, r *http.Request) {
	limit := int(parseInt64Query(r, "limit", 0))

	entries, err := h.stats.TopUsers(r.Context(), r.URL.Query().Get("metric"), limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	users := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		users = append(users, map[string]any{"user_id": entry.UserID, "count": entry.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func toPostResponse(post domain.Post) postResponse {
	return postResponse{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		CreatorID:   post.CreatorID,
		IsPrivate:   post.IsPrivate,
		ViewsCount:  post.ViewsCount,
		LikesCount:  post.LikesCount,
		CreatedAt:   post.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   post.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toCommentResponse(comment domain.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func parsePostID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "postID")
	postID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || postID <= 0 {
		writeError(w, http.StatusBadRequest, "post id must be a positive integer")
		return 0, false
	}
	return postID, true
}

func parseInt64Query(r *http.Request, name string, fallback int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmptyComment),
		errors.Is(err, domain.ErrInvalidPost),
		errors.Is(err, domain.ErrInvalidMetric),
		errors.Is(err, domain.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPrivatePost):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}
