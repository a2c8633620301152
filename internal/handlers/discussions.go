package handlers

import (
	"net/http"
	"strings"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/sirupsen/logrus"
)

const (
	commentCreatedLayout = "January 02, 2006 03:04 PM"
	commentListLayout    = "Jan 02, 2006"
)

type commentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) discussionsPage(w http.ResponseWriter, r *http.Request) {
	discussions, err := h.store.ListDiscussions(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list discussions: %v", err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not load discussions")
		return
	}
	h.render(w, r, http.StatusOK, "discussions", "Discussions", discussions)
}

func (h *Handler) listDiscussions(w http.ResponseWriter, r *http.Request) {
	discussions, err := h.store.ListDiscussions(r.Context())
	if err != nil {
		logrus.Errorf("Failed to list discussions: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load discussions")
		return
	}
	if discussions == nil {
		discussions = []models.Discussion{}
	}
	respond.Data(w, discussions)
}

func (h *Handler) createDiscussion(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	if title == "" || content == "" {
		respond.Error(w, http.StatusBadRequest, "Title and content are required")
		return
	}

	img, err := readImage(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(r)
	discussion, err := h.store.CreateDiscussion(r.Context(), models.Discussion{
		UserID:       user.ID,
		Title:        title,
		Content:      content,
		Latitude:     optionalFloat(r.FormValue("latitude")),
		Longitude:    optionalFloat(r.FormValue("longitude")),
		LocationName: strings.TrimSpace(r.FormValue("location_name")),
	})
	if err != nil {
		logrus.Errorf("Failed to create discussion for %s: %v", user.Username, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create discussion")
		return
	}

	if img != nil {
		name, err := h.storeImage(r.Context(), "discussions", discussion.ID, img)
		if err == nil {
			err = h.store.SetDiscussionImage(r.Context(), discussion.ID, name)
		}
		if err != nil {
			logrus.Errorf("Failed to attach image to discussion %d: %v", discussion.ID, err)
			if delErr := h.store.DeleteDiscussion(r.Context(), discussion.ID); delErr != nil {
				logrus.Errorf("Failed to roll back discussion %d: %v", discussion.ID, delErr)
			}
			respond.Error(w, http.StatusInternalServerError, "Failed to save image")
			return
		}
	}

	respond.OK(w, respond.Fields{"discussion_id": discussion.ID})
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Discussion not found")
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respond.Error(w, http.StatusBadRequest, "Comment content is required")
		return
	}

	user := currentUser(r)
	comment, err := h.store.AddComment(r.Context(), models.Comment{
		DiscussionID: id,
		UserID:       user.ID,
		Content:      content,
	})
	if err != nil {
		if isNotFound(err) {
			respond.Error(w, http.StatusNotFound, "Discussion not found")
			return
		}
		logrus.Errorf("Failed to add comment to discussion %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	respond.OK(w, respond.Fields{
		"comment_id": comment.ID,
		"username":   user.Username,
		"content":    comment.Content,
		"created_at": comment.CreatedAt.Format(commentCreatedLayout),
	})
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Discussion not found")
		return
	}
	if _, err := h.store.GetDiscussion(r.Context(), id); err != nil {
		if isNotFound(err) {
			respond.Error(w, http.StatusNotFound, "Discussion not found")
			return
		}
		logrus.Errorf("Failed to load discussion %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	comments, err := h.store.ListComments(r.Context(), id)
	if err != nil {
		logrus.Errorf("Failed to list comments for discussion %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentResponse{
			ID:        c.ID,
			Username:  c.Username,
			Content:   c.Content,
			CreatedAt: c.CreatedAt.Format(commentListLayout),
		})
	}
	respond.OK(w, respond.Fields{"comments": out})
}

func (h *Handler) toggleUpvote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Discussion not found")
		return
	}

	upvoted, count, err := h.store.ToggleLike(r.Context(), id, currentUser(r).ID)
	if err != nil {
		if isNotFound(err) {
			respond.Error(w, http.StatusNotFound, "Discussion not found")
			return
		}
		logrus.Errorf("Failed to toggle upvote on discussion %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update upvote")
		return
	}

	respond.OK(w, respond.Fields{"upvoted": upvoted, "upvotes_count": count})
}

func (h *Handler) deleteDiscussion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Discussion not found")
		return
	}

	discussion, err := h.store.GetDiscussion(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			respond.Error(w, http.StatusNotFound, "Discussion not found")
			return
		}
		logrus.Errorf("Failed to load discussion %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to delete discussion")
		return
	}

	user := currentUser(r)
	if !user.IsStaff && user.ID != discussion.UserID {
		respond.Error(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if err := h.store.DeleteDiscussion(r.Context(), id); err != nil {
		if isNotFound(err) {
			respond.Error(w, http.StatusNotFound, "Discussion not found")
			return
		}
		logrus.Errorf("Failed to delete discussion %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to delete discussion")
		return
	}

	if discussion.Image != "" {
		if err := h.media.Delete(r.Context(), discussion.Image); err != nil {
			logrus.Warnf("Failed to delete image %s: %v", discussion.Image, err)
		}
	}
	logrus.Infof("Discussion %d deleted by %s", id, user.Username)
	respond.OK(w, nil)
}
