package handlers

import (
	"net/http"
	"strings"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/sirupsen/logrus"
)

type complaintView struct {
	models.Complaint
	ImageURL string `json:"image_url,omitempty"`
}

type statusRequest struct {
	Status models.ComplaintStatus `json:"status"`
}

func complaintViews(complaints []models.Complaint) []complaintView {
	out := make([]complaintView, 0, len(complaints))
	for _, c := range complaints {
		out = append(out, complaintView{Complaint: c, ImageURL: mediaURL(c.Image)})
	}
	return out
}

func (h *Handler) createComplaint(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respond.Error(w, http.StatusBadRequest, "Title is required")
		return
	}
	complaintType := models.ComplaintType(strings.ToUpper(strings.TrimSpace(r.FormValue("complaint_type"))))
	if !complaintType.Valid() {
		respond.Error(w, http.StatusBadRequest, "Invalid complaint type")
		return
	}
	lat, lng := optionalFloat(r.FormValue("latitude")), optionalFloat(r.FormValue("longitude"))
	if lat == nil || lng == nil {
		respond.Error(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}

	img, err := readImage(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(r)
	complaint, err := h.store.CreateComplaint(r.Context(), models.Complaint{
		UserID:        user.ID,
		Title:         title,
		Description:   strings.TrimSpace(r.FormValue("description")),
		ComplaintType: complaintType,
		Latitude:      *lat,
		Longitude:     *lng,
		Status:        models.ComplaintPending,
	})
	if err != nil {
		logrus.Errorf("Failed to create complaint for %s: %v", user.Username, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to submit complaint")
		return
	}

	if img != nil {
		name, err := h.storeImage(r.Context(), "complaints", complaint.ID, img)
		if err == nil {
			err = h.store.SetComplaintImage(r.Context(), complaint.ID, name)
		}
		if err != nil {
			// The complaint stays without its photo
			logrus.Errorf("Failed to attach image to complaint %d: %v", complaint.ID, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"complaint": complaint.ID,
		"type":      complaint.ComplaintType,
		"user":      user.Username,
	}).Info("Complaint submitted")
	respond.OK(w, respond.Fields{"complaint_id": complaint.ID})
}

func (h *Handler) myComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.store.ListComplaints(r.Context(), currentUser(r).ID)
	if err != nil {
		logrus.Errorf("Failed to list complaints: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load complaints")
		return
	}
	respond.OK(w, respond.Fields{"complaints": complaintViews(complaints)})
}

// listComplaints returns every citizen's complaints, optionally one status
func (h *Handler) listComplaints(w http.ResponseWriter, r *http.Request) {
	status := models.ComplaintStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		respond.Error(w, http.StatusBadRequest, "Invalid status")
		return
	}

	complaints, err := h.store.ListComplaints(r.Context(), 0)
	if err != nil {
		logrus.Errorf("Failed to list complaints: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load complaints")
		return
	}

	if status != "" {
		var filtered []models.Complaint
		for _, c := range complaints {
			if c.Status == status {
				filtered = append(filtered, c)
			}
		}
		complaints = filtered
	}
	respond.OK(w, respond.Fields{"complaints": complaintViews(complaints)})
}

func (h *Handler) updateComplaintStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Complaint not found")
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !req.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, "Invalid status")
		return
	}

	if err := h.store.UpdateComplaintStatus(r.Context(), id, req.Status); err != nil {
		if isNotFound(err) {
			respond.Error(w, http.StatusNotFound, "Complaint not found")
			return
		}
		logrus.Errorf("Failed to update complaint %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update complaint")
		return
	}

	logrus.Infof("Complaint %d marked %s by %s", id, req.Status, currentUser(r).Username)
	respond.OK(w, respond.Fields{"complaint_id": id, "status": req.Status})
}
