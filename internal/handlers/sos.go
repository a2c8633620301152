package handlers

import (
	"net/http"
	"strings"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/civicconnect/civic-services/internal/sos"
	"github.com/sirupsen/logrus"
)

type emergencyPage struct {
	MapsKey string
	History []models.EmergencyRequest
}

func (h *Handler) sosPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	history, err := h.sos.History(ctx, currentUser(r))
	if err != nil {
		logrus.Errorf("Failed to load emergency history: %v", err)
	}
	h.render(w, r, http.StatusOK, "sos", "Emergency assistance", emergencyPage{
		MapsKey: h.sos.PageKey(ctx),
		History: history,
	})
}

func (h *Handler) submitSOS(w http.ResponseWriter, r *http.Request) {
	var req sos.Request
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.EmergencyType = models.EmergencyType(strings.ToUpper(strings.TrimSpace(string(req.EmergencyType))))
	if !req.EmergencyType.Valid() {
		respond.Error(w, http.StatusBadRequest, "Invalid emergency type")
		return
	}

	resp, err := h.sos.Submit(r.Context(), currentUser(r), req)
	if err != nil {
		logrus.Errorf("Emergency submission error: %v", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond.OK(w, respond.Fields{
		"ai_response":      resp.AIResponse,
		"nearest_facility": resp.NearestFacility,
	})
}

func (h *Handler) sosHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.sos.History(r.Context(), currentUser(r))
	if err != nil {
		logrus.Errorf("Failed to load emergency history: %v", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load emergency history")
		return
	}
	if history == nil {
		history = []models.EmergencyRequest{}
	}
	respond.OK(w, respond.Fields{"requests": history})
}
