package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/sirupsen/logrus"
)

const defaultLanding = "/discussions/"

type formPage struct {
	Error string
	Next  string
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", "Log in", formPage{Next: safeNext(r.URL.Query().Get("next"))})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login", "Log in", formPage{Error: "Invalid form submission"})
		return
	}
	next := safeNext(r.PostFormValue("next"))

	user, err := h.auth.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			logrus.Errorf("Login failed: %v", err)
		}
		h.render(w, r, http.StatusUnauthorized, "login", "Log in", formPage{Error: "Invalid username or password", Next: next})
		return
	}

	if err := h.auth.Login(w, r, user); err != nil {
		logrus.Errorf("Failed to save session for %s: %v", user.Username, err)
		h.renderError(w, r, http.StatusInternalServerError, "Could not start your session")
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Register", formPage{})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "register", "Register", formPage{Error: "Invalid form submission"})
		return
	}
	if r.PostFormValue("password") != r.PostFormValue("confirm_password") {
		h.render(w, r, http.StatusBadRequest, "register", "Register", formPage{Error: "Passwords do not match"})
		return
	}

	user, err := h.auth.Register(r.Context(), auth.Registration{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
	})
	if err != nil {
		status, message := http.StatusBadRequest, err.Error()
		switch {
		case errors.Is(err, store.ErrConflict):
			message = "A user with that username already exists"
		case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrUsernameRequired):
		default:
			logrus.Errorf("Registration failed: %v", err)
			status, message = http.StatusInternalServerError, "Registration failed. Please try again."
		}
		h.render(w, r, status, "register", "Register", formPage{Error: message})
		return
	}

	logrus.Infof("Registered user %s", user.Username)
	if err := h.auth.Login(w, r, user); err != nil {
		logrus.Errorf("Failed to save session for %s: %v", user.Username, err)
	}
	http.Redirect(w, r, defaultLanding, http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(w, r); err != nil {
		logrus.Errorf("Failed to clear session: %v", err)
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// safeNext only allows local redirect targets
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLanding
	}
	return next
}
