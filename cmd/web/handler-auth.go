package main

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
)

// signInPOST signs the user in by email, creating the account on first use.
func (app *application) signInPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.PostForm.Get("email")))
	if _, err := mail.ParseAddress(email); err != nil {
		http.Error(w, "invalid email address", http.StatusUnprocessableEntity)
		return
	}

	userID, err := app.workoutService.EnsureUser(r.Context(), email)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("ensure user: %w", err))
		return
	}

	// Renew the session token on privilege change to prevent session fixation.
	if err = app.sessionManager.RenewToken(r.Context()); err != nil {
		app.serverError(w, r, fmt.Errorf("renew session token: %w", err))
		return
	}
	app.sessionManager.Put(r.Context(), sessionKeyUserID, userID)

	redirect(w, r, "/")
}

func (app *application) signOutPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		app.serverError(w, r, fmt.Errorf("renew session token: %w", err))
		return
	}
	app.sessionManager.Remove(r.Context(), sessionKeyUserID)

	redirect(w, r, "/")
}
