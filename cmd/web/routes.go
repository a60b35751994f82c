package main

import (
	"fmt"
	"net/http"
)

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				commonContext(app.timeout(next)))))
		}
		noAuth = func(next http.Handler) http.Handler {
			return app.recoverPanic(shared(next))
		}
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.authenticate(shared(next)))))
		}
		mustSession = func(next http.Handler) http.Handler {
			return session(app.mustAuthenticate(next))
		}
	)

	mux.Handle("GET /log/{date}", mustSession(http.HandlerFunc(app.logGET)))
	mux.Handle("POST /log/{date}/exercises/{exerciseID}/sets/{setIndex}",
		mustSession(http.HandlerFunc(app.logSetPOST)))
	mux.Handle("POST /log/{date}/sets", mustSession(http.HandlerFunc(app.logAddExercisePOST)))
	mux.Handle("POST /log/{date}/complete", mustSession(http.HandlerFunc(app.logCompletePOST)))
	mux.Handle("POST /log/{date}/notes", mustSession(http.HandlerFunc(app.logNotesPOST)))

	mux.Handle("GET /plans", mustSession(http.HandlerFunc(app.plansGET)))
	mux.Handle("GET /plans/new", mustSession(http.HandlerFunc(app.planNewGET)))
	mux.Handle("POST /plans", mustSession(http.HandlerFunc(app.planCreatePOST)))
	mux.Handle("POST /plans/generate", mustSession(http.HandlerFunc(app.planGeneratePOST)))
	mux.Handle("POST /plans/{planID}/activate", mustSession(http.HandlerFunc(app.planActivatePOST)))
	mux.Handle("POST /plans/{planID}/delete", mustSession(http.HandlerFunc(app.planDeletePOST)))

	mux.Handle("GET /progress", mustSession(http.HandlerFunc(app.progressGET)))
	mux.Handle("GET /progress/exercises/{exerciseID}", mustSession(http.HandlerFunc(app.exerciseProgressGET)))

	mux.Handle("GET /profile", mustSession(http.HandlerFunc(app.profileGET)))
	mux.Handle("POST /profile", mustSession(http.HandlerFunc(app.profilePOST)))
	mux.Handle("POST /profile/weekly-goal", mustSession(http.HandlerFunc(app.weeklyGoalPOST)))
	mux.Handle("POST /profile/exercises", mustSession(http.HandlerFunc(app.exerciseCreatePOST)))

	mux.Handle("POST /api/sign-in", session(http.HandlerFunc(app.signInPOST)))
	mux.Handle("POST /api/sign-out", session(http.HandlerFunc(app.signOutPOST)))
	mux.Handle("GET /api/healthy", session(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/test/timeout", noAuth(http.HandlerFunc(app.testTimeout)))

	// Home route (most specific)
	mux.Handle("GET /{$}", session(http.HandlerFunc(app.home)))

	// File server with custom 404 handling
	fileServerHandler, err := app.fileServerHandler()
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", fileServerHandler)

	return mux, nil
}
