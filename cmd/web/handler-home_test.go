package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/liftlog/internal/e2etest"
	"github.com/myrjola/liftlog/internal/testhelpers"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "LIFTLOG_SQLITE_URL":
		return ":memory:", true
	case "LIFTLOG_ADDR":
		return "localhost:0", true
	default:
		return "", false
	}
}

func Test_application_home(t *testing.T) {
	var (
		ctx = t.Context()
		doc *goquery.Document
	)
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	client := server.Client()

	t.Run("Initial state", func(t *testing.T) {
		doc, err = client.GetDoc(ctx, "/")
		if err != nil {
			t.Fatalf("Failed to get document: %v", err)
		}

		checkButtonPresence(t, doc, "Sign in", 1)
	})

	t.Run("After sign-in", func(t *testing.T) {
		doc, err = client.SignIn(ctx, "athlete@example.com")
		if err != nil {
			t.Fatalf("Failed to sign in: %v", err)
		}

		checkButtonPresence(t, doc, "Sign in", 0)
		if doc.Find("a:contains('Log workout')").Length() != 1 {
			t.Error("Expected a 'Log workout' link on the authenticated front page")
		}
		if !strings.Contains(doc.Find("section.streak h1").Text(), "0 day streak") {
			t.Errorf("Expected a fresh streak banner, got %q", doc.Find("section.streak h1").Text())
		}
	})

	t.Run("After sign-out", func(t *testing.T) {
		doc, err = client.SignOut(ctx)
		if err != nil {
			t.Fatalf("Failed to sign out: %v", err)
		}

		checkButtonPresence(t, doc, "Sign in", 1)
	})

	t.Run("Sign-in restores the account", func(t *testing.T) {
		doc, err = client.SignIn(ctx, "athlete@example.com")
		if err != nil {
			t.Fatalf("Failed to sign in again: %v", err)
		}

		checkButtonPresence(t, doc, "Sign in", 0)
	})
}

func Test_mustAuthenticate_redirectsToFrontPage(t *testing.T) {
	ctx := t.Context()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	client := server.Client()

	// The client follows the redirect, so a guarded path lands on the
	// anonymous front page.
	for _, path := range []string{"/log/2026-03-02", "/plans", "/progress", "/profile"} {
		doc, err := client.GetDoc(ctx, path)
		if err != nil {
			t.Fatalf("Failed to get %s: %v", path, err)
		}
		checkButtonPresence(t, doc, "Sign in", 1)
	}
}

func checkButtonPresence(t *testing.T, doc *goquery.Document, buttonText string, expectedCount int) {
	t.Helper()
	count := doc.Find("button:contains('" + buttonText + "')").Length()
	if count != expectedCount {
		t.Errorf("Expected %d '%s' button(s), but found %d", expectedCount, buttonText, count)
	}
}

func Test_crossOriginProtection(t *testing.T) {
	ctx := t.Context()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	// A malicious client sends cross-origin fetch metadata on every request.
	maliciousClient, err := e2etest.NewClientWithSecFetchSite(server.URL(), "cross-site")
	if err != nil {
		t.Fatalf("Failed to create malicious client: %v", err)
	}

	doc, err := maliciousClient.GetDoc(ctx, "/")
	if err != nil {
		t.Fatalf("Failed to get home page: %v", err)
	}

	_, err = maliciousClient.SubmitForm(ctx, doc, "/api/sign-in", map[string]string{
		"Email": "attacker@example.com",
	})
	if err == nil {
		t.Error("Expected cross-origin form submission to be blocked, but it succeeded")
	}
	if !containsStatusError(err, 403) && !containsStatusError(err, 400) {
		t.Errorf("Expected status error 403 or 400 for blocked request, got: %v", err)
	}
}

// containsStatusError checks if the error contains a specific HTTP status code.
func containsStatusError(err error, statusCode int) bool {
	return err != nil &&
		(err.Error() == fmt.Sprintf("unexpected status code: %d", statusCode) ||
			strings.Contains(err.Error(), fmt.Sprintf("status code: %d", statusCode)))
}
