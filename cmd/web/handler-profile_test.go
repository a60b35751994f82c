package main

import (
	"strings"
	"testing"
	"time"

	"github.com/myrjola/liftlog/internal/e2etest"
	"github.com/myrjola/liftlog/internal/testhelpers"
)

func Test_application_profile(t *testing.T) {
	ctx := t.Context()
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv, run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	client := server.Client()
	if _, err = client.SignIn(ctx, "athlete@example.com"); err != nil {
		t.Fatalf("Failed to sign in: %v", err)
	}

	doc, err := client.GetDoc(ctx, "/profile")
	if err != nil {
		t.Fatalf("Failed to get profile page: %v", err)
	}

	t.Run("Update settings", func(t *testing.T) {
		doc, err = client.SubmitForm(ctx, doc, "/profile", map[string]string{
			"Display name": "Alice",
			"Units":        "lb",
			"Goals":        "Get strong",
		})
		if err != nil {
			t.Fatalf("Failed to update profile: %v", err)
		}

		if value, _ := doc.Find("input#display-name").Attr("value"); value != "Alice" {
			t.Errorf("Expected display name Alice, got %q", value)
		}
		if doc.Find("select#units option[value='lb'][selected]").Length() != 1 {
			t.Error("Expected pounds to be selected")
		}
		// The goals render as markdown below the form.
		if got := doc.Find("div.goals-preview").Text(); !strings.Contains(got, "Get strong") {
			t.Errorf("Expected goals preview, got %q", got)
		}
	})

	t.Run("Set weekly goal", func(t *testing.T) {
		doc, err = client.SubmitForm(ctx, doc, "/profile/weekly-goal", map[string]string{
			"Weekly goal": "5",
		})
		if err != nil {
			t.Fatalf("Failed to set weekly goal: %v", err)
		}

		if value, _ := doc.Find("input#weekly-goal").Attr("value"); value != "5" {
			t.Errorf("Expected weekly goal 5, got %q", value)
		}
	})

	t.Run("Add a custom exercise", func(t *testing.T) {
		if _, err = client.SubmitForm(ctx, doc, "/profile/exercises", map[string]string{
			"Name":         "Sled Push",
			"Muscle group": "Legs",
			"Equipment":    "Sled",
		}); err != nil {
			t.Fatalf("Failed to add exercise: %v", err)
		}

		// The custom exercise shows up in the log page's picker.
		logDoc, logErr := client.GetDoc(ctx, "/log/"+time.Now().Format(time.DateOnly))
		if logErr != nil {
			t.Fatalf("Failed to get log page: %v", logErr)
		}
		if logDoc.Find("select#exercise-select option:contains('Sled Push')").Length() != 1 {
			t.Error("Expected the custom exercise in the picker")
		}
	})

	t.Run("No achievements for a new account", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, "/profile"); err != nil {
			t.Fatalf("Failed to reload profile: %v", err)
		}
		if got := doc.Find("section.achievements").Text(); !strings.Contains(got, "No achievements yet") {
			t.Errorf("Expected the empty achievements state, got %q", got)
		}
	})
}
