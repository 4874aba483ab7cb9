package llm

import (
	"context"
	"strings"
	"testing"
)

func clearAPIKeyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	clearAPIKeyEnv(t)

	_, err := NewClient("")
	if err == nil {
		t.Fatal("Expected error when no API key is configured")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("Expected API key error, got %v", err)
	}
}

func TestNewClientModelSelection(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.GetModelName() != DefaultModel {
		t.Errorf("Expected default model %s, got %s", DefaultModel, client.GetModelName())
	}

	client, err = NewClient("gemini-2.5-pro")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.GetModelName() != "gemini-2.5-pro" {
		t.Errorf("Expected explicit model to win, got %s", client.GetModelName())
	}
}

func TestSendChatMessageRejectsNilSession(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.SendChatMessage(context.Background(), nil, "hello"); err == nil {
		t.Error("Expected error for nil session")
	}
}
