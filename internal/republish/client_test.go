package republish_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"packmule/internal/republish"
)

func TestHTTPClientUploadsMultipartPack(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotManifest map[string]any
	var gotParts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/packs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if err := json.Unmarshal([]byte(r.FormValue("manifest")), &gotManifest); err != nil {
			t.Errorf("parse manifest: %v", err)
		}
		for range r.MultipartForm.File {
			gotParts++
		}
		json.NewEncoder(w).Encode(republish.Receipt{PackID: "id1", PackKey: "key1"})
	}))
	defer server.Close()

	client := republish.NewHTTPClientWithDoer(server.URL, "secret", server.Client())
	receipt, err := client.UploadPack(context.Background(), &republish.Pack{
		Title:  "Animals",
		Author: "Jo",
		Cover:  []byte("cover"),
		Stickers: []republish.Sticker{
			{Emoji: "🐶", Image: []byte("a")},
			{Emoji: "🐱", Image: []byte("b")},
		},
	})
	if err != nil {
		t.Fatalf("UploadPack: %v", err)
	}
	if receipt.PackID != "id1" || receipt.PackKey != "key1" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotManifest["title"] != "Animals" || gotManifest["author"] != "Jo" {
		t.Fatalf("manifest = %v", gotManifest)
	}
	if emojis, ok := gotManifest["emojis"].([]any); !ok || len(emojis) != 2 {
		t.Fatalf("manifest emojis = %v", gotManifest["emojis"])
	}
	// Cover plus one part per sticker.
	if gotParts != 3 {
		t.Fatalf("file parts = %d, want 3", gotParts)
	}
}

func TestHTTPClientSurfacesRemoteErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := republish.NewHTTPClientWithDoer(server.URL, "secret", server.Client())
	_, err := client.UploadPack(context.Background(), &republish.Pack{
		Cover:    []byte("c"),
		Stickers: []republish.Sticker{{Emoji: "🐶", Image: []byte("a")}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error = %v", err)
	}
}

func TestHTTPClientRejectsIncompleteReceipt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"pack_id": "onlyhalf"})
	}))
	defer server.Close()

	client := republish.NewHTTPClientWithDoer(server.URL, "secret", server.Client())
	_, err := client.UploadPack(context.Background(), &republish.Pack{
		Cover:    []byte("c"),
		Stickers: []republish.Sticker{{Emoji: "🐶", Image: []byte("a")}},
	})
	if err == nil {
		t.Fatal("expected error for incomplete receipt")
	}
}
