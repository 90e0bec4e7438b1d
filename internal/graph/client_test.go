package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL},
		WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"})),
	)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{TenantID: "tenant"}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestSiteEndpoint(t *testing.T) {
	cases := map[string]string{
		"https://contoso.sharepoint.com/sites/Policies/": "/sites/contoso.sharepoint.com:/sites/Policies",
		"contoso.sharepoint.com":                         "/sites/contoso.sharepoint.com",
	}
	for input, want := range cases {
		got, err := SiteEndpoint(input)
		if err != nil {
			t.Fatalf("SiteEndpoint(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("SiteEndpoint(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := SiteEndpoint(" "); !errors.Is(err, ErrInvalidSiteURL) {
		t.Fatalf("expected ErrInvalidSiteURL, got %v", err)
	}
}

func TestResolveSiteIDSendsBearerAndAccept(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sites/contoso.sharepoint.com:/sites/Policies" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected authorization %q", got)
		}
		if got := r.Header.Get("Accept"); got != acceptHeader {
			t.Errorf("unexpected accept %q", got)
		}
		_ = json.NewEncoder(w).Encode(Site{ID: "site-1"})
	})

	id, err := client.ResolveSiteID(context.Background(), "https://contoso.sharepoint.com/sites/Policies")
	if err != nil {
		t.Fatalf("ResolveSiteID returned error: %v", err)
	}
	if id != "site-1" {
		t.Fatalf("expected site-1, got %s", id)
	}
}

func TestNotFoundAndUpstreamErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sites/s/drives/d/root:/Images/missing.png":
			http.Error(w, `{"error":{"code":"itemNotFound"}}`, http.StatusNotFound)
		default:
			http.Error(w, `{"error":{"code":"accessDenied"}}`, http.StatusForbidden)
		}
	})

	_, err := client.GetItemByPath(context.Background(), "s", "d", "Images/missing.png")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = client.CreateDocumentLibrary(context.Background(), "s", "Policy Docs")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusForbidden || upstream.Method != http.MethodPost {
		t.Fatalf("unexpected upstream error %+v", upstream)
	}
	if !IsForbidden(err) {
		t.Fatal("expected IsForbidden to match")
	}
}

func TestListDrivesFollowsNextLink(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			_ = json.NewEncoder(w).Encode(collection[Drive]{Value: []Drive{{ID: "b", Name: "Second"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(collection[Drive]{
			Value:    []Drive{{ID: "a", Name: "Documents"}},
			NextLink: server.URL + "/sites/s/drives?page=2",
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL},
		WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"})))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	drives, err := client.ListDrives(context.Background(), "s")
	if err != nil {
		t.Fatalf("ListDrives returned error: %v", err)
	}
	if len(drives) != 2 || drives[1].ID != "b" {
		t.Fatalf("unexpected drives %+v", drives)
	}
}

func TestUploadContentPutsBytes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/sites/s/drives/d/root:/Policies/Images/abc.png:/content" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "png-bytes" {
			t.Errorf("unexpected body %q", body)
		}
		_ = json.NewEncoder(w).Encode(DriveItem{ID: "item", WebURL: "https://x/abc.png"})
	})

	item, err := client.UploadContent(context.Background(), "s", "d", "Policies/Images/abc.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("UploadContent returned error: %v", err)
	}
	if item.WebURL != "https://x/abc.png" {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestPublishPageAcceptsNoContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sites/s/pages/p/microsoft.graph.sitePage/publish" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if err := client.PublishPage(context.Background(), "s", "p"); err != nil {
		t.Fatalf("PublishPage returned error: %v", err)
	}
}
