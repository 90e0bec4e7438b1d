package sitepages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/images"
	"github.com/goliatone/go-docbot/internal/library"
)

type fakeClient struct {
	pages      []graph.SitePage
	created    map[string]any
	updated    map[string]any
	updatedID  string
	published  []string
	calls      []string
	publishErr error
}

func (f *fakeClient) ResolveSiteID(_ context.Context, siteURL string) (string, error) {
	f.calls = append(f.calls, "resolve")
	return "site-1", nil
}

func (f *fakeClient) ListPages(context.Context, string) ([]graph.SitePage, error) {
	f.calls = append(f.calls, "list")
	return f.pages, nil
}

func (f *fakeClient) CreatePage(_ context.Context, _ string, payload map[string]any) (*graph.SitePage, error) {
	f.calls = append(f.calls, "create")
	f.created = payload
	return &graph.SitePage{ID: "new-page", Name: payload["name"].(string)}, nil
}

func (f *fakeClient) UpdatePage(_ context.Context, _ string, pageID string, payload map[string]any) error {
	f.calls = append(f.calls, "update")
	f.updated = payload
	f.updatedID = pageID
	return nil
}

func (f *fakeClient) PublishPage(_ context.Context, _ string, pageID string) error {
	f.calls = append(f.calls, "publish")
	f.published = append(f.published, pageID)
	return f.publishErr
}

type fakeImages struct {
	target library.Target
}

func (f *fakeImages) ProcessMarkdownImages(_ context.Context, _ string, markdown string, _ images.FetchFunc, target library.Target) (string, error) {
	f.target = target
	return strings.ReplaceAll(markdown, "diagram.png", "https://cdn.example/abc.png"), nil
}

type fakeResolver struct {
	names []string
}

func (f *fakeResolver) EnsureLibrary(_ context.Context, _ string, name string) (library.Target, error) {
	f.names = append(f.names, name)
	return library.Target{DriveID: "drive-" + name}, nil
}

func TestCreateOrUpdatePageCreatesAndPublishes(t *testing.T) {
	client := &fakeClient{}
	publisher := NewPublisher(client)

	result, err := publisher.CreateOrUpdatePage(context.Background(), PublishRequest{
		SiteURL:  "https://acme.sharepoint.com/sites/policies/",
		Title:    "Travel & Expense Policy",
		Markdown: "# Travel\n\nBook early.",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Action != ActionCreated {
		t.Fatalf("expected created, got %s", result.Action)
	}
	if got := client.created["name"]; got != "Travel-Expense-Policy.aspx" {
		t.Fatalf("unexpected page name %v", got)
	}
	if client.created["pageLayout"] != "article" {
		t.Fatalf("expected article layout on create")
	}
	if result.URL != "https://acme.sharepoint.com/sites/policies/SitePages/Travel-Expense-Policy.aspx" {
		t.Fatalf("unexpected url %s", result.URL)
	}
	if len(client.published) != 1 || client.published[0] != "new-page" {
		t.Fatalf("expected new page to be published, got %v", client.published)
	}
	if strings.Join(client.calls, ",") != "resolve,list,create,publish" {
		t.Fatalf("unexpected call order %v", client.calls)
	}
}

func TestCreateOrUpdatePageUpdatesExistingByTitle(t *testing.T) {
	client := &fakeClient{pages: []graph.SitePage{
		{ID: "p1", Name: "Other.aspx", Title: "Other"},
		{ID: "p2", Name: "Travel-Policy.aspx", Title: "TRAVEL POLICY"},
	}}
	publisher := NewPublisher(client)

	result, err := publisher.CreateOrUpdatePage(context.Background(), PublishRequest{
		SiteURL:  "https://acme.sharepoint.com/sites/policies",
		Title:    "Travel Policy",
		Markdown: "Updated body",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Action != ActionUpdated || client.updatedID != "p2" {
		t.Fatalf("expected update of p2, got %s %s", result.Action, client.updatedID)
	}
	if _, ok := client.updated["name"]; ok {
		t.Fatalf("update payload must not carry the page name")
	}
	if _, ok := client.updated["pageLayout"]; ok {
		t.Fatalf("update payload must not carry the page layout")
	}
	if client.published[0] != "p2" {
		t.Fatalf("expected p2 to be published")
	}
	if result.URL != "https://acme.sharepoint.com/sites/policies/SitePages/Travel-Policy.aspx" {
		t.Fatalf("unexpected url %s", result.URL)
	}
}

func TestCreateOrUpdatePageProcessesImagesWithDefaultLibrary(t *testing.T) {
	client := &fakeClient{}
	processor := &fakeImages{}
	resolver := &fakeResolver{}
	publisher := NewPublisher(client, WithImages(processor, resolver))

	fetch := func(context.Context, string) ([]byte, error) { return nil, nil }
	_, err := publisher.CreateOrUpdatePage(context.Background(), PublishRequest{
		SiteURL:  "https://acme.sharepoint.com/sites/policies",
		Title:    "Diagrams",
		Markdown: "![flow](diagram.png)",
		Fetch:    fetch,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(resolver.names) != 1 || resolver.names[0] != library.DefaultLibraryName {
		t.Fatalf("expected default library resolution, got %v", resolver.names)
	}
	if processor.target.DriveID != "drive-Documents" {
		t.Fatalf("unexpected image target %+v", processor.target)
	}
	html := htmlOf(t, client.created)
	if !strings.Contains(html, "https://cdn.example/abc.png") {
		t.Fatalf("expected rewritten image url in page html, got %s", html)
	}
}

func TestCreateOrUpdatePageUsesPreResolvedLibrary(t *testing.T) {
	resolver := &fakeResolver{}
	processor := &fakeImages{}
	publisher := NewPublisher(&fakeClient{}, WithImages(processor, resolver))

	target := library.Target{DriveID: "drive-x", FolderPath: "Policies"}
	_, err := publisher.CreateOrUpdatePage(context.Background(), PublishRequest{
		SiteURL:  "https://acme.sharepoint.com/sites/policies",
		Title:    "Diagrams",
		Markdown: "text",
		Fetch:    func(context.Context, string) ([]byte, error) { return nil, nil },
		Library:  &target,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(resolver.names) != 0 {
		t.Fatalf("pre-resolved library should skip resolution")
	}
	if processor.target != target {
		t.Fatalf("unexpected target %+v", processor.target)
	}
}

func TestCreateOrUpdatePagePublishFailure(t *testing.T) {
	client := &fakeClient{publishErr: &graph.UpstreamError{Status: 500, Method: "POST", Endpoint: "/publish"}}
	_, err := NewPublisher(client).CreateOrUpdatePage(context.Background(), PublishRequest{
		SiteURL: "https://acme.sharepoint.com/sites/policies",
		Title:   "Travel",
	})
	var upstream *graph.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCreateOrUpdatePageRequiresTitle(t *testing.T) {
	_, err := NewPublisher(&fakeClient{}).CreateOrUpdatePage(context.Background(), PublishRequest{SiteURL: "https://x"})
	if !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("expected ErrMissingTitle, got %v", err)
	}
}

func TestPageName(t *testing.T) {
	cases := map[string]string{
		"Travel Policy":        "Travel-Policy.aspx",
		"IT  Security (v2)":    "IT-Security-v2.aspx",
		"snake_case-title":     "snake_case-title.aspx",
		"   padded   title   ": "padded-title.aspx",
	}
	for title, want := range cases {
		if got := PageName(title); got != want {
			t.Fatalf("PageName(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestBuildCreatePayloadShape(t *testing.T) {
	payload := BuildCreatePayload("Policy", "<p>x</p>", DefaultTitleArea())
	if payload["@odata.type"] != "#microsoft.graph.sitePage" || payload["showComments"] != true || payload["showRecommendedPages"] != false {
		t.Fatalf("unexpected page flags %+v", payload)
	}
	area := payload["titleArea"].(map[string]any)
	if area["layout"] != "plain" || area["showPublishedDate"] != true || area["textAlignment"] != "left" || area["title"] != "Policy" {
		t.Fatalf("unexpected title area %+v", area)
	}
	if htmlOf(t, payload) != "<p>x</p>" {
		t.Fatalf("unexpected web part html")
	}
}

func htmlOf(t *testing.T, payload map[string]any) string {
	t.Helper()
	canvas, ok := payload["canvasLayout"].(map[string]any)
	if !ok {
		t.Fatalf("payload has no canvas layout")
	}
	section := canvas["horizontalSections"].([]any)[0].(map[string]any)
	column := section["columns"].([]any)[0].(map[string]any)
	part := column["webparts"].([]any)[0].(map[string]any)
	return part["innerHtml"].(string)
}
