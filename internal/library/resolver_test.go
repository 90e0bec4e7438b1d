package library

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/goliatone/go-docbot/internal/graph"
)

type fakeClient struct {
	drives      []graph.Drive
	listErr     error
	createErr   error
	created     *graph.Drive
	items       map[string]bool
	folderErr   error
	createCalls int
	folderCalls []string
}

func (f *fakeClient) ListDrives(context.Context, string) ([]graph.Drive, error) {
	return f.drives, f.listErr
}

func (f *fakeClient) CreateDocumentLibrary(_ context.Context, _ string, name string) (*graph.Drive, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &graph.Drive{ID: "new-" + name, Name: name}, nil
}

func (f *fakeClient) GetItemByPath(_ context.Context, _, driveID, itemPath string) (*graph.DriveItem, error) {
	if f.items[driveID+"/"+itemPath] {
		return &graph.DriveItem{ID: "folder", Name: itemPath}, nil
	}
	return nil, fmt.Errorf("%w: GET %s", graph.ErrNotFound, itemPath)
}

func (f *fakeClient) CreateFolder(_ context.Context, driveID, name string) (*graph.DriveItem, error) {
	f.folderCalls = append(f.folderCalls, driveID+"/"+name)
	if f.folderErr != nil {
		return nil, f.folderErr
	}
	return &graph.DriveItem{ID: "folder", Name: name}, nil
}

var denied = &graph.UpstreamError{Status: http.StatusForbidden, Method: http.MethodPost, Endpoint: "/sites/s/lists"}

func TestEnsureLibraryMatchesNormalizedName(t *testing.T) {
	client := &fakeClient{drives: []graph.Drive{{ID: "docs", Name: "Documents"}, {ID: "policy", Name: "policy-docs"}}}
	target, err := NewResolver(client).EnsureLibrary(context.Background(), "s", "Policy Docs")
	if err != nil {
		t.Fatalf("EnsureLibrary returned error: %v", err)
	}
	if target != (Target{DriveID: "policy"}) {
		t.Fatalf("unexpected target %+v", target)
	}
	if client.createCalls != 0 {
		t.Fatalf("expected no create call, got %d", client.createCalls)
	}
}

func TestEnsureLibraryCreatesMissingLibrary(t *testing.T) {
	client := &fakeClient{drives: []graph.Drive{{ID: "docs", Name: "Documents"}}}
	target, err := NewResolver(client).EnsureLibrary(context.Background(), "s", "Policies")
	if err != nil {
		t.Fatalf("EnsureLibrary returned error: %v", err)
	}
	if target.DriveID != "new-Policies" || target.FolderPath != "" {
		t.Fatalf("unexpected target %+v", target)
	}
}

func TestEnsureLibraryFallsBackToExistingFolder(t *testing.T) {
	client := &fakeClient{
		drives:    []graph.Drive{{ID: "other", Name: "Assets"}, {ID: "docs", Name: "Documents"}},
		createErr: denied,
		items:     map[string]bool{"docs/Policies": true},
	}
	target, err := NewResolver(client).EnsureLibrary(context.Background(), "s", "Policies")
	if err != nil {
		t.Fatalf("EnsureLibrary returned error: %v", err)
	}
	if target != (Target{DriveID: "docs", FolderPath: "Policies"}) {
		t.Fatalf("unexpected target %+v", target)
	}
	if len(client.folderCalls) != 0 {
		t.Fatalf("expected no folder creation, got %v", client.folderCalls)
	}
}

func TestEnsureLibraryCreatesFolderAndToleratesConflict(t *testing.T) {
	client := &fakeClient{
		drives:    []graph.Drive{{ID: "first", Name: "Shared"}},
		createErr: denied,
		folderErr: &graph.UpstreamError{Status: http.StatusConflict},
	}
	target, err := NewResolver(client).EnsureLibrary(context.Background(), "s", "Policies")
	if err != nil {
		t.Fatalf("EnsureLibrary returned error: %v", err)
	}
	if target != (Target{DriveID: "first", FolderPath: "Policies"}) {
		t.Fatalf("unexpected target %+v", target)
	}
	if len(client.folderCalls) != 1 || client.folderCalls[0] != "first/Policies" {
		t.Fatalf("unexpected folder calls %v", client.folderCalls)
	}
}

func TestEnsureLibraryPropagatesFolderFailure(t *testing.T) {
	client := &fakeClient{
		drives:    []graph.Drive{{ID: "docs", Name: "Documents"}},
		createErr: denied,
		folderErr: &graph.UpstreamError{Status: http.StatusInternalServerError},
	}
	if _, err := NewResolver(client).EnsureLibrary(context.Background(), "s", "Policies"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureLibraryWithoutDrives(t *testing.T) {
	client := &fakeClient{createErr: denied}
	_, err := NewResolver(client).EnsureLibrary(context.Background(), "s", "Policies")
	if !errors.Is(err, graph.ErrNoDrives) {
		t.Fatalf("expected ErrNoDrives, got %v", err)
	}
}

func TestTargetJoin(t *testing.T) {
	if got := (Target{DriveID: "d"}).Join("Images/a.png"); got != "Images/a.png" {
		t.Fatalf("unexpected join %q", got)
	}
	if got := (Target{DriveID: "d", FolderPath: "/Policies/"}).Join("Images"); got != "Policies/Images" {
		t.Fatalf("unexpected join %q", got)
	}
}

func TestNormalizeName(t *testing.T) {
	if NormalizeName(" Policy_Docs ") != NormalizeName("policy-docs") {
		t.Fatal("expected normalized names to match")
	}
}
