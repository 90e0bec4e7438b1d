package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-docbot/internal/graph"
	"github.com/goliatone/go-docbot/internal/library"
)

type memoryDrive struct {
	items   map[string]string
	uploads []string
	lookups int
}

func newMemoryDrive() *memoryDrive {
	return &memoryDrive{items: map[string]string{}}
}

func (m *memoryDrive) GetItemByPath(_ context.Context, _, driveID, itemPath string) (*graph.DriveItem, error) {
	m.lookups++
	url, ok := m.items[driveID+":"+itemPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, itemPath)
	}
	return &graph.DriveItem{Name: itemPath, WebURL: url}, nil
}

func (m *memoryDrive) UploadContent(_ context.Context, _, driveID, itemPath string, _ []byte, _ string) (*graph.DriveItem, error) {
	url := "https://sp.example/" + itemPath
	m.items[driveID+":"+itemPath] = url
	m.uploads = append(m.uploads, itemPath)
	return &graph.DriveItem{Name: itemPath, WebURL: url}, nil
}

func TestQuickXorHashKnownValues(t *testing.T) {
	if got := ContentHash(nil); got != strings.Repeat("A", 27) {
		t.Fatalf("unexpected empty hash %q", got)
	}

	sum := NewQuickXorHash()
	_, _ = sum.Write([]byte("a"))
	got := sum.Sum(nil)
	want := make([]byte, 20)
	want[0] = 0x61
	want[12] = 0x01
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected digest %x", got)
	}
}

func TestQuickXorHashIsStreaming(t *testing.T) {
	data := bytes.Repeat([]byte("policy-image-bytes-"), 40)

	whole := NewQuickXorHash()
	_, _ = whole.Write(data)

	chunked := NewQuickXorHash()
	for i := 0; i < len(data); i += 37 {
		_, _ = chunked.Write(data[i:min(i+37, len(data))])
	}

	if !bytes.Equal(whole.Sum(nil), chunked.Sum(nil)) {
		t.Fatal("expected chunked writes to match a single write")
	}
	if ContentHash(data) == ContentHash(append(data, 'x')) {
		t.Fatal("expected different content to hash differently")
	}
}

func TestResolveImagePath(t *testing.T) {
	cases := []struct {
		doc, ref, want string
	}{
		{"policies/sub/doc.md", "diagram.png", "policies/sub/diagram.png"},
		{"policies/sub/doc.md", "/assets/logo.png", "assets/logo.png"},
		{"policies/sub/doc.md", `..\img\chart.png`, "policies/img/chart.png"},
		{"doc.md", "./a.png", "a.png"},
	}
	for _, tc := range cases {
		if got := ResolveImagePath(tc.doc, tc.ref); got != tc.want {
			t.Fatalf("ResolveImagePath(%q, %q) = %q, want %q", tc.doc, tc.ref, got, tc.want)
		}
	}
}

func TestExtension(t *testing.T) {
	if got := Extension("img/Chart.PNG?raw=1"); got != "png" {
		t.Fatalf("unexpected extension %q", got)
	}
	if got := Extension("noext"); got != "" {
		t.Fatalf("unexpected extension %q", got)
	}
}

func TestUploadWithDedupReusesExistingContent(t *testing.T) {
	drive := newMemoryDrive()
	uploader := NewUploader(drive, nil)
	target := library.Target{DriveID: "d", FolderPath: "Policies"}

	first, err := uploader.UploadWithDedup(context.Background(), "s", []byte("same"), "png", target)
	if err != nil {
		t.Fatalf("first upload returned error: %v", err)
	}
	second, err := uploader.UploadWithDedup(context.Background(), "s", []byte("same"), "png", target)
	if err != nil {
		t.Fatalf("second upload returned error: %v", err)
	}

	if first.Action != ActionUploaded || second.Action != ActionExisting {
		t.Fatalf("unexpected actions %s, %s", first.Action, second.Action)
	}
	if first.FileName != second.FileName || first.URL != second.URL {
		t.Fatalf("expected identical names, got %+v and %+v", first, second)
	}
	if len(drive.uploads) != 1 || !strings.HasPrefix(drive.uploads[0], "Policies/Images/") {
		t.Fatalf("unexpected uploads %v", drive.uploads)
	}
}

func TestUploadWithDedupPropagatesLookupFailure(t *testing.T) {
	uploader := NewUploader(failingDrive{}, nil)
	_, err := uploader.UploadWithDedup(context.Background(), "s", []byte("x"), "png", library.Target{DriveID: "d"})
	var upstream *graph.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

type failingDrive struct{}

func (failingDrive) GetItemByPath(context.Context, string, string, string) (*graph.DriveItem, error) {
	return nil, &graph.UpstreamError{Status: 500}
}

func (failingDrive) UploadContent(context.Context, string, string, string, []byte, string) (*graph.DriveItem, error) {
	return nil, &graph.UpstreamError{Status: 500}
}

func TestProcessMarkdownImagesRewritesAndCaches(t *testing.T) {
	drive := newMemoryDrive()
	var actions []Action
	processor := NewProcessor(NewUploader(drive, nil), WithObserver(func(_ string, action Action) {
		actions = append(actions, action)
	}))

	fetched := map[string]int{}
	fetch := func(_ context.Context, ref string) ([]byte, error) {
		fetched[ref]++
		switch ref {
		case "missing.png":
			return nil, nil
		case "broken.png":
			return nil, errors.New("boom")
		case "copy.png":
			return []byte("logo-bytes"), nil
		}
		return []byte("logo-bytes"), nil
	}

	markdown := strings.Join([]string{
		"# Policy",
		"![Logo](logo.png)",
		`<img alt="logo" src="logo.png" width="20">`,
		`![Again](logo.png "Title")`,
		"![Copy](copy.png)",
		"![Missing](missing.png)",
		"![Broken](broken.png)",
		"![Remote](https://cdn.example/x.png)",
	}, "\n")

	out, err := processor.ProcessMarkdownImages(context.Background(), "s", markdown, fetch, library.Target{DriveID: "d"})
	if err != nil {
		t.Fatalf("ProcessMarkdownImages returned error: %v", err)
	}

	if fetched["logo.png"] != 1 {
		t.Fatalf("expected logo.png fetched once, got %d", fetched["logo.png"])
	}
	if len(drive.uploads) != 1 {
		t.Fatalf("expected identical bytes stored once, got %v", drive.uploads)
	}

	url := "https://sp.example/" + drive.uploads[0]
	for _, want := range []string{
		"![Logo](" + url + ")",
		`<img alt="logo" src="` + url + `" width="20">`,
		`![Again](` + url + ` "Title")`,
		"![Copy](" + url + ")",
		"![Missing](missing.png)",
		"![Broken](broken.png)",
		"![Remote](https://cdn.example/x.png)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	want := []Action{ActionUploaded, ActionExisting, ActionMissing, ActionFailed}
	if fmt.Sprint(actions) != fmt.Sprint(want) {
		t.Fatalf("unexpected actions %v", actions)
	}
}

func TestProcessMarkdownImagesStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	processor := NewProcessor(NewUploader(newMemoryDrive(), nil))
	_, err := processor.ProcessMarkdownImages(ctx, "s", "![x](a.png)", func(context.Context, string) ([]byte, error) {
		return []byte("x"), nil
	}, library.Target{DriveID: "d"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessMarkdownImagesRewritesOnlyHTMLSource(t *testing.T) {
	drive := newMemoryDrive()
	processor := NewProcessor(NewUploader(drive, nil))
	fetch := func(context.Context, string) ([]byte, error) {
		return []byte("chart-bytes"), nil
	}

	markdown := strings.Join([]string{
		`<img alt="chart.png" title="chart.png" src="chart.png">`,
		`<img src='chart.png' data-caption="chart.png"/>`,
	}, "\n")

	out, err := processor.ProcessMarkdownImages(context.Background(), "s", markdown, fetch, library.Target{DriveID: "d"})
	if err != nil {
		t.Fatalf("ProcessMarkdownImages returned error: %v", err)
	}
	if len(drive.uploads) != 1 {
		t.Fatalf("expected one upload, got %v", drive.uploads)
	}

	url := "https://sp.example/" + drive.uploads[0]
	want := strings.Join([]string{
		`<img alt="chart.png" title="chart.png" src="` + url + `">`,
		`<img src='` + url + `' data-caption="chart.png"/>`,
	}, "\n")
	if out != want {
		t.Fatalf("unexpected rewrite:\n got: %s\nwant: %s", out, want)
	}
}
