package core

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"cms-platform/content"
)

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestBuildPostBundleRoundTrip(t *testing.T) {
	post := &Post{
		ID:        7,
		Title:     "Hello, Go World!",
		Excerpt:   "short",
		Content:   "<p>Body text</p>",
		Category:  &Category{ID: 2, Name: "Tech", Active: true},
		Status:    content.StatusPublished,
		Tags:      []string{"go", "web"},
		Thumbnail: "https://img.example/x.png",
	}
	data, err := BuildPostBundle(post)
	if err != nil {
		t.Fatalf("BuildPostBundle error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip reader error: %v", err)
	}
	names := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		names[f.Name] = string(b)
	}
	if got := names["hello-go-world/content.html"]; got != post.Content {
		t.Fatalf("content.html = %q", got)
	}
	if meta := names["hello-go-world/post.yaml"]; !strings.Contains(meta, "category: Tech") {
		t.Fatalf("post.yaml missing category:\n%s", meta)
	}

	bundle, err := ParsePostBundle(data)
	if err != nil {
		t.Fatalf("ParsePostBundle error: %v", err)
	}
	if bundle.Meta.Title != post.Title || bundle.Meta.Category != "Tech" || bundle.Content != post.Content {
		t.Fatalf("unexpected bundle: %+v", bundle)
	}
	if len(bundle.Meta.Tags) != 2 || bundle.Meta.Tags[0] != "go" {
		t.Fatalf("unexpected tags: %v", bundle.Meta.Tags)
	}
}

func TestParsePostBundleAtRootNormalisesTags(t *testing.T) {
	data := zipOf(t, map[string]string{
		"post.yaml":    "title: '  Draft  '\ntags: ['#go', go, 'bad tag', rust]\n",
		"content.html": "<p>x</p>",
	})
	bundle, err := ParsePostBundle(data)
	if err != nil {
		t.Fatalf("ParsePostBundle error: %v", err)
	}
	if bundle.Meta.Title != "Draft" {
		t.Fatalf("title = %q", bundle.Meta.Title)
	}
	if strings.Join(bundle.Meta.Tags, ",") != "go,rust" {
		t.Fatalf("tags = %v", bundle.Meta.Tags)
	}
}

func TestParsePostBundleErrors(t *testing.T) {
	cases := map[string][]byte{
		"not zip":       []byte("plain text"),
		"missing yaml":  zipOf(t, map[string]string{"a/content.html": "x"}),
		"missing html":  zipOf(t, map[string]string{"a/post.yaml": "title: x"}),
		"no title":      zipOf(t, map[string]string{"post.yaml": "excerpt: x", "content.html": "x"}),
		"two roots":     zipOf(t, map[string]string{"a/post.yaml": "title: x", "b/content.html": "x"}),
		"bad yaml":      zipOf(t, map[string]string{"post.yaml": "title: [", "content.html": "x"}),
		"escaping path": zipOf(t, map[string]string{"../post.yaml": "title: x", "../content.html": "x"}),
	}
	for name, data := range cases {
		if _, err := ParsePostBundle(data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestBundleSlug(t *testing.T) {
	cases := map[string]string{
		"Hello, Go World!": "hello-go-world",
		"  --x--  ":        "x",
		"日本語":              "",
		"a  b_c":           "a-b-c",
	}
	for in, want := range cases {
		if got := BundleSlug(in); got != want {
			t.Errorf("BundleSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
