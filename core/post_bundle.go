package core

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"cms-platform/content"
)

const (
	bundleMetaFile    = "post.yaml"
	bundleContentFile = "content.html"

	maxBundleEntries   = 20
	maxBundleFileSize  = 2 * 1024 * 1024
	maxBundleTotalSize = 4 * 1024 * 1024
)

// BundleMeta is the post.yaml document of a post bundle.
type BundleMeta struct {
	Title     string         `yaml:"title"`
	Excerpt   string         `yaml:"excerpt,omitempty"`
	Category  string         `yaml:"category,omitempty"`
	Tags      []string       `yaml:"tags,omitempty"`
	Thumbnail string         `yaml:"thumbnail,omitempty"`
	Status    content.Status `yaml:"status,omitempty"`
}

// PostBundle is a post exchanged as a zip archive:
//
//	post.yaml     metadata (required)
//	content.html  body (required)
//
// Both files may sit at the archive root or under one top-level folder.
type PostBundle struct {
	Meta    BundleMeta
	Content string
}

// ParsePostBundle validates and reads a zip bundle. Tags are normalised.
func ParsePostBundle(data []byte) (PostBundle, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], []byte{'P', 'K', 0x03, 0x04}) {
		return PostBundle{}, errors.New("bundle must be a zip archive")
	}
	files, err := readBundleFiles(data)
	if err != nil {
		return PostBundle{}, err
	}

	metaBytes, ok := files[bundleMetaFile]
	if !ok {
		return PostBundle{}, fmt.Errorf("%s not found", bundleMetaFile)
	}
	body, ok := files[bundleContentFile]
	if !ok {
		return PostBundle{}, fmt.Errorf("%s not found", bundleContentFile)
	}

	var meta BundleMeta
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		return PostBundle{}, fmt.Errorf("invalid %s: %w", bundleMetaFile, err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Excerpt = strings.TrimSpace(meta.Excerpt)
	meta.Category = strings.TrimSpace(meta.Category)
	meta.Thumbnail = strings.TrimSpace(meta.Thumbnail)
	meta.Tags = content.NormalizeTags(meta.Tags)
	if meta.Title == "" {
		return PostBundle{}, errors.New("title is required")
	}
	return PostBundle{Meta: meta, Content: string(body)}, nil
}

// readBundleFiles extracts entries keyed by their path below the common top folder.
func readBundleFiles(data []byte) (map[string][]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("cannot open zip: %w", err)
	}
	raw := map[string][]byte{}
	roots := map[string]struct{}{}
	var total int64
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if len(raw) >= maxBundleEntries {
			return nil, fmt.Errorf("too many entries (limit %d)", maxBundleEntries)
		}
		name := normalizeArchivePath(f.Name)
		if name == "." || strings.HasPrefix(name, "../") || strings.Contains(name, "/../") {
			return nil, errors.New("bundle contains an invalid path")
		}
		if f.UncompressedSize64 > maxBundleFileSize {
			return nil, fmt.Errorf("file %s is too large (limit %d bytes)", f.Name, maxBundleFileSize)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(io.LimitReader(rc, maxBundleFileSize+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", f.Name, err)
		}
		if len(b) > maxBundleFileSize {
			return nil, fmt.Errorf("file %s is too large (limit %d bytes)", f.Name, maxBundleFileSize)
		}
		total += int64(len(b))
		if total > maxBundleTotalSize {
			return nil, errors.New("bundle is too large when extracted")
		}
		raw[name] = b
		if i := strings.Index(name, "/"); i > 0 {
			roots[name[:i]] = struct{}{}
		} else {
			roots[""] = struct{}{}
		}
	}
	if len(roots) != 1 {
		if len(raw) == 0 {
			return nil, errors.New("bundle is empty")
		}
		return nil, errors.New("bundle files must share one top-level folder or sit at the root")
	}

	var root string
	for k := range roots {
		root = k
	}
	if root == "" {
		return raw, nil
	}
	files := make(map[string][]byte, len(raw))
	for k, v := range raw {
		files[strings.TrimPrefix(k, root+"/")] = v
	}
	return files, nil
}

func normalizeArchivePath(p string) string {
	cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "./")
	return strings.TrimPrefix(cleaned, "/")
}

// BuildPostBundle renders p as a zip bundle under a folder named after its title.
func BuildPostBundle(p *Post) ([]byte, error) {
	meta := BundleMeta{
		Title:     p.Title,
		Excerpt:   p.Excerpt,
		Tags:      p.Tags,
		Thumbnail: p.Thumbnail,
		Status:    p.Status,
	}
	if p.Category != nil {
		meta.Category = p.Category.Name
	}
	metaBytes, err := yaml.Marshal(meta)
	if err != nil {
		return nil, err
	}

	folder := BundleSlug(p.Title)
	if folder == "" {
		folder = fmt.Sprintf("post-%d", p.ID)
	}
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range []struct {
		name string
		data []byte
	}{
		{bundleMetaFile, metaBytes},
		{bundleContentFile, []byte(p.Content)},
	} {
		w, err := zw.Create(folder + "/" + f.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BundleSlug lowercases v and keeps [a-z0-9] runs joined by single hyphens.
func BundleSlug(v string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(v)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
