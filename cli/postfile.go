package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cms-platform/content"
)

// postFile is the YAML document cmsctl reads posts from. Tags are written
// the way the editor's tag input takes them, e.g. "#go #web".
type postFile struct {
	ID          int64  `yaml:"id,omitempty"`
	Title       string `yaml:"title"`
	Excerpt     string `yaml:"excerpt,omitempty"`
	Category    int64  `yaml:"category,omitempty"`
	Tags        string `yaml:"tags,omitempty"`
	Thumbnail   string `yaml:"thumbnail,omitempty"`
	Content     string `yaml:"content,omitempty"`
	ContentFile string `yaml:"content_file,omitempty"` // relative to the YAML file
}

func loadPostFile(path string) (postFile, error) {
	var pf postFile
	data, err := os.ReadFile(path)
	if err != nil {
		return pf, err
	}
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return pf, fmt.Errorf("parse %s: %w", path, err)
	}
	if pf.ContentFile != "" {
		body := pf.ContentFile
		if !filepath.IsAbs(body) {
			body = filepath.Join(filepath.Dir(path), body)
		}
		raw, err := os.ReadFile(body)
		if err != nil {
			return pf, fmt.Errorf("read content file: %w", err)
		}
		pf.Content = string(raw)
	}
	return pf, nil
}

func (pf postFile) draft(status content.Status) content.Draft {
	return content.Draft{
		Title:      pf.Title,
		Excerpt:    pf.Excerpt,
		Content:    pf.Content,
		CategoryID: pf.Category,
		Tags:       content.ExtractTags(pf.Tags),
		Thumbnail:  pf.Thumbnail,
		Status:     status,
	}
}
