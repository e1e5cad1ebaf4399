package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_MAX_BYTES", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("BOOTSTRAP_ADMIN", "false")

	cfg := Load()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 5*1024*1024, cfg.UploadMaxBytes)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.False(t, cfg.BootstrapAdminEnabled)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty())
}
