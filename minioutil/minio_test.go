package minioutil

import (
	"context"
	"testing"

	"github.com/kjk/flatstore/assert"
)

func TestConfigValidate(t *testing.T) {
	var c *Config
	assert.Error(t, c.Validate())

	c = &Config{Access: "a", Bucket: "b"}
	err := c.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Secret, Endpoint")

	c.Secret = "s"
	c.Endpoint = "localhost:9000"
	assert.NoError(t, c.Validate())

	_, err = New(context.Background(), &Config{})
	assert.Error(t, err)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/zstd", contentTypeFor("b/prefs-20250101-120000.000.mcufs.zstd"))
	assert.Equal(t, "application/gzip", contentTypeFor("prefs.mcufs.GZ"))
	assert.Equal(t, "application/x-brotli", contentTypeFor("prefs.mcufs.br"))
	assert.Equal(t, "text/plain; charset=utf-8", contentTypeFor("prefs.mcufs"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("noext"))
}
