package proc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services")
	data := `# Network services, Internet style
ssh             22/tcp          # SSH Remote Login Protocol
domain          53/tcp
domain          53/udp
http            80/tcp          www # WorldWideWeb HTTP
https           443/tcp
ignored-line
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	services := loadServices(path)
	assert.Equal(t, "ssh", services["22/tcp"])
	assert.Equal(t, "http", services["80/tcp"])
	assert.Equal(t, "domain", services["53/udp"])
	assert.NotContains(t, services, "ignored-line")
}

func TestLoadServicesMissingFile(t *testing.T) {
	services := loadServices(filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, services)
}
