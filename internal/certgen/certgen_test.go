package certgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfSignedProducesUsableCertificate(t *testing.T) {
	cert, err := SelfSigned("127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, cert.Certificate)
	assert.NotNil(t, cert.PrivateKey)
}

func TestServerTLSConfigSetsALPN(t *testing.T) {
	cfg, err := ServerTLSConfig("filexfer", "127.0.0.1")
	require.NoError(t, err)
	assert.Contains(t, cfg.NextProtos, "filexfer")
	assert.Len(t, cfg.Certificates, 1)
}

func TestClientTLSConfigMatchesALPN(t *testing.T) {
	cfg := ClientTLSConfig("filexfer")
	assert.Contains(t, cfg.NextProtos, "filexfer")
	assert.True(t, cfg.InsecureSkipVerify)
}
