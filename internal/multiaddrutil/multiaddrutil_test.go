package multiaddrutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHostExtractsIP4(t *testing.T) {
	host, err := Host("/ip4/10.0.0.1/tcp/4024")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", host)
}

func TestHostExtractsDNS(t *testing.T) {
	host, err := Host("/dns4/node.example.com/tcp/4024/https")
	require.NoError(t, err)
	require.Equal(t, "node.example.com", host)
}

func TestHostRejectsInvalid(t *testing.T) {
	_, err := Host("not-a-multiaddress")
	require.Error(t, err)
}

func TestURLHostExtractsHostname(t *testing.T) {
	host, err := URLHost("https://crn.example.com:4021/api")
	require.NoError(t, err)
	require.Equal(t, "crn.example.com", host)
}

func TestURLHostRejectsEmptyHost(t *testing.T) {
	_, err := URLHost("not a url")
	require.Error(t, err)
}
