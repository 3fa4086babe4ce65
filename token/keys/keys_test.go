package keys_test

import (
	"crypto/rsa"
	"os"
	"path/filepath"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oidc-grants/token/keys"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	keyPair, err := keys.GenerateRSAKeyPair("kid-1", 1024)
	require.NoError(t, err)
	signer := keys.NewKeyPairSigner(keyPair)

	raw, err := signer.Sign(jwtlib.MapClaims{"sub": "user-1"})
	require.NoError(t, err)

	parsed, err := jwtlib.Parse(raw, signer.GetVerificationKey)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "kid-1", parsed.Header["kid"])

	jwks, err := signer.GetJWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, keys.RS256, jwks.Keys[0].Alg)
	require.Equal(t, "AQAB", jwks.Keys[0].E)
}

func TestLoadOrGenerateKeyPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.pem")

	generated, err := keys.LoadOrGenerateKeyPair("kid-1", path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := keys.LoadOrGenerateKeyPair("kid-1", path)
	require.NoError(t, err)
	pub, ok := generated.PublicKey.(*rsa.PublicKey)
	require.True(t, ok)
	require.True(t, pub.Equal(loaded.PublicKey))
}

func TestLoadKeyPairFromPEMRejectsGarbage(t *testing.T) {
	_, err := keys.LoadKeyPairFromPEM("kid-1", "not a key")
	require.Error(t, err)
}
