/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package proof

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuts-foundation/go-openid4vci/openid4vci"
)

const testAudience = "https://issuer.example.com"
const testNonce = openid4vci.CNonce("tZignsnFbp")

func testSigningKey(t *testing.T) (jwk.Key, jwk.Key) {
	t.Helper()
	rawKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	privateKey, err := jwk.FromRaw(rawKey)
	require.NoError(t, err)
	require.NoError(t, privateKey.Set(jwk.AlgorithmKey, jwa.ES256))
	require.NoError(t, privateKey.Set(jwk.KeyIDKey, "key-1"))
	publicKey, err := jwk.PublicKeyOf(privateKey)
	require.NoError(t, err)
	return privateKey, publicKey
}

func testConfiguration() openid4vci.CredentialConfiguration {
	return openid4vci.CredentialConfiguration{
		Format: openid4vci.W3CSignedJwtFormat,
		ProofTypesSupported: map[string]openid4vci.ProofTypeMetadata{
			"jwt": {ProofSigningAlgValuesSupported: []string{"ES256"}},
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	privateKey, publicKey := testSigningKey(t)
	signer, err := NewJWKSigner(privateKey)
	require.NoError(t, err)
	bindingKey, err := NewJWKBindingKey(publicKey)
	require.NoError(t, err)

	t.Run("ok - jwk binding", func(t *testing.T) {
		fixedTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		proof, err := NewBuilder(TypeJWT).
			Issuer("https://wallet.example.com").
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(bindingKey).
			CredentialConfiguration(testConfiguration()).
			Clock(func() time.Time { return fixedTime }).
			Build(context.Background(), signer)

		require.NoError(t, err)
		assert.Equal(t, TypeJWT, proof.ProofType)

		// protected headers identify the binding key and the proof type
		message, err := jws.Parse([]byte(proof.JWT))
		require.NoError(t, err)
		headers := message.Signatures()[0].ProtectedHeaders()
		assert.Equal(t, JWTProofTypeHeader, headers.Type())
		assert.Equal(t, jwa.ES256, headers.Algorithm())
		embeddedKey := headers.JWK()
		require.NotNil(t, embeddedKey)
		_, isPrivate := embeddedKey.(jwk.ECDSAPrivateKey)
		assert.False(t, isPrivate)

		// the signature verifies with the public key and the claims are as set
		token, err := jwt.Parse([]byte(proof.JWT), jwt.WithKey(jwa.ES256, publicKey))
		require.NoError(t, err)
		assert.Equal(t, []string{testAudience}, token.Audience())
		assert.Equal(t, "https://wallet.example.com", token.Issuer())
		assert.True(t, fixedTime.Equal(token.IssuedAt()))
		nonce, _ := token.Get("nonce")
		assert.Equal(t, testNonce.String(), nonce)
	})
	t.Run("ok - iss claim is optional", func(t *testing.T) {
		proof, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(bindingKey).
			CredentialConfiguration(testConfiguration()).
			Build(context.Background(), signer)

		require.NoError(t, err)
		token, err := jwt.Parse([]byte(proof.JWT), jwt.WithKey(jwa.ES256, publicKey))
		require.NoError(t, err)
		assert.Empty(t, token.Issuer())
	})
	t.Run("ok - did binding sets kid header", func(t *testing.T) {
		didKey, err := NewDIDBindingKey("did:web:wallet.example.com#key-1")
		require.NoError(t, err)

		proof, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(didKey).
			CredentialConfiguration(testConfiguration()).
			Build(context.Background(), signer)

		require.NoError(t, err)
		message, err := jws.Parse([]byte(proof.JWT))
		require.NoError(t, err)
		headers := message.Signatures()[0].ProtectedHeaders()
		assert.Equal(t, "did:web:wallet.example.com#key-1", headers.KeyID())
		assert.Nil(t, headers.JWK())
	})
	t.Run("ok - x509 binding sets x5c header", func(t *testing.T) {
		x509Key, err := NewX509BindingKey([]*x509.Certificate{testCertificate(t)})
		require.NoError(t, err)

		proof, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(x509Key).
			CredentialConfiguration(testConfiguration()).
			Build(context.Background(), signer)

		require.NoError(t, err)
		message, err := jws.Parse([]byte(proof.JWT))
		require.NoError(t, err)
		chain := message.Signatures()[0].ProtectedHeaders().X509CertChain()
		require.NotNil(t, chain)
		assert.Equal(t, 1, chain.Len())
	})
	t.Run("ok - absent proof_types_supported implies jwt", func(t *testing.T) {
		configuration := testConfiguration()
		configuration.ProofTypesSupported = nil

		_, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(bindingKey).
			CredentialConfiguration(configuration).
			Build(context.Background(), signer)

		assert.NoError(t, err)
	})
	t.Run("error - builder is single-use", func(t *testing.T) {
		builder := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(bindingKey).
			CredentialConfiguration(testConfiguration())

		_, err := builder.Build(context.Background(), signer)
		require.NoError(t, err)
		_, err = builder.Build(context.Background(), signer)

		assert.ErrorIs(t, err, ErrBuilderConsumed)
	})
	t.Run("error - proof type not supported by configuration", func(t *testing.T) {
		configuration := testConfiguration()
		configuration.ProofTypesSupported = map[string]openid4vci.ProofTypeMetadata{
			"cwt": {},
		}

		_, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(bindingKey).
			CredentialConfiguration(configuration).
			Build(context.Background(), signer)

		assert.ErrorIs(t, err, ErrProofTypeNotSupported)
	})
	t.Run("error - cwt and ldp_vp are not implemented", func(t *testing.T) {
		for _, proofType := range []Type{TypeCWT, TypeLDPVP} {
			_, err := NewBuilder(proofType).
				Audience(testAudience).
				Nonce(testNonce).
				BindingKey(bindingKey).
				CredentialConfiguration(testConfiguration()).
				Build(context.Background(), signer)

			assert.ErrorIs(t, err, ErrProofTypeNotImplemented)
		}
	})
	t.Run("error - missing credential configuration", func(t *testing.T) {
		_, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			BindingKey(bindingKey).
			Build(context.Background(), signer)

		assert.ErrorIs(t, err, ErrMissingCredentialConfiguration)
	})
	t.Run("error - missing audience", func(t *testing.T) {
		_, err := NewBuilder(TypeJWT).
			Nonce(testNonce).
			BindingKey(bindingKey).
			CredentialConfiguration(testConfiguration()).
			Build(context.Background(), signer)

		require.ErrorIs(t, err, ErrMissingClaim)
		assert.EqualError(t, err, "missing required claim: aud")
	})
	t.Run("error - missing nonce", func(t *testing.T) {
		_, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			BindingKey(bindingKey).
			CredentialConfiguration(testConfiguration()).
			Build(context.Background(), signer)

		require.ErrorIs(t, err, ErrMissingClaim)
		assert.EqualError(t, err, "missing required claim: nonce")
	})
	t.Run("error - missing binding key", func(t *testing.T) {
		_, err := NewBuilder(TypeJWT).
			Audience(testAudience).
			Nonce(testNonce).
			CredentialConfiguration(testConfiguration()).
			Build(context.Background(), signer)

		assert.ErrorIs(t, err, ErrMissingBindingKey)
	})
}

func TestBindingKeys(t *testing.T) {
	privateKey, publicKey := testSigningKey(t)

	t.Run("jwk binding key rejects private keys", func(t *testing.T) {
		_, err := NewJWKBindingKey(privateKey)

		assert.EqualError(t, err, "binding key must be a public key")
	})
	t.Run("jwk binding key rejects symmetric keys", func(t *testing.T) {
		symmetricKey, err := jwk.FromRaw([]byte("secret"))
		require.NoError(t, err)

		_, err = NewJWKBindingKey(symmetricKey)

		assert.EqualError(t, err, "binding key must be an asymmetric key")
	})
	t.Run("jwk binding key rejects nil", func(t *testing.T) {
		_, err := NewJWKBindingKey(nil)

		assert.EqualError(t, err, "missing binding key")
	})
	t.Run("jwk binding key accepts a public key", func(t *testing.T) {
		bindingKey, err := NewJWKBindingKey(publicKey)

		require.NoError(t, err)
		assert.Equal(t, publicKey, bindingKey.Key())
	})
	t.Run("did binding key rejects blank DIDs", func(t *testing.T) {
		_, err := NewDIDBindingKey(" ")

		assert.EqualError(t, err, "DID must not be blank")
	})
	t.Run("x509 binding key rejects an empty chain", func(t *testing.T) {
		_, err := NewX509BindingKey(nil)

		assert.EqualError(t, err, "certificate chain must not be empty")
	})
	t.Run("x509 binding key rejects nil certificates", func(t *testing.T) {
		_, err := NewX509BindingKey([]*x509.Certificate{testCertificate(t), nil})

		assert.EqualError(t, err, "certificate chain contains nil certificate (index=1)")
	})
}

func testCertificate(t *testing.T) *x509.Certificate {
	t.Helper()
	rawKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "wallet.example.com"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &rawKey.PublicKey, rawKey)
	require.NoError(t, err)
	certificate, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return certificate
}
