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
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWKSigner(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		privateKey, _ := testSigningKey(t)

		signer, err := NewJWKSigner(privateKey)

		require.NoError(t, err)
		assert.Equal(t, jwa.ES256, signer.Algorithm())
	})
	t.Run("error - nil key", func(t *testing.T) {
		_, err := NewJWKSigner(nil)

		assert.EqualError(t, err, "missing signing key")
	})
	t.Run("error - key without alg", func(t *testing.T) {
		privateKey, _ := testSigningKey(t)
		require.NoError(t, privateKey.Remove(jwk.AlgorithmKey))

		_, err := NewJWKSigner(privateKey)

		assert.EqualError(t, err, "signing key must have a JWS signature algorithm set")
	})
}

func TestJWKSigner_SignJWT(t *testing.T) {
	privateKey, publicKey := testSigningKey(t)
	signer, err := NewJWKSigner(privateKey)
	require.NoError(t, err)

	t.Run("ok - signature verifies with the public key", func(t *testing.T) {
		token, err := signer.SignJWT(context.Background(),
			map[string]interface{}{"aud": "https://issuer.example.com"},
			map[string]interface{}{"typ": JWTProofTypeHeader})

		require.NoError(t, err)
		parsed, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.ES256, publicKey))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://issuer.example.com"}, parsed.Audience())

		message, err := jws.Parse([]byte(token))
		require.NoError(t, err)
		headers := message.Signatures()[0].ProtectedHeaders()
		assert.Equal(t, JWTProofTypeHeader, headers.Type())
		assert.Equal(t, jwa.ES256, headers.Algorithm())
	})
	t.Run("error - tampered token fails verification", func(t *testing.T) {
		token, err := signer.SignJWT(context.Background(),
			map[string]interface{}{"aud": "https://issuer.example.com"}, nil)
		require.NoError(t, err)
		otherKey, _ := testSigningKey(t)

		_, err = jwt.Parse([]byte(token), jwt.WithKey(jwa.ES256, otherKey))

		assert.Error(t, err)
	})
}
