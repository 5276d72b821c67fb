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
	"errors"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Signer is the cryptographic seam of the proof builder.
// Implementations sign the proof JWT with the wallet's private key;
// the key itself may live anywhere (memory, KMS, secure element).
type Signer interface {
	// Algorithm returns the JWS algorithm the signer signs with.
	Algorithm() jwa.SignatureAlgorithm
	// SignJWT signs the claims into a JWT carrying the given protected headers,
	// returning the compact serialization. The implementation sets the alg header.
	SignJWT(ctx context.Context, claims map[string]interface{}, headers map[string]interface{}) (string, error)
}

var _ Signer = JWKSigner{}

// JWKSigner is a Signer that performs cryptographic operations on an in-memory JWK.
// This should only be used for low-assurance use cases, e.g. session-bound wallet keys.
type JWKSigner struct {
	key jwk.Key
	alg jwa.SignatureAlgorithm
}

// NewJWKSigner creates a JWKSigner from the given private JWK,
// which must have its alg parameter set to a JWS signature algorithm.
func NewJWKSigner(key jwk.Key) (JWKSigner, error) {
	if key == nil {
		return JWKSigner{}, errors.New("missing signing key")
	}
	alg, ok := key.Algorithm().(jwa.SignatureAlgorithm)
	if !ok || alg == "" {
		return JWKSigner{}, errors.New("signing key must have a JWS signature algorithm set")
	}
	return JWKSigner{key: key, alg: alg}, nil
}

// Algorithm returns the algorithm set on the signing key.
func (s JWKSigner) Algorithm() jwa.SignatureAlgorithm {
	return s.alg
}

// SignJWT signs the claims with the in-memory key and returns the compact token.
func (s JWKSigner) SignJWT(_ context.Context, claims map[string]interface{}, headers map[string]interface{}) (string, error) {
	return signJWT(s.key, s.alg, claims, headers)
}

func signJWT(key jwk.Key, alg jwa.SignatureAlgorithm, claims map[string]interface{}, headers map[string]interface{}) (string, error) {
	token := jwt.New()
	for name, value := range claims {
		if err := token.Set(name, value); err != nil {
			return "", err
		}
	}
	hdr := jws.NewHeaders()
	for name, value := range headers {
		if err := hdr.Set(name, value); err != nil {
			return "", err
		}
	}
	signed, err := jwt.Sign(token, jwt.WithKey(alg, key, jws.WithProtectedHeaders(hdr)))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}
