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
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/cert"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// BindingKey is the public key material a proof of possession binds the credential to.
// It is a closed sum type: JWKBindingKey, DIDBindingKey and X509BindingKey are the only implementations.
// Each variant maps to its own JOSE header in the proof JWT (jwk, kid or x5c).
type BindingKey interface {
	// jwsHeaders returns the JOSE header entries identifying the key.
	jwsHeaders() map[string]interface{}
}

// JWKBindingKey binds the credential to a raw public JWK, embedded in the proof header.
type JWKBindingKey struct {
	key jwk.Key
}

// NewJWKBindingKey creates a JWKBindingKey from the given JWK, which must be an asymmetric public key.
// Private and symmetric keys are rejected: the proof header embeds the key verbatim.
func NewJWKBindingKey(key jwk.Key) (JWKBindingKey, error) {
	if key == nil {
		return JWKBindingKey{}, errors.New("missing binding key")
	}
	switch key.(type) {
	case jwk.RSAPrivateKey, jwk.ECDSAPrivateKey, jwk.OKPPrivateKey:
		return JWKBindingKey{}, errors.New("binding key must be a public key")
	case jwk.SymmetricKey:
		return JWKBindingKey{}, errors.New("binding key must be an asymmetric key")
	}
	return JWKBindingKey{key: key}, nil
}

// Key returns the public JWK.
func (k JWKBindingKey) Key() jwk.Key {
	return k.key
}

func (k JWKBindingKey) jwsHeaders() map[string]interface{} {
	return map[string]interface{}{"jwk": k.key}
}

// DIDBindingKey binds the credential to a key identified by a DID URL,
// carried in the kid header of the proof JWT.
type DIDBindingKey struct {
	did string
}

// NewDIDBindingKey creates a DIDBindingKey from the given DID URL, which must not be blank.
// The DID is treated as an opaque identity string; resolving it is the issuer's concern.
func NewDIDBindingKey(did string) (DIDBindingKey, error) {
	if strings.TrimSpace(did) == "" {
		return DIDBindingKey{}, errors.New("DID must not be blank")
	}
	return DIDBindingKey{did: did}, nil
}

// DID returns the DID URL identifying the key.
func (k DIDBindingKey) DID() string {
	return k.did
}

func (k DIDBindingKey) jwsHeaders() map[string]interface{} {
	return map[string]interface{}{"kid": k.did}
}

// X509BindingKey binds the credential to the public key of an X.509 certificate chain,
// carried in the x5c header of the proof JWT.
type X509BindingKey struct {
	chain *cert.Chain
}

// NewX509BindingKey creates an X509BindingKey from the given certificate chain, which must not be empty.
// The first certificate must hold the key the proof is signed with.
func NewX509BindingKey(chain []*x509.Certificate) (X509BindingKey, error) {
	if len(chain) == 0 {
		return X509BindingKey{}, errors.New("certificate chain must not be empty")
	}
	headerChain := &cert.Chain{}
	for i, certificate := range chain {
		if certificate == nil {
			return X509BindingKey{}, fmt.Errorf("certificate chain contains nil certificate (index=%d)", i)
		}
		if err := headerChain.Add([]byte(base64.StdEncoding.EncodeToString(certificate.Raw))); err != nil {
			return X509BindingKey{}, fmt.Errorf("unable to encode certificate chain: %w", err)
		}
	}
	return X509BindingKey{chain: headerChain}, nil
}

// Chain returns the base64 encoded DER certificates as carried in the x5c header.
func (k X509BindingKey) Chain() *cert.Chain {
	return k.chain
}

func (k X509BindingKey) jwsHeaders() map[string]interface{} {
	return map[string]interface{}{"x5c": k.chain}
}
