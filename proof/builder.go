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
	"fmt"
	"time"

	"github.com/nuts-foundation/go-openid4vci/openid4vci"
)

var (
	// ErrProofTypeNotSupported is returned when the credential configuration does not list
	// the builder's proof type among its supported proof types.
	ErrProofTypeNotSupported = errors.New("proof type is not supported by the credential configuration")
	// ErrProofTypeNotImplemented is returned when building a proof type this library cannot produce (cwt, ldp_vp).
	ErrProofTypeNotImplemented = errors.New("proof type is not implemented")
	// ErrBuilderConsumed is returned when Build is invoked more than once on the same builder.
	ErrBuilderConsumed = errors.New("proof builder has already built its proof")
	// ErrMissingClaim is returned when a required claim was not set before Build.
	ErrMissingClaim = errors.New("missing required claim")
	// ErrMissingBindingKey is returned when no binding key was set before Build.
	ErrMissingBindingKey = errors.New("missing binding key")
	// ErrMissingCredentialConfiguration is returned when no credential configuration was set before Build.
	ErrMissingCredentialConfiguration = errors.New("missing credential configuration")
)

// Builder accumulates the claims of one proof of possession and signs it exactly once.
// Setters are idempotent overwrites and may be called in any order before Build;
// Build is the terminal transition and consumes the builder.
// A Builder is single-owner: it must not be shared across concurrent build attempts.
type Builder struct {
	proofType     Type
	issuer        string
	audience      string
	nonce         openid4vci.CNonce
	bindingKey    BindingKey
	configuration *openid4vci.CredentialConfiguration
	clock         func() time.Time
	built         bool
}

// NewBuilder creates a Builder for the given proof type.
// Only TypeJWT can produce a proof; the other types fail at Build with ErrProofTypeNotImplemented.
func NewBuilder(proofType Type) *Builder {
	return &Builder{
		proofType: proofType,
		clock:     time.Now,
	}
}

// Issuer sets the optional iss claim, identifying the wallet as OAuth2 client.
func (b *Builder) Issuer(issuer string) *Builder {
	b.issuer = issuer
	return b
}

// Audience sets the aud claim: the Credential Issuer Identifier the proof is addressed to.
func (b *Builder) Audience(audience string) *Builder {
	b.audience = audience
	return b
}

// Nonce sets the nonce claim: the c_nonce the issuer provided for this credential request.
func (b *Builder) Nonce(nonce openid4vci.CNonce) *Builder {
	b.nonce = nonce
	return b
}

// BindingKey sets the public key material the credential shall be bound to.
func (b *Builder) BindingKey(key BindingKey) *Builder {
	b.bindingKey = key
	return b
}

// CredentialConfiguration sets the credential configuration the proof is built for.
// Build validates the proof type against the configuration's supported proof types.
func (b *Builder) CredentialConfiguration(configuration openid4vci.CredentialConfiguration) *Builder {
	b.configuration = &configuration
	return b
}

// Clock overrides the time source for the iat claim.
func (b *Builder) Clock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the accumulated state and signs the proof with the given signer.
// It can be called exactly once per builder; subsequent calls return ErrBuilderConsumed.
func (b *Builder) Build(ctx context.Context, signer Signer) (*Proof, error) {
	if b.built {
		return nil, ErrBuilderConsumed
	}
	b.built = true

	switch b.proofType {
	case TypeJWT:
		// the only implemented proof type
	case TypeCWT, TypeLDPVP:
		return nil, fmt.Errorf("%w: %s", ErrProofTypeNotImplemented, b.proofType)
	default:
		return nil, fmt.Errorf("unknown proof type: %s", b.proofType)
	}

	if b.configuration == nil {
		return nil, ErrMissingCredentialConfiguration
	}
	if !b.configuration.SupportsProofType(string(b.proofType)) {
		return nil, fmt.Errorf("%w: %s", ErrProofTypeNotSupported, b.proofType)
	}
	if b.audience == "" {
		return nil, fmt.Errorf("%w: aud", ErrMissingClaim)
	}
	if b.nonce == "" {
		return nil, fmt.Errorf("%w: nonce", ErrMissingClaim)
	}
	if b.bindingKey == nil {
		return nil, ErrMissingBindingKey
	}

	headers := map[string]interface{}{
		"typ": JWTProofTypeHeader,
	}
	for name, value := range b.bindingKey.jwsHeaders() {
		headers[name] = value
	}
	claims := map[string]interface{}{
		"aud":   b.audience,
		"nonce": b.nonce.String(),
		"iat":   b.clock().Unix(),
	}
	if b.issuer != "" {
		claims["iss"] = b.issuer
	}

	token, err := signer.SignJWT(ctx, claims, headers)
	if err != nil {
		return nil, fmt.Errorf("unable to sign proof: %w", err)
	}
	return &Proof{ProofType: TypeJWT, JWT: token}, nil
}
