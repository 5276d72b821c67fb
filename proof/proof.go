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

// Package proof builds proofs of possession as required when requesting a credential over OpenID4VCI:
// a signed JWT binding a wallet key to the issuer-provided nonce and audience.
package proof

// Type identifies a proof of possession type defined by the OpenID4VCI specification.
type Type string

const (
	// TypeJWT is the jwt proof type. It is the only proof type with a working builder.
	TypeJWT Type = "jwt"
	// TypeCWT is the cwt proof type. Building it is not implemented.
	TypeCWT Type = "cwt"
	// TypeLDPVP is the ldp_vp proof type. Building it is not implemented.
	TypeLDPVP Type = "ldp_vp"
)

// JWTProofTypeHeader is the JOSE typ header value of a JWT proof of possession,
// which explicitly types the proof JWT as recommended in Section 3.11 of RFC8725.
const JWTProofTypeHeader = "openid4vci-proof+jwt"

// Proof is a signed proof of possession. It marshals to the proof member of a credential request.
type Proof struct {
	// ProofType names the proof type the artifact carries.
	ProofType Type `json:"proof_type"`
	// JWT is the signed proof for the jwt proof type, in compact serialization.
	JWT string `json:"jwt,omitempty"`
}
