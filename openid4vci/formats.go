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

package openid4vci

import (
	"errors"
	"fmt"
	"slices"
)

// The closed registry of credential format identifiers this library understands.
// Credential offers referencing any other format fail validation with InvalidCredentials.
const (
	// MsoMdocFormat identifies ISO/IEC 18013-5 mdoc credentials.
	MsoMdocFormat = "mso_mdoc"
	// SdJwtVcFormat identifies IETF SD-JWT Verifiable Credentials.
	SdJwtVcFormat = "vc+sd-jwt"
	// W3CSignedJwtFormat identifies W3C Verifiable Credentials secured as JWT.
	W3CSignedJwtFormat = "jwt_vc_json"
	// W3CJsonLdSignedJwtFormat identifies W3C JSON-LD Verifiable Credentials secured as JWT.
	W3CJsonLdSignedJwtFormat = "jwt_vc_json-ld"
	// W3CJsonLdDataIntegrityFormat identifies W3C JSON-LD Verifiable Credentials secured with Data Integrity proofs.
	W3CJsonLdDataIntegrityFormat = "ldp_vc"
)

// CredentialMetadata references one credential on offer, either by scope or by
// a format-specific identifier resolved against the issuer's advertised configurations.
// It is a closed sum type: the implementations in this package are the only ones.
type CredentialMetadata interface {
	// CredentialFormat returns the format identifier of the reference, or empty for a by-scope reference.
	CredentialFormat() string
}

// ByScopeCredential references a credential by its OAuth2 scope value.
type ByScopeCredential struct {
	Scope Scope `json:"scope"`
}

func (ByScopeCredential) CredentialFormat() string { return "" }

// MsoMdocCredential references an ISO mdoc credential by its document type.
type MsoMdocCredential struct {
	Doctype string `json:"doctype"`
	Scope   Scope  `json:"scope,omitempty"`
}

func (MsoMdocCredential) CredentialFormat() string { return MsoMdocFormat }

// SdJwtVcCredential references an SD-JWT VC by its verifiable credential type.
type SdJwtVcCredential struct {
	Vct   string `json:"vct"`
	Scope Scope  `json:"scope,omitempty"`
}

func (SdJwtVcCredential) CredentialFormat() string { return SdJwtVcFormat }

// W3CSignedJwtCredential references a W3C credential secured as JWT by its credential definition.
type W3CSignedJwtCredential struct {
	Definition CredentialDefinition `json:"credential_definition"`
	Scope      Scope                `json:"scope,omitempty"`
}

func (W3CSignedJwtCredential) CredentialFormat() string { return W3CSignedJwtFormat }

// W3CJsonLdSignedJwtCredential references a W3C JSON-LD credential secured as JWT by its credential definition.
type W3CJsonLdSignedJwtCredential struct {
	Definition CredentialDefinition `json:"credential_definition"`
	Scope      Scope                `json:"scope,omitempty"`
}

func (W3CJsonLdSignedJwtCredential) CredentialFormat() string { return W3CJsonLdSignedJwtFormat }

// W3CJsonLdDataIntegrityCredential references a W3C JSON-LD credential secured with Data Integrity proofs.
type W3CJsonLdDataIntegrityCredential struct {
	Definition CredentialDefinition `json:"credential_definition"`
	Scope      Scope                `json:"scope,omitempty"`
}

func (W3CJsonLdDataIntegrityCredential) CredentialFormat() string { return W3CJsonLdDataIntegrityFormat }

// rawCredentialEntry is a credential reference in an offer payload before validation.
type rawCredentialEntry struct {
	Format               string                `json:"format"`
	Doctype              string                `json:"doctype,omitempty"`
	Vct                  string                `json:"vct,omitempty"`
	CredentialDefinition *CredentialDefinition `json:"credential_definition,omitempty"`
}

// resolve cross-checks the entry against the issuer's advertised configurations and
// returns the strongly typed credential reference. All failures are reported as InvalidCredentials.
func (e rawCredentialEntry) resolve(issuerMetadata CredentialIssuerMetadata) (CredentialMetadata, error) {
	configuration, err := e.matchConfiguration(issuerMetadata)
	if err != nil {
		return nil, Error{Code: InvalidCredentials, Err: err}
	}
	scope := Scope(configuration.Scope)
	switch e.Format {
	case MsoMdocFormat:
		return MsoMdocCredential{Doctype: e.Doctype, Scope: scope}, nil
	case SdJwtVcFormat:
		return SdJwtVcCredential{Vct: e.Vct, Scope: scope}, nil
	case W3CSignedJwtFormat:
		return W3CSignedJwtCredential{Definition: *e.CredentialDefinition, Scope: scope}, nil
	case W3CJsonLdSignedJwtFormat:
		return W3CJsonLdSignedJwtCredential{Definition: *e.CredentialDefinition, Scope: scope}, nil
	case W3CJsonLdDataIntegrityFormat:
		return W3CJsonLdDataIntegrityCredential{Definition: *e.CredentialDefinition, Scope: scope}, nil
	default:
		// unreachable, matchConfiguration rejects unknown formats
		return nil, Error{Code: InvalidCredentials, Err: fmt.Errorf("unknown credential format: %s", e.Format)}
	}
}

// matchConfiguration finds the issuer's credential configuration this entry refers to.
func (e rawCredentialEntry) matchConfiguration(issuerMetadata CredentialIssuerMetadata) (*CredentialConfiguration, error) {
	if err := e.validateShape(); err != nil {
		return nil, err
	}
	for _, configuration := range issuerMetadata.CredentialsSupported {
		if configuration.Format != e.Format {
			continue
		}
		if e.describesConfiguration(configuration) {
			result := configuration
			return &result, nil
		}
	}
	return nil, fmt.Errorf("credential (format=%s) is not offered by the credential issuer", e.Format)
}

// validateShape checks the format-specific required fields.
func (e rawCredentialEntry) validateShape() error {
	switch e.Format {
	case MsoMdocFormat:
		if e.Doctype == "" {
			return errors.New("invalid mso_mdoc credential: missing doctype")
		}
	case SdJwtVcFormat:
		if e.Vct == "" {
			return errors.New("invalid vc+sd-jwt credential: missing vct")
		}
	case W3CSignedJwtFormat:
		if e.CredentialDefinition == nil || len(e.CredentialDefinition.Type) == 0 {
			return errors.New("invalid jwt_vc_json credential: missing credential_definition type")
		}
	case W3CJsonLdSignedJwtFormat, W3CJsonLdDataIntegrityFormat:
		if err := validateJsonLdDefinition(e.CredentialDefinition); err != nil {
			return fmt.Errorf("invalid %s credential: %w", e.Format, err)
		}
	default:
		return fmt.Errorf("unknown credential format: %s", e.Format)
	}
	return nil
}

// describesConfiguration checks whether the entry's format-specific identifiers
// match the given advertised configuration.
func (e rawCredentialEntry) describesConfiguration(configuration CredentialConfiguration) bool {
	switch e.Format {
	case MsoMdocFormat:
		return configuration.Doctype == e.Doctype
	case SdJwtVcFormat:
		return configuration.Vct == e.Vct
	case W3CSignedJwtFormat:
		return configuration.CredentialDefinition != nil &&
			sameMembers(configuration.CredentialDefinition.Type, e.CredentialDefinition.Type)
	case W3CJsonLdSignedJwtFormat, W3CJsonLdDataIntegrityFormat:
		return configuration.CredentialDefinition != nil &&
			sameMembers(configuration.CredentialDefinition.Type, e.CredentialDefinition.Type) &&
			sameMembers(configuration.CredentialDefinition.Context, e.CredentialDefinition.Context)
	}
	return false
}

func validateJsonLdDefinition(definition *CredentialDefinition) error {
	if definition == nil {
		return errors.New("missing credential_definition")
	}
	if len(definition.Context) == 0 {
		return errors.New("missing @context in credential_definition")
	}
	if len(definition.Type) == 0 {
		return errors.New("missing type in credential_definition")
	}
	return nil
}

// validate checks that an advertised credential configuration is well-formed.
// Unknown formats are allowed in issuer metadata (the issuer may support more than this library),
// but known formats must carry their required fields.
func (c CredentialConfiguration) validate() error {
	if c.Format == "" {
		return errors.New("missing format")
	}
	entry := rawCredentialEntry{
		Format:               c.Format,
		Doctype:              c.Doctype,
		Vct:                  c.Vct,
		CredentialDefinition: c.CredentialDefinition,
	}
	switch c.Format {
	case MsoMdocFormat, SdJwtVcFormat, W3CSignedJwtFormat, W3CJsonLdSignedJwtFormat, W3CJsonLdDataIntegrityFormat:
		return entry.validateShape()
	}
	return nil
}

// sameMembers compares two string slices ignoring order.
func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sortedA := slices.Clone(a)
	sortedB := slices.Clone(b)
	slices.Sort(sortedA)
	slices.Sort(sortedB)
	return slices.Equal(sortedA, sortedB)
}
