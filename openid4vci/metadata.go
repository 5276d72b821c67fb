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

// metadata endpoints
const (
	// CredentialIssuerMetadataWellKnownPath is the well-known path for the Credential Issuer Metadata,
	// as defined by the OpenID4VCI specification.
	CredentialIssuerMetadataWellKnownPath = "/.well-known/openid-credential-issuer"
	// AuthzServerWellKnownPath is the well-known base path for the OAuth2 Authorization Server Metadata as defined in RFC8414.
	AuthzServerWellKnownPath = "/.well-known/oauth-authorization-server"
	// OpenIDConfigurationWellKnownPath is the well-known base path for the OpenID Connect discovery document,
	// used as fallback when the RFC8414 endpoint is not served.
	OpenIDConfigurationWellKnownPath = "/.well-known/openid-configuration"
)

// grant types
const (
	// AuthorizationCodeGrantType is the grant_type for the authorization_code grant type. (RFC6749)
	AuthorizationCodeGrantType = "authorization_code"
	// PreAuthorizedCodeGrantType is the grant_type for the pre-authorized_code grant type. (OpenID4VCI)
	PreAuthorizedCodeGrantType = "urn:ietf:params:oauth:grant-type:pre-authorized_code"
)

// CredentialIssuerMetadata is the Credential Issuer's advertised configuration,
// fetched from its well-known endpoint. Immutable once resolved.
type CredentialIssuerMetadata struct {
	// CredentialIssuer is the Credential Issuer Identifier, an HTTPS URL.
	CredentialIssuer string `json:"credential_issuer"`

	// AuthorizationServers lists the OAuth2 Authorization Servers the issuer delegates to.
	// When absent the issuer hosts its own authorization server.
	AuthorizationServers []string `json:"authorization_servers,omitempty"`

	// CredentialEndpoint is the URL credentials are requested from.
	CredentialEndpoint string `json:"credential_endpoint"`

	// DeferredCredentialEndpoint is the URL deferred credentials are retrieved from, if supported.
	DeferredCredentialEndpoint string `json:"deferred_credential_endpoint,omitempty"`

	// NotificationEndpoint is the URL the wallet reports credential acceptance to, if supported.
	NotificationEndpoint string `json:"notification_endpoint,omitempty"`

	// CredentialsSupported describes the credential configurations the issuer can issue,
	// keyed by an opaque configuration identifier.
	CredentialsSupported map[CredentialConfigurationID]CredentialConfiguration `json:"credential_configurations_supported"`

	// Display holds issuer display properties for wallet UIs.
	Display []Display `json:"display,omitempty"`
}

// validate checks internal consistency of the metadata against the identifier it was resolved for.
func (m CredentialIssuerMetadata) validate(expectedIssuer string) error {
	if m.CredentialIssuer != expectedIssuer {
		return errors.New("invalid credential issuer meta data: identifier in meta data differs from requested identifier")
	}
	if len(m.CredentialEndpoint) == 0 {
		return errors.New("invalid credential issuer meta data: does not contain credential endpoint")
	}
	if len(m.CredentialsSupported) == 0 {
		return errors.New("invalid credential issuer meta data: does not contain supported credential configurations")
	}
	for id, configuration := range m.CredentialsSupported {
		if err := configuration.validate(); err != nil {
			return fmt.Errorf("invalid credential configuration (id=%s): %w", id, err)
		}
	}
	return nil
}

// CredentialConfiguration describes one credential the issuer can issue:
// its format, the scope requesting it, and the format-specific shape.
type CredentialConfiguration struct {
	// Format is the credential format identifier, e.g. mso_mdoc or jwt_vc_json.
	Format string `json:"format"`

	// Scope is the OAuth2 scope value that requests issuance of this credential, may be empty.
	Scope string `json:"scope,omitempty"`

	// CryptographicBindingMethodsSupported lists supported key binding methods (e.g. jwk, did:jwk).
	CryptographicBindingMethodsSupported []string `json:"cryptographic_binding_methods_supported,omitempty"`

	// CredentialSigningAlgValuesSupported lists algorithms the issuer may sign the credential with.
	CredentialSigningAlgValuesSupported []string `json:"credential_signing_alg_values_supported,omitempty"`

	// ProofTypesSupported lists the proof of possession types accepted for this credential,
	// keyed by proof type identifier (jwt, cwt, ldp_vp).
	ProofTypesSupported map[string]ProofTypeMetadata `json:"proof_types_supported,omitempty"`

	// Doctype is the ISO mdoc document type. Required for the mso_mdoc format.
	Doctype string `json:"doctype,omitempty"`

	// Vct is the verifiable credential type. Required for the vc+sd-jwt format.
	Vct string `json:"vct,omitempty"`

	// CredentialDefinition is the W3C credential definition. Required for the
	// jwt_vc_json, jwt_vc_json-ld and ldp_vc formats.
	CredentialDefinition *CredentialDefinition `json:"credential_definition,omitempty"`

	// Display holds credential display properties for wallet UIs.
	Display []Display `json:"display,omitempty"`
}

// SupportsProofType reports whether this credential configuration accepts the given proof type.
// An issuer that advertises no proof types accepts the default jwt proof type.
func (c CredentialConfiguration) SupportsProofType(proofType string) bool {
	if len(c.ProofTypesSupported) == 0 {
		return proofType == "jwt"
	}
	_, ok := c.ProofTypesSupported[proofType]
	return ok
}

// ProofTypeMetadata describes issuer requirements for one proof of possession type.
type ProofTypeMetadata struct {
	// ProofSigningAlgValuesSupported lists the JOSE/COSE algorithms the proof may be signed with.
	ProofSigningAlgValuesSupported []string `json:"proof_signing_alg_values_supported,omitempty"`
}

// CredentialDefinition describes a W3C Verifiable Credential by its JSON-LD context and type.
type CredentialDefinition struct {
	Context []string `json:"@context,omitempty"`
	Type    []string `json:"type,omitempty"`
}

// Display holds localizable display properties.
type Display struct {
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// AuthorizationServerMetadata defines the OAuth2 Authorization Server metadata.
// Specified by https://www.rfc-editor.org/rfc/rfc8414.txt
type AuthorizationServerMetadata struct {
	// Issuer defines the authorization server's identifier, which is a URL that uses the "https" scheme and has no query or fragment components.
	Issuer string `json:"issuer,omitempty"`

	// AuthorizationEndpoint defines the URL of the authorization server's authorization endpoint [RFC6749]
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`

	// TokenEndpoint defines the URL of the authorization server's token endpoint [RFC6749].
	TokenEndpoint string `json:"token_endpoint,omitempty"`

	// ResponseTypesSupported defines what response types a client can request.
	ResponseTypesSupported []string `json:"response_types_supported,omitempty"`

	// GrantTypesSupported is a list of the OAuth 2.0 grant type values that this authorization server supports.
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// PreAuthorizedGrantAnonymousAccessSupported indicates whether anonymous access (requests without client_id) is
	// allowed for pre-authorized code grant flows.
	PreAuthorizedGrantAnonymousAccessSupported bool `json:"pre-authorized_grant_anonymous_access_supported,omitempty"`
}

// Equals compares the metadata field-by-field.
// Structural equality is defined explicitly since callers must be able to compare
// metadata documents resolved through different routes.
func (m AuthorizationServerMetadata) Equals(other AuthorizationServerMetadata) bool {
	return m.Issuer == other.Issuer &&
		m.AuthorizationEndpoint == other.AuthorizationEndpoint &&
		m.TokenEndpoint == other.TokenEndpoint &&
		slices.Equal(m.ResponseTypesSupported, other.ResponseTypesSupported) &&
		slices.Equal(m.GrantTypesSupported, other.GrantTypesSupported) &&
		m.PreAuthorizedGrantAnonymousAccessSupported == other.PreAuthorizedGrantAnonymousAccessSupported
}

// SupportsGrantType checks whether the Authorization Server supports the given grant type.
func (m AuthorizationServerMetadata) SupportsGrantType(grantType string) bool {
	return slices.Contains(m.GrantTypesSupported, grantType)
}

// validate checks internal consistency of the metadata against the identifier it was resolved for.
func (m AuthorizationServerMetadata) validate(expectedIssuer string) error {
	if m.Issuer != expectedIssuer {
		return errors.New("invalid authorization server meta data: issuer in meta data differs from requested issuer")
	}
	if len(m.TokenEndpoint) == 0 {
		return errors.New("invalid authorization server meta data: does not contain token endpoint")
	}
	return nil
}
