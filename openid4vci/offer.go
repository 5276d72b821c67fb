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
	"encoding/json"
	"errors"
	"fmt"
)

// CredentialOfferPayload is the decoded but not yet validated credential offer document.
// It is produced by ParseCredentialOffer and consumed by AssembleCredentialOffer;
// no cross-validation against metadata has happened at this point.
type CredentialOfferPayload struct {
	// CredentialIssuer is the raw Credential Issuer Identifier.
	CredentialIssuer string
	// Credentials holds the raw credential references, in source order.
	// Each entry is either a JSON string (scope) or a JSON object naming a format.
	Credentials []json.RawMessage
	// Grants is the raw grants object, may be nil.
	Grants json.RawMessage
}

// ParseCredentialOffer decodes a credential offer document.
// This is purely syntactic: malformed JSON or a missing required member fails with InvalidCredentialOffer.
func ParseCredentialOffer(data []byte) (*CredentialOfferPayload, error) {
	var raw struct {
		CredentialIssuer string            `json:"credential_issuer"`
		Credentials      []json.RawMessage `json:"credentials"`
		Grants           json.RawMessage   `json:"grants"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Error{Code: InvalidCredentialOffer, Err: fmt.Errorf("malformed credential offer: %w", err)}
	}
	if raw.CredentialIssuer == "" {
		return nil, Error{Code: InvalidCredentialOffer, Err: errors.New("missing credential_issuer")}
	}
	if len(raw.Credentials) == 0 {
		return nil, Error{Code: InvalidCredentialOffer, Err: errors.New("missing credentials")}
	}
	return &CredentialOfferPayload{
		CredentialIssuer: raw.CredentialIssuer,
		Credentials:      raw.Credentials,
		Grants:           raw.Grants,
	}, nil
}

// CredentialOffer is a fully resolved and validated credential offer.
// It is only constructed by AssembleCredentialOffer after all cross-checks passed, and immutable afterwards.
type CredentialOffer struct {
	// CredentialIssuer is the validated Credential Issuer Identifier.
	CredentialIssuer HTTPSURL `json:"credential_issuer"`
	// IssuerMetadata is the resolved Credential Issuer Metadata.
	IssuerMetadata CredentialIssuerMetadata `json:"issuer_metadata"`
	// AuthorizationServerMetadata is the resolved metadata of the authorization server handling the offer's grants.
	AuthorizationServerMetadata AuthorizationServerMetadata `json:"authorization_server_metadata"`
	// Credentials are the offered credentials, preserving the order of the offer payload.
	Credentials []CredentialMetadata `json:"credentials"`
	// Grants describes the grants the offer can be redeemed with.
	Grants Grants `json:"grants"`
}

// AssembleCredentialOffer cross-validates the parsed offer payload against the two resolved
// metadata documents and assembles the CredentialOffer.
// Assembly is all-or-nothing: any validation failure aborts without a partial result.
func AssembleCredentialOffer(payload CredentialOfferPayload, issuerMetadata CredentialIssuerMetadata,
	authzServerMetadata AuthorizationServerMetadata) (*CredentialOffer, error) {
	credentialIssuer, err := ParseHTTPSURL(payload.CredentialIssuer)
	if err != nil {
		return nil, Error{Code: InvalidCredentialOffer, Err: fmt.Errorf("invalid credential_issuer: %w", err)}
	}

	credentials := make([]CredentialMetadata, 0, len(payload.Credentials))
	for i, rawEntry := range payload.Credentials {
		credential, err := resolveCredentialReference(rawEntry, issuerMetadata)
		if err != nil {
			return nil, fmt.Errorf("credential at index %d: %w", i, err)
		}
		credentials = append(credentials, credential)
	}

	grants, err := decodeGrants(payload.Grants)
	if err != nil {
		return nil, err
	}

	return &CredentialOffer{
		CredentialIssuer:            credentialIssuer,
		IssuerMetadata:              issuerMetadata,
		AuthorizationServerMetadata: authzServerMetadata,
		Credentials:                 credentials,
		Grants:                      *grants,
	}, nil
}

// resolveCredentialReference turns one raw credentials array entry into a CredentialMetadata.
// A JSON string is a by-scope reference and passes through without cross-checks:
// scope correctness is the issuer's concern at request time.
func resolveCredentialReference(rawEntry json.RawMessage, issuerMetadata CredentialIssuerMetadata) (CredentialMetadata, error) {
	var asString string
	if err := json.Unmarshal(rawEntry, &asString); err == nil {
		scope, err := NewScope(asString)
		if err != nil {
			return nil, Error{Code: InvalidCredentials, Err: err}
		}
		return ByScopeCredential{Scope: scope}, nil
	}

	var entry rawCredentialEntry
	if err := json.Unmarshal(rawEntry, &entry); err != nil {
		return nil, Error{Code: InvalidCredentials, Err: fmt.Errorf("malformed credential reference: %w", err)}
	}
	return entry.resolve(issuerMetadata)
}
