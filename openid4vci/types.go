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

// Package openid4vci implements the wallet (client) side of the OpenID4VCI credential offer flow:
// it resolves a credential offer deep-link into a validated CredentialOffer,
// fetching and cross-checking the Credential Issuer Metadata and the OAuth2 Authorization Server Metadata.
package openid4vci

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// HTTPSURL is a URL that is guaranteed to use the https scheme.
// It is used for identifiers that the OpenID4VCI specification requires to be HTTPS URLs,
// e.g. the Credential Issuer Identifier.
type HTTPSURL struct {
	url url.URL
}

// ParseHTTPSURL parses the given input as URL and asserts it uses the https scheme and has a host.
func ParseHTTPSURL(input string) (HTTPSURL, error) {
	parsed, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return HTTPSURL{}, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return HTTPSURL{}, fmt.Errorf("URL scheme must be https: %s", input)
	}
	if parsed.Host == "" {
		return HTTPSURL{}, fmt.Errorf("URL is missing a host: %s", input)
	}
	return HTTPSURL{url: *parsed}, nil
}

// String returns the URL as string.
func (u HTTPSURL) String() string {
	return u.url.String()
}

// URL returns a copy of the underlying url.URL.
func (u HTTPSURL) URL() url.URL {
	return u.url
}

// IsZero returns true when the URL is the zero value.
func (u HTTPSURL) IsZero() bool {
	return u.url == url.URL{}
}

// MarshalJSON marshals the URL as JSON string.
func (u HTTPSURL) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON unmarshals a JSON string into the URL, asserting the HTTPS invariant.
func (u *HTTPSURL) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	parsed, err := ParseHTTPSURL(asString)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func nonBlank(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(name + " must not be blank")
	}
	return nil
}

// Scope is an OAuth2 scope value identifying a credential on offer.
type Scope string

// NewScope creates a Scope, which must not be blank.
func NewScope(value string) (Scope, error) {
	if err := nonBlank("scope", value); err != nil {
		return "", err
	}
	return Scope(value), nil
}

func (s Scope) String() string {
	return string(s)
}

// AccessToken is an OAuth2 access token as returned by the token endpoint.
type AccessToken string

// NewAccessToken creates an AccessToken, which must not be blank.
func NewAccessToken(value string) (AccessToken, error) {
	if err := nonBlank("access token", value); err != nil {
		return "", err
	}
	return AccessToken(value), nil
}

func (t AccessToken) String() string {
	return string(t)
}

// AuthorizationCode is an OAuth2 authorization code.
type AuthorizationCode string

// NewAuthorizationCode creates an AuthorizationCode, which must not be blank.
func NewAuthorizationCode(value string) (AuthorizationCode, error) {
	if err := nonBlank("authorization code", value); err != nil {
		return "", err
	}
	return AuthorizationCode(value), nil
}

func (c AuthorizationCode) String() string {
	return string(c)
}

// CNonce is the issuer-provided nonce (c_nonce) a proof of possession must be bound to.
type CNonce string

// NewCNonce creates a CNonce, which must not be blank.
func NewCNonce(value string) (CNonce, error) {
	if err := nonBlank("c_nonce", value); err != nil {
		return "", err
	}
	return CNonce(value), nil
}

func (n CNonce) String() string {
	return string(n)
}

// TransactionID identifies a deferred credential issuance transaction.
type TransactionID string

// NewTransactionID creates a TransactionID, which must not be blank.
func NewTransactionID(value string) (TransactionID, error) {
	if err := nonBlank("transaction_id", value); err != nil {
		return "", err
	}
	return TransactionID(value), nil
}

func (t TransactionID) String() string {
	return string(t)
}

// NotificationID identifies an issued credential towards the issuer's notification endpoint.
type NotificationID string

// NewNotificationID creates a NotificationID, which must not be blank.
func NewNotificationID(value string) (NotificationID, error) {
	if err := nonBlank("notification_id", value); err != nil {
		return "", err
	}
	return NotificationID(value), nil
}

func (n NotificationID) String() string {
	return string(n)
}

// CredentialConfigurationID keys an entry in the issuer's supported credential configurations.
type CredentialConfigurationID string

// NewCredentialConfigurationID creates a CredentialConfigurationID, which must not be blank.
func NewCredentialConfigurationID(value string) (CredentialConfigurationID, error) {
	if err := nonBlank("credential configuration identifier", value); err != nil {
		return "", err
	}
	return CredentialConfigurationID(value), nil
}

func (i CredentialConfigurationID) String() string {
	return string(i)
}

// CredentialID identifies a concrete credential instance at the issuer.
type CredentialID string

// NewCredentialID creates a CredentialID, which must not be blank.
func NewCredentialID(value string) (CredentialID, error) {
	if err := nonBlank("credential identifier", value); err != nil {
		return "", err
	}
	return CredentialID(value), nil
}

func (i CredentialID) String() string {
	return string(i)
}
