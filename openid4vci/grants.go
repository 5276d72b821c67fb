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
	"strings"
)

// defaultPreAuthorizedInterval is the polling interval (in seconds) the OpenID4VCI
// specification prescribes when the offer does not carry one.
const defaultPreAuthorizedInterval = 5

// Grants describes which OAuth2 grants the credential offer can be redeemed with.
// At least one of the fields is non-nil: an offer without a grants object defaults
// to the authorization code grant. Both fields non-nil means the wallet may choose either.
type Grants struct {
	AuthorizationCode *AuthorizationCodeGrant `json:"authorization_code,omitempty"`
	PreAuthorizedCode *PreAuthorizedCodeGrant `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code,omitempty"`
}

// Both returns true when the offer carries both the authorization code and the pre-authorized code grant.
func (g Grants) Both() bool {
	return g.AuthorizationCode != nil && g.PreAuthorizedCode != nil
}

// AuthorizationCodeGrant is the authorization_code grant of a credential offer.
type AuthorizationCodeGrant struct {
	// IssuerState is an opaque value the wallet must relay in the authorization request, may be empty (absent).
	IssuerState string `json:"issuer_state,omitempty"`
}

// PreAuthorizedCodeGrant is the urn:ietf:params:oauth:grant-type:pre-authorized_code grant of a credential offer.
type PreAuthorizedCodeGrant struct {
	// Code is the pre-authorized code to present at the token endpoint. Never blank.
	Code string `json:"pre-authorized_code"`
	// UserPinRequired indicates the End-User must supply a PIN along with the code.
	UserPinRequired bool `json:"user_pin_required,omitempty"`
	// Interval is the minimum polling interval in seconds for the token endpoint.
	Interval int `json:"interval,omitempty"`
}

type rawGrants struct {
	AuthorizationCode *rawAuthorizationCodeGrant `json:"authorization_code"`
	PreAuthorizedCode *rawPreAuthorizedCodeGrant `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code"`
}

type rawAuthorizationCodeGrant struct {
	IssuerState *string `json:"issuer_state"`
}

type rawPreAuthorizedCodeGrant struct {
	Code            *string `json:"pre-authorized_code"`
	UserPinRequired *bool   `json:"user_pin_required"`
	Interval        *int    `json:"interval"`
}

// decodeGrants validates and decodes the raw grants object of a credential offer.
// A nil/absent grants object defaults to the authorization code grant.
// Fields that are present but blank are rejected with InvalidGrants; absence is allowed, blankness is not.
func decodeGrants(data json.RawMessage) (*Grants, error) {
	if len(data) == 0 {
		return &Grants{AuthorizationCode: &AuthorizationCodeGrant{}}, nil
	}

	var raw rawGrants
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Error{Code: InvalidGrants, Err: err}
	}
	if raw.AuthorizationCode == nil && raw.PreAuthorizedCode == nil {
		return nil, Error{Code: InvalidGrants, Err: errors.New("grants does not contain a supported grant type")}
	}

	result := Grants{}
	if raw.AuthorizationCode != nil {
		grant := AuthorizationCodeGrant{}
		if raw.AuthorizationCode.IssuerState != nil {
			if strings.TrimSpace(*raw.AuthorizationCode.IssuerState) == "" {
				return nil, Error{Code: InvalidGrants, Err: errors.New("issuer_state must not be blank")}
			}
			grant.IssuerState = *raw.AuthorizationCode.IssuerState
		}
		result.AuthorizationCode = &grant
	}
	if raw.PreAuthorizedCode != nil {
		if raw.PreAuthorizedCode.Code == nil || strings.TrimSpace(*raw.PreAuthorizedCode.Code) == "" {
			return nil, Error{Code: InvalidGrants, Err: errors.New("pre-authorized_code must not be blank")}
		}
		grant := PreAuthorizedCodeGrant{
			Code:     *raw.PreAuthorizedCode.Code,
			Interval: defaultPreAuthorizedInterval,
		}
		if raw.PreAuthorizedCode.UserPinRequired != nil {
			grant.UserPinRequired = *raw.PreAuthorizedCode.UserPinRequired
		}
		if raw.PreAuthorizedCode.Interval != nil {
			grant.Interval = *raw.PreAuthorizedCode.Interval
		}
		result.PreAuthorizedCode = &grant
	}
	return &result, nil
}
