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

import "fmt"

// ErrorCode classifies the root cause of a failed credential offer resolution.
type ErrorCode string

const (
	// InvalidCredentialOffer is returned when the credential offer payload is syntactically malformed,
	// or when the deep-link URI itself cannot be parsed.
	InvalidCredentialOffer ErrorCode = "invalid_credential_offer"
	// InvalidCredentials is returned when a credential reference in the offer names an unknown format,
	// misses required format-specific fields, or does not match a credential configuration advertised by the issuer.
	InvalidCredentials ErrorCode = "invalid_credentials"
	// InvalidGrants is returned when the offer's grants object is malformed,
	// or a grant field is present but blank.
	InvalidGrants ErrorCode = "invalid_grants"
	// InvalidUseOfBothCredentialOfferParams is returned when the deep-link URI contains
	// both the credential_offer and the credential_offer_uri query parameter.
	InvalidUseOfBothCredentialOfferParams ErrorCode = "invalid_use_of_both_credential_offer_params"
	// MissingCredentialOfferParam is returned when the deep-link URI contains
	// neither the credential_offer nor the credential_offer_uri query parameter.
	MissingCredentialOfferParam ErrorCode = "missing_credential_offer_param"
	// MetadataResolutionFailure is returned when the Credential Issuer Metadata or
	// the Authorization Server Metadata could not be resolved or is invalid.
	// The wrapped error is a *MetadataError.
	MetadataResolutionFailure ErrorCode = "metadata_resolution_failure"
)

// Error is returned for every failure of the credential offer resolution pipeline.
// Code classifies the root cause, so callers can match on it without parsing strings.
type Error struct {
	// Code is the typed classification of the failure.
	Code ErrorCode
	// Err is the underlying error, may be nil.
	Err error
}

// Error returns the error message, which is either the underlying error or the code if there is no underlying error.
func (e Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + " - " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e Error) Unwrap() error {
	return e.Err
}

// Is matches on the Code, so errors.Is(err, Error{Code: InvalidGrants}) works regardless of the wrapped cause.
func (e Error) Is(other error) bool {
	var otherAsError Error
	switch typed := other.(type) {
	case Error:
		otherAsError = typed
	case *Error:
		otherAsError = *typed
	default:
		return false
	}
	return e.Code == otherAsError.Code
}

// MetadataError is returned by the metadata resolvers when a metadata document
// could not be fetched, is not valid JSON, or misses required fields.
type MetadataError struct {
	// URL is the metadata URL that was being resolved.
	URL string
	// Err is the underlying failure.
	Err error
}

func (e MetadataError) Error() string {
	return fmt.Sprintf("metadata resolution failed (url=%s): %s", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e MetadataError) Unwrap() error {
	return e.Err
}
