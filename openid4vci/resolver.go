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
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/nuts-foundation/go-openid4vci/log"
)

// CredentialIssuerMetadataResolver resolves the Credential Issuer Metadata from the issuer's well-known endpoint.
// No retries are performed; the caller owns retry policy and timeouts through the injected HTTP client.
type CredentialIssuerMetadataResolver struct {
	httpClient HTTPRequestDoer
}

// NewCredentialIssuerMetadataResolver creates a resolver that fetches metadata using the given HTTP client.
func NewCredentialIssuerMetadataResolver(httpClient HTTPRequestDoer) CredentialIssuerMetadataResolver {
	return CredentialIssuerMetadataResolver{httpClient: httpClient}
}

// Resolve fetches and validates the Credential Issuer Metadata for the given Credential Issuer Identifier.
func (r CredentialIssuerMetadataResolver) Resolve(ctx context.Context, credentialIssuer HTTPSURL) (*CredentialIssuerMetadata, error) {
	metadataURL := joinURLPaths(credentialIssuer.String(), CredentialIssuerMetadataWellKnownPath)
	result := CredentialIssuerMetadata{}
	if err := httpGet(ctx, r.httpClient, metadataURL, &result); err != nil {
		return nil, MetadataError{URL: metadataURL, Err: err}
	}
	if err := result.validate(credentialIssuer.String()); err != nil {
		return nil, MetadataError{URL: metadataURL, Err: err}
	}
	return &result, nil
}

// AuthorizationServerMetadataResolver resolves OAuth2 Authorization Server Metadata (RFC8414).
// When the RFC8414 well-known endpoint is not served it falls back to the OpenID Connect discovery document.
type AuthorizationServerMetadataResolver struct {
	httpClient HTTPRequestDoer
}

// NewAuthorizationServerMetadataResolver creates a resolver that fetches metadata using the given HTTP client.
func NewAuthorizationServerMetadataResolver(httpClient HTTPRequestDoer) AuthorizationServerMetadataResolver {
	return AuthorizationServerMetadataResolver{httpClient: httpClient}
}

// Resolve fetches and validates the Authorization Server Metadata for the given issuer identifier.
func (r AuthorizationServerMetadataResolver) Resolve(ctx context.Context, issuer HTTPSURL) (*AuthorizationServerMetadata, error) {
	var lastErr error
	for _, wellKnownPath := range []string{AuthzServerWellKnownPath, OpenIDConfigurationWellKnownPath} {
		metadataURL := issuerToWellKnown(issuer, wellKnownPath)
		result := AuthorizationServerMetadata{}
		if err := httpGet(ctx, r.httpClient, metadataURL, &result); err != nil {
			lastErr = MetadataError{URL: metadataURL, Err: err}
			log.Logger().WithError(err).Debugf("Authorization server metadata not available at %s", metadataURL)
			continue
		}
		if err := result.validate(issuer.String()); err != nil {
			return nil, MetadataError{URL: metadataURL, Err: err}
		}
		return &result, nil
	}
	return nil, lastErr
}

// issuerToWellKnown converts the issuer identifier to the given well-known endpoint
// by inserting the well-known path at the root of the issuer's path, as specified by RFC8414.
func issuerToWellKnown(issuer HTTPSURL, wellKnownPath string) string {
	issuerURL := issuer.URL()
	wellKnownURL, _ := issuerURL.Parse(wellKnownPath + issuerURL.EscapedPath())
	return wellKnownURL.String()
}

// OfferResolver resolves a credential offer deep-link URI into a validated CredentialOffer.
// It orchestrates the offer parser, the two metadata resolvers and the offer assembler.
type OfferResolver struct {
	httpClient          HTTPRequestDoer
	issuerMetadata      CredentialIssuerMetadataResolver
	authzServerMetadata AuthorizationServerMetadataResolver
}

// NewOfferResolver creates an OfferResolver that performs all fetches using the given HTTP client.
func NewOfferResolver(httpClient HTTPRequestDoer) *OfferResolver {
	return &OfferResolver{
		httpClient:          httpClient,
		issuerMetadata:      NewCredentialIssuerMetadataResolver(httpClient),
		authzServerMetadata: NewAuthorizationServerMetadataResolver(httpClient),
	}
}

// Resolve resolves the given credential offer deep-link URI (e.g. from a QR code) into a CredentialOffer.
// Exactly one of the credential_offer and credential_offer_uri query parameters must be present.
// Every failure is returned as an Error whose Code classifies the root cause.
func (r *OfferResolver) Resolve(ctx context.Context, offerURI string) (*CredentialOffer, error) {
	payload, err := r.loadOfferPayload(ctx, offerURI)
	if err != nil {
		return nil, err
	}

	credentialIssuer, err := ParseHTTPSURL(payload.CredentialIssuer)
	if err != nil {
		return nil, Error{Code: InvalidCredentialOffer, Err: fmt.Errorf("invalid credential_issuer: %w", err)}
	}
	log.Logger().Debugf("Resolving credential offer (issuer=%s)", credentialIssuer.String())

	issuerMetadata, authzServerMetadata, err := r.resolveMetadata(ctx, credentialIssuer)
	if err != nil {
		return nil, err
	}

	offer, err := AssembleCredentialOffer(*payload, *issuerMetadata, *authzServerMetadata)
	if err != nil {
		return nil, asResolutionError(err)
	}
	return offer, nil
}

// loadOfferPayload extracts the offer document from the deep-link URI,
// dereferencing credential_offer_uri when needed.
func (r *OfferResolver) loadOfferPayload(ctx context.Context, offerURI string) (*CredentialOfferPayload, error) {
	parsedURI, err := url.Parse(offerURI)
	if err != nil {
		return nil, Error{Code: InvalidCredentialOffer, Err: fmt.Errorf("invalid credential offer URI: %w", err)}
	}
	query := parsedURI.Query()
	inlineOffer := query.Get("credential_offer")
	offerReference := query.Get("credential_offer_uri")

	switch {
	case inlineOffer != "" && offerReference != "":
		return nil, Error{Code: InvalidUseOfBothCredentialOfferParams,
			Err: errors.New("credential_offer and credential_offer_uri are mutually exclusive")}
	case inlineOffer == "" && offerReference == "":
		return nil, Error{Code: MissingCredentialOfferParam,
			Err: errors.New("one of credential_offer and credential_offer_uri is required")}
	case inlineOffer != "":
		return ParseCredentialOffer([]byte(inlineOffer))
	default:
		referenceURL, err := ParseHTTPSURL(offerReference)
		if err != nil {
			return nil, Error{Code: InvalidCredentialOffer, Err: fmt.Errorf("invalid credential_offer_uri: %w", err)}
		}
		offerDocument, err := httpGetBody(ctx, r.httpClient, referenceURL.String())
		if err != nil {
			return nil, Error{Code: InvalidCredentialOffer,
				Err: fmt.Errorf("unable to dereference credential_offer_uri: %w", err)}
		}
		return ParseCredentialOffer(offerDocument)
	}
}

// resolveMetadata fetches the Credential Issuer Metadata and the Authorization Server Metadata.
// The two fetches have no data dependency in the common self-hosted case and run concurrently;
// when the issuer metadata delegates to a separate authorization server, that server's metadata
// is resolved afterwards.
func (r *OfferResolver) resolveMetadata(ctx context.Context, credentialIssuer HTTPSURL) (*CredentialIssuerMetadata, *AuthorizationServerMetadata, error) {
	var issuerMetadata *CredentialIssuerMetadata
	var selfHostedMetadata *AuthorizationServerMetadata
	var selfHostedErr error

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		issuerMetadata, err = r.issuerMetadata.Resolve(groupCtx, credentialIssuer)
		if err != nil {
			return Error{Code: MetadataResolutionFailure, Err: err}
		}
		return nil
	})
	group.Go(func() error {
		// Optimistic: most issuers host their own authorization server.
		// A failure here is only fatal when the issuer metadata doesn't name another one.
		selfHostedMetadata, selfHostedErr = r.authzServerMetadata.Resolve(groupCtx, credentialIssuer)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	authzServer := credentialIssuer.String()
	if len(issuerMetadata.AuthorizationServers) > 0 {
		authzServer = issuerMetadata.AuthorizationServers[0]
	}
	if authzServer == credentialIssuer.String() {
		if selfHostedErr != nil {
			return nil, nil, Error{Code: MetadataResolutionFailure, Err: selfHostedErr}
		}
		return issuerMetadata, selfHostedMetadata, nil
	}

	authzServerURL, err := ParseHTTPSURL(authzServer)
	if err != nil {
		return nil, nil, Error{Code: MetadataResolutionFailure,
			Err: fmt.Errorf("invalid authorization server identifier (%s): %w", authzServer, err)}
	}
	authzServerMetadata, err := r.authzServerMetadata.Resolve(ctx, authzServerURL)
	if err != nil {
		return nil, nil, Error{Code: MetadataResolutionFailure, Err: err}
	}
	return issuerMetadata, authzServerMetadata, nil
}

// asResolutionError makes sure every error leaving the resolver is a typed Error.
func asResolutionError(err error) error {
	var typedErr Error
	if errors.As(err, &typedErr) {
		return err
	}
	return Error{Code: InvalidCredentialOffer, Err: err}
}
