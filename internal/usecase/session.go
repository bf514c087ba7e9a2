package usecase

import (
	"context"
	"errors"

	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/service"
	"medledger/pkg/jwt"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// sessionIssuer issues, rotates and revokes the token pairs of one realm.
type sessionIssuer struct {
	realm      string
	log        *logrus.Logger
	jwtService *jwt.JWTService
	tokenStore service.TokenStore
}

func (s *sessionIssuer) issue(ctx context.Context, id jwt.Identity) (*dto.TokenResponse, error) {
	id.Realm = s.realm

	accessToken, accessTokenID, err := s.jwtService.GenerateAccessToken(id)
	if err != nil {
		s.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := s.jwtService.GenerateRefreshToken(id)
	if err != nil {
		s.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := s.tokenStore.Store(ctx, id.Subject, jwt.AccessToken, accessTokenID, s.jwtService.GetAccessExpiry()); err != nil {
		return nil, err
	}
	if err := s.tokenStore.Store(ctx, id.Subject, jwt.RefreshToken, refreshTokenID, s.jwtService.GetRefreshExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// consumeRefresh validates a refresh token of this realm and revokes it.
func (s *sessionIssuer) consumeRefresh(ctx context.Context, refreshToken string) (*jwt.Claims, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken || claims.Realm != s.realm {
		return nil, ErrInvalidToken
	}

	exists, err := s.tokenStore.Exists(ctx, claims.Subject, jwt.RefreshToken, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	if err := s.tokenStore.Revoke(ctx, claims.Subject, jwt.RefreshToken, claims.TokenID); err != nil {
		return nil, err
	}

	return claims, nil
}

// logout revokes the caller's access token and, when it belongs to the same
// subject, the given refresh token.
func (s *sessionIssuer) logout(ctx context.Context, refreshToken string) error {
	id, ok := middleware.GetIdentityFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	tokenID, ok := middleware.GetTokenIDFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	if err := s.tokenStore.Revoke(ctx, id.Subject, jwt.AccessToken, tokenID); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.Subject != id.Subject || claims.Realm != s.realm {
		return nil
	}
	return s.tokenStore.Revoke(ctx, claims.Subject, jwt.RefreshToken, claims.TokenID)
}
