package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sharebite/sharebite/internal/entity"
	"github.com/sharebite/sharebite/internal/modules/user/dto"
	"github.com/sharebite/sharebite/internal/modules/user/repository"
	"github.com/sharebite/sharebite/pkg/apperror"
	"github.com/sharebite/sharebite/pkg/geo"
	"github.com/sharebite/sharebite/pkg/maplink"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	CurrentUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	NearestOrganisations(ctx context.Context, lat, lon float64, limit int) ([]dto.NearestOrganisation, error)
}

type authService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository, tokenTTL time.Duration) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}

	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperror.New(409, "email already registered", apperror.ErrAlreadyTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hashed),
		Role:         entity.Role(input.Role),
		Address:      input.Address,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
	}

	// Acceptance profile and organisation type only mean something for
	// recipient organisations.
	if user.Role == entity.RoleRecipient {
		user.AcceptanceType = entity.AcceptanceType(input.AcceptanceType)
		if user.AcceptanceType == "" {
			user.AcceptanceType = entity.AcceptEdible
		}
		if input.OrganisationType != "" {
			orgType := input.OrganisationType
			user.OrganisationType = &orgType
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.buildAuthResponse(user)
}

func (s *authService) CurrentUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) NearestOrganisations(ctx context.Context, lat, lon float64, limit int) ([]dto.NearestOrganisation, error) {
	candidates, err := s.repo.FindLocatedRecipients(ctx)
	if err != nil {
		return nil, err
	}

	ranked := geo.NearestN(lat, lon, candidates, limit)

	result := make([]dto.NearestOrganisation, 0, len(ranked))
	for _, r := range ranked {
		orgLat, orgLon := r.Item.Coordinates()
		result = append(result, dto.NearestOrganisation{
			Organisation: r.Item,
			DistanceKm:   r.DistanceKm,
			MapURL:       maplink.Directions(lat, lon, orgLat, orgLon),
			EmbedMapURL:  maplink.Embed(orgLat, orgLon),
		})
	}
	return result, nil
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        user,
	}, nil
}
