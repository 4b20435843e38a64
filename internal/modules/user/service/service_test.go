package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sharebite/sharebite/internal/entity"
	"github.com/sharebite/sharebite/internal/modules/user/dto"
	"github.com/sharebite/sharebite/internal/modules/user/repository"
	"github.com/sharebite/sharebite/pkg/apperror"
)

func newAuthService(t *testing.T) (AuthService, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}))

	return NewAuthService(repository.NewUserRepository(db), time.Hour), db
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, dto.SignupInput{
		Name:     "Asha Foods",
		Email:    "asha@example.com",
		Password: "supersecret",
		Role:     "donor",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, entity.RoleDonor, resp.User.Role)

	// The token subject is the user id, signed with the configured secret.
	parsed, err := jwt.ParseWithClaims(resp.AccessToken, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, resp.User.ID.String(), sub)

	logged, err := svc.Login(ctx, dto.LoginInput{Email: "asha@example.com", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, logged.User.ID)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "asha@example.com", Password: "wrong"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid credentials")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	input := dto.SignupInput{
		Name:     "First",
		Email:    "dup@example.com",
		Password: "supersecret",
		Role:     "volunteer",
	}
	_, err := svc.Signup(ctx, input)
	require.NoError(t, err)

	input.Name = "Second"
	_, err = svc.Signup(ctx, input)
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)
}

func TestSignup_RecipientDefaultsAndDonorIgnoresAcceptance(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	recipient, err := svc.Signup(ctx, dto.SignupInput{
		Name:             "Shelter",
		Email:            "shelter@example.com",
		Password:         "supersecret",
		Role:             "recipient",
		OrganisationType: "shelter",
	})
	require.NoError(t, err)
	require.Equal(t, entity.AcceptEdible, recipient.User.AcceptanceType)
	require.NotNil(t, recipient.User.OrganisationType)
	require.Equal(t, "shelter", *recipient.User.OrganisationType)

	donor, err := svc.Signup(ctx, dto.SignupInput{
		Name:           "Cafe",
		Email:          "cafe@example.com",
		Password:       "supersecret",
		Role:           "donor",
		AcceptanceType: "both",
	})
	require.NoError(t, err)
	require.Nil(t, donor.User.OrganisationType)
}

func TestNearestOrganisations(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	orgType := "food bank"
	mkOrg := func(name string, lat, lon float64) *entity.User {
		u := &entity.User{
			Name:             name,
			Email:            strings.ToLower(name) + "@example.com",
			PasswordHash:     "x",
			Role:             entity.RoleRecipient,
			AcceptanceType:   entity.AcceptBoth,
			OrganisationType: &orgType,
			Latitude:         &lat,
			Longitude:        &lon,
		}
		require.NoError(t, db.Create(u).Error)
		return u
	}

	near := mkOrg("near", 12.98, 77.60)
	mid := mkOrg("mid", 13.10, 77.60)
	far := mkOrg("far", 15.00, 77.60)

	// No coordinates: excluded from the candidate set.
	require.NoError(t, db.Create(&entity.User{
		Name:             "unlocated",
		Email:            "unlocated@example.com",
		PasswordHash:     "x",
		Role:             entity.RoleRecipient,
		OrganisationType: &orgType,
	}).Error)

	ranked, err := svc.NearestOrganisations(ctx, 12.97, 77.59, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	require.Equal(t, near.ID, ranked[0].Organisation.ID)
	require.Equal(t, mid.ID, ranked[1].Organisation.ID)
	require.Less(t, ranked[0].DistanceKm, ranked[1].DistanceKm)
	require.Contains(t, ranked[0].MapURL, "google.com/maps/dir")
	require.Contains(t, ranked[0].EmbedMapURL, "output=embed")
	_ = far
}

func TestCurrentUser_Missing(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.CurrentUser(context.Background(), uuid.New())
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
