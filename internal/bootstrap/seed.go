package bootstrap

import (
	"log"

	"github.com/sharebite/sharebite/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Donation{},
	)
}

// SeedDemoUsers creates one user per role for local development.
func SeedDemoUsers(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("users already exist, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("sharebite123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	lat, lon := 12.9716, 77.5946
	orgType := "ngo"

	demo := []entity.User{
		{
			Name:         "Demo Donor",
			Email:        "donor@sharebite.dev",
			PasswordHash: string(hashed),
			Role:         entity.RoleDonor,
			Address:      "12 Market Street",
			Latitude:     &lat,
			Longitude:    &lon,
		},
		{
			Name:             "Demo Food Bank",
			Email:            "recipient@sharebite.dev",
			PasswordHash:     string(hashed),
			Role:             entity.RoleRecipient,
			Address:          "4 Relief Road",
			Latitude:         &lat,
			Longitude:        &lon,
			AcceptanceType:   entity.AcceptBoth,
			OrganisationType: &orgType,
		},
		{
			Name:         "Demo Volunteer",
			Email:        "volunteer@sharebite.dev",
			PasswordHash: string(hashed),
			Role:         entity.RoleVolunteer,
			Address:      "7 Cycle Lane",
		},
	}

	for i := range demo {
		if err := db.Create(&demo[i]).Error; err != nil {
			return err
		}
	}

	log.Println("demo users seeded (password: sharebite123)")
	return nil
}
