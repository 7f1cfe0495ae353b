package db

import (
	"fmt"
	"log"
	"strings"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/internal/models"
	"gorm.io/gorm"
)

// DefaultSeedPassword is used for seeded accounts when SEED_PASSWORD is unset.
const DefaultSeedPassword = "changeme123"

type seedUser struct {
	email     string
	lastName  string
	firstName string
	role      gate.Role
}

var seedUsers = []seedUser{
	{"gerant@quincaillerie.local", "Gérant", "Principal", gate.RoleManager},
	{"achats@quincaillerie.local", "Agent", "Achats", gate.RolePurchasingAgent},
	{"caisse@quincaillerie.local", "Agent", "Paiements", gate.RolePaymentAgent},
}

// Seed creates one active account per role and the numbering sequences.
// Running it again leaves existing rows untouched.
func Seed(db *gorm.DB, password string) error {
	if password == "" {
		password = DefaultSeedPassword
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range []string{models.SequenceOrder, models.SequencePayment} {
			seq := models.Sequence{Name: name}
			if err := tx.Where(models.Sequence{Name: name}).FirstOrCreate(&seq).Error; err != nil {
				return fmt.Errorf("seed sequence %s: %w", name, err)
			}
		}
		for _, su := range seedUsers {
			var existing int64
			if err := tx.Model(&models.User{}).Where("email = ?", strings.ToLower(su.email)).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u := models.User{
				Email:        su.email,
				PasswordHash: hash,
				LastName:     su.lastName,
				FirstName:    su.firstName,
				Role:         su.role,
				Active:       true,
			}
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", su.email, err)
			}
			log.Printf("[DB] seeded %s account %s", su.role, su.email)
		}
		return nil
	})
}
