package seed

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-parts-service/internal/apperror"
	"github.com/fekuna/omnipos-parts-service/internal/identity"
	"github.com/fekuna/omnipos-parts-service/internal/ledger"
	"github.com/fekuna/omnipos-parts-service/internal/model"
	partdto "github.com/fekuna/omnipos-parts-service/internal/part/dto"
	"github.com/fekuna/omnipos-parts-service/pkg/logger"
	"go.uber.org/zap"
)

// SeedUserID is the admin who owns the Create entries of the seeded catalog.
const SeedUserID = "u1"

var Users = []model.User{
	{ID: "u1", Name: "Alice Admin", Email: "alice@entry.com", Role: model.RoleAdmin},
	{ID: "u2", Name: "Bob Manager", Email: "bob@entry.com", Role: model.RoleManager},
	{ID: "u3", Name: "Charlie Tech", Email: "charlie@entry.com", Role: model.RoleTechnician},
}

var Parts = []partdto.CreatePartInput{
	{
		Name: "M8x25 Hex Bolt", SKU: "HB-M8-25", Description: "Standard M8x25mm hex bolt, zinc plated.",
		Quantity: 150, ReorderThreshold: 50, Location: "Aisle 3, Bin 12", Category: "Fasteners",
		ImageURL: "https://placehold.co/400x300/e2e8f0/64748b?text=Hex+Bolt",
	},
	{
		Name: `1/4" Lock Washer`, SKU: "LW-025", Description: "Standard 1/4 inch lock washer.",
		Quantity: 45, ReorderThreshold: 100, Location: "Aisle 3, Bin 14", Category: "Fasteners",
		ImageURL: "https://placehold.co/400x300/e2e8f0/64748b?text=Washer",
	},
	{
		Name: "24V DC Power Supply", SKU: "PSU-24V-5A", Description: "5A 24V DC power supply unit.",
		Quantity: 12, ReorderThreshold: 5, Location: "Aisle 7, Shelf 2", Category: "Electronics",
		ImageURL: "https://placehold.co/400x300/e2e8f0/64748b?text=PSU",
	},
	{
		Name: "Red LED Indicator", SKU: "LED-R-5MM", Description: "Standard 5mm red LED.",
		Quantity: 800, ReorderThreshold: 200, Location: "Aisle 7, Bin 3", Category: "Electronics",
		ImageURL: "https://placehold.co/400x300/e2e8f0/64748b?text=LED",
	},
}

// Run loads the demo directory and catalog. Users go straight into the
// directory; parts go through the engine so each has a Create entry and the
// low-stock ones raise alerts. Running it twice is an error.
func Run(ctx context.Context, users identity.Repository, uc ledger.UseCase, log logger.ZapLogger) error {
	// 1. Directory
	for i := range Users {
		u := Users[i]
		if err := users.Add(ctx, &u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	// 2. Catalog
	if len(uc.ListParts(ctx, nil)) > 0 {
		return apperror.Validation("catalog is not empty")
	}
	for i := range Parts {
		input := Parts[i]
		res, err := uc.CreatePart(ctx, SeedUserID, &input)
		if err != nil {
			return fmt.Errorf("seed part %s: %w", input.SKU, err)
		}
		log.Debug("Seeded part", zap.String("part_id", res.Part.ID), zap.String("sku", res.Part.SKU))
	}

	log.Info("Seeded demo data", zap.Int("users", len(Users)), zap.Int("parts", len(Parts)))
	return nil
}
