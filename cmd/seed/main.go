// Command seed fills the catalog with Portuguese nutritionists, services,
// locations and priced offerings. It is idempotent: records are matched by
// their natural keys and existing offerings keep their price.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-nutrition-booking/internal/config"
	"github.com/tbourn/go-nutrition-booking/internal/domain"
	"github.com/tbourn/go-nutrition-booking/internal/repo"
	"github.com/tbourn/go-nutrition-booking/internal/services"
	"github.com/tbourn/go-nutrition-booking/internal/sysutil"
)

type place struct {
	city, address string
	lat, lng      float64
}

var places = []place{
	{"Lisboa", "Rua Augusta 123, 1100-048 Lisboa", 38.7223, -9.1393},
	{"Lisboa", "Avenida da Liberdade 456, 1250-096 Lisboa", 38.7169, -9.1480},
	{"Porto", "Rua de Santa Catarina 789, 4000-447 Porto", 41.1579, -8.6291},
	{"Porto", "Praça da República 321, 4000-322 Porto", 41.1496, -8.6100},
	{"Coimbra", "Avenida Central 654, 3000-045 Coimbra", 40.2033, -8.4103},
	{"Braga", "Rua Dr. Francisco Sá Carneiro 987, 4710-057 Braga", 41.5454, -8.4261},
	{"Lisboa", "Avenida de Roma 147, 1000-265 Lisboa", 38.7515, -9.1394},
	{"Porto", "Rua Miguel Bombarda 258, 4050-377 Porto", 41.1621, -8.6200},
}

// catalog maps each service to its base price range in euros.
var catalog = []struct {
	name     string
	min, max int
}{
	{"Weight Loss Consultation", 50, 80},
	{"Sports Nutrition", 60, 90},
	{"Meal Planning", 40, 70},
	{"Diabetes Management", 70, 100},
	{"Heart-Healthy Diet", 65, 95},
	{"Vegetarian/Vegan Nutrition", 45, 75},
	{"Child Nutrition", 55, 85},
	{"Senior Nutrition", 50, 80},
	{"Eating Disorder Support", 80, 120},
	{"Pregnancy Nutrition", 60, 90},
	{"Food Allergy Management", 70, 100},
	{"Digestive Health", 65, 95},
}

var nutritionists = []string{
	"Maria Silva", "João Santos", "Ana Costa", "Pedro Oliveira",
	"Catarina Ferreira", "Miguel Rodrigues", "Sofia Martins", "Ricardo Pereira",
	"Beatriz Gomes", "Tiago Almeida", "Inês Carvalho", "Nuno Ribeiro",
}

func main() {
	_ = godotenv.Load()
	seed := flag.Uint64("seed", 42, "random seed for offering assignment and prices")
	flag.Parse()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	n, err := run(context.Background(), &services.CatalogService{DB: db}, rand.New(rand.NewPCG(*seed, *seed)))
	if err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Int("offerings", n).Uint64("seed", *seed).Msg("catalog seeded")
}

// run ensures the catalog and returns the number of offerings touched.
// Each nutritionist offers two to four services at one or two places.
func run(ctx context.Context, cat *services.CatalogService, rng *rand.Rand) (int, error) {
	locs := make([]*domain.Location, 0, len(places))
	for _, p := range places {
		l, err := cat.EnsureLocation(ctx, services.LocationInput{City: p.city, FullAddress: p.address, Latitude: p.lat, Longitude: p.lng})
		if err != nil {
			return 0, fmt.Errorf("location %q: %w", p.address, err)
		}
		locs = append(locs, l)
	}
	svcs := make([]*domain.Service, 0, len(catalog))
	for _, c := range catalog {
		s, err := cat.EnsureService(ctx, services.ServiceInput{Name: c.name})
		if err != nil {
			return 0, fmt.Errorf("service %q: %w", c.name, err)
		}
		svcs = append(svcs, s)
	}

	count := 0
	for i, name := range nutritionists {
		nut, err := cat.EnsureNutritionist(ctx, services.NutritionistInput{
			Name:          name,
			Title:         "Dr.",
			LicenseNumber: fmt.Sprintf("PT-%04d", i+1),
		})
		if err != nil {
			return count, fmt.Errorf("nutritionist %q: %w", name, err)
		}
		for _, si := range rng.Perm(len(svcs))[:2+rng.IntN(3)] {
			c := catalog[si]
			for _, li := range rng.Perm(len(locs))[:1+rng.IntN(2)] {
				method := domain.DeliveryInPerson
				if rng.IntN(4) == 0 {
					method = domain.DeliveryOnline
				}
				price := c.min + rng.IntN(c.max-c.min+1) + rng.IntN(21) - 5
				_, err := cat.EnsureOffering(ctx, services.OfferingInput{
					NutritionistID: nut.ID,
					ServiceID:      svcs[si].ID,
					LocationID:     locs[li].ID,
					DeliveryMethod: string(method),
					Pricing:        decimal.NewFromInt(int64(price)),
				})
				if err != nil {
					return count, fmt.Errorf("offering %s/%s: %w", name, strings.ToLower(c.name), err)
				}
				count++
			}
		}
	}
	return count, nil
}
