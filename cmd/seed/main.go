package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"dataridge/internal/auth"
	"dataridge/internal/config"
	"dataridge/internal/db"
	apperrors "dataridge/internal/errors"
	"dataridge/internal/logger"
	"dataridge/internal/model"
	"dataridge/internal/repository"
	"dataridge/internal/service"
)

//go:embed fixtures.json
var defaultFixtures []byte

// SeedUser is one account to create together with the companies it owns.
type SeedUser struct {
	Email     string               `json:"email"`
	Password  string               `json:"password"`
	Companies []model.CompanyInput `json:"companies"`
}

// Fixtures is the seed file layout.
type Fixtures struct {
	Users []SeedUser `json:"users"`
}

type seedStats struct {
	usersCreated     int
	usersExisting    int
	companiesCreated int
	companiesSkipped int
}

func main() {
	file := flag.String("file", "", "path to a fixtures JSON file (defaults to the built-in set)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting seed script")

	fixtures, err := loadFixtures(*file)
	if err != nil {
		log.Fatal("load fixtures", zap.Error(err))
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(gormDB)
	authService := service.NewAuthService(
		userRepo,
		auth.NewBcryptHasher(),
		auth.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret),
		log,
		nil,
	)
	companyService := service.NewCompanyService(repository.NewCompanyRepository(gormDB), nil, log)

	stats, err := seed(context.Background(), log, fixtures, userRepo, authService, companyService)
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}

	log.Info("seed completed",
		zap.Int("users_created", stats.usersCreated),
		zap.Int("users_existing", stats.usersExisting),
		zap.Int("companies_created", stats.companiesCreated),
		zap.Int("companies_skipped", stats.companiesSkipped),
	)
}

func loadFixtures(path string) (*Fixtures, error) {
	data := defaultFixtures
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	var f Fixtures
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// seed goes through the services so seeded rows obey the same rules as API traffic.
// Rows that already exist are left alone, which makes the script safe to rerun.
func seed(
	ctx context.Context,
	log *zap.Logger,
	f *Fixtures,
	users repository.UserRepository,
	authService service.AuthService,
	companyService service.CompanyService,
) (seedStats, error) {
	var stats seedStats
	for _, u := range f.Users {
		_, err := authService.Register(ctx, u.Email, u.Password)
		switch {
		case err == nil:
			stats.usersCreated++
		case apperrors.KindOf(err) == apperrors.KindConflict:
			stats.usersExisting++
		default:
			return stats, fmt.Errorf("register %s: %w", u.Email, err)
		}

		owner, err := users.FindByEmail(ctx, u.Email)
		if err != nil {
			return stats, fmt.Errorf("lookup %s: %w", u.Email, err)
		}

		for _, c := range u.Companies {
			_, err := companyService.CreateCompany(ctx, c, owner.ID)
			switch kind := apperrors.KindOf(err); {
			case err == nil:
				stats.companiesCreated++
			case kind == apperrors.KindConflict || kind == apperrors.KindValidation:
				log.Info("skipping company", zap.String("name", c.Name), zap.Error(err))
				stats.companiesSkipped++
			default:
				return stats, fmt.Errorf("create company %s: %w", c.Name, err)
			}
		}
	}
	return stats, nil
}
