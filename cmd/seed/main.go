package main

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"satshop/internal/config"
	"satshop/internal/db"
	"satshop/internal/model"
	"satshop/internal/rbac"
	"satshop/internal/repository"
)

// Demo staff accounts created alongside the sample data. Passwords are for
// local development only.
var demoUsers = []struct {
	username string
	password string
	role     rbac.Role
}{
	{"tech", "tech123", rbac.RoleTechnician},
	{"caja", "caja123", rbac.RoleCashier},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Order{},
		&model.Part{},
		&model.StatusHistory{},
		&model.CashEntry{},
		&model.Settings{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	clientRepo := repository.NewClientRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	cashRepo := repository.NewCashEntryRepository(gormDB)

	admin, err := seedUsers(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	client, err := seedClient(ctx, clientRepo)
	if err != nil {
		log.Fatalf("Failed to seed client: %v", err)
	}

	if err := seedOrder(ctx, orderRepo, cashRepo, client, admin); err != nil {
		log.Fatalf("Failed to seed demo order: %v", err)
	}

	log.Println("Seed completed successfully!")
}

// seedUsers creates the demo staff users if missing and returns the admin
// account the demo cash entries are attributed to.
func seedUsers(ctx context.Context, repo repository.UserRepository) (*model.User, error) {
	admin, err := repo.FindByUsername(ctx, "admin")
	if err == gorm.ErrRecordNotFound {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		admin = &model.User{
			Username:     "admin",
			PasswordHash: string(hash),
			Role:         rbac.RoleAdmin,
			Active:       true,
		}
		if err := repo.Create(ctx, admin); err != nil {
			return nil, err
		}
		log.Println("Created admin user (admin/admin123)")
	} else if err != nil {
		return nil, err
	}

	for _, u := range demoUsers {
		if _, err := repo.FindByUsername(ctx, u.username); err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		if err := repo.Create(ctx, &model.User{
			Username:     u.username,
			PasswordHash: string(hash),
			Role:         u.role,
			Active:       true,
		}); err != nil {
			return nil, err
		}
		log.Printf("Created %s user (%s/%s)", u.role, u.username, u.password)
	}

	return admin, nil
}

func seedClient(ctx context.Context, repo repository.ClientRepository) (*model.Client, error) {
	existing, err := repo.List(ctx, "Juan Perez")
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	client := &model.Client{
		Name:    "Juan Perez",
		Phone:   "+34600111222",
		Email:   "juan.perez@example.com",
		Address: "Calle Mayor 1",
		TaxID:   "12345678Z",
	}
	if err := repo.Create(ctx, client); err != nil {
		return nil, err
	}
	log.Printf("Created demo client #%d", client.ID)
	return client, nil
}

// seedOrder creates one repair order with a deposit, a spare part, and the
// matching ledger entry, the same shape the service layer would produce.
func seedOrder(ctx context.Context, orders repository.OrderRepository, cash repository.CashEntryRepository, client *model.Client, admin *model.User) error {
	existing, err := orders.List(ctx, "356938035643809", "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Println("Demo order already present, skipping")
		return nil
	}

	order := &model.Order{
		ClientID:      client.ID,
		Brand:         "Samsung",
		Model:         "Galaxy S21",
		IMEI:          "356938035643809",
		Accessories:   "Charger, case",
		ReportedIssue: "Cracked screen",
		Diagnosis:     "Display assembly replacement",
		EstimatedCost: decimal.NewFromInt(180),
		Deposit:       decimal.NewFromInt(50),
		Status:        model.OrderStatusReceived,
	}
	if err := orders.Create(ctx, order); err != nil {
		return err
	}
	if err := orders.AddHistory(ctx, &model.StatusHistory{
		OrderID: order.ID,
		Status:  model.OrderStatusReceived,
		Note:    "Order received",
	}); err != nil {
		return err
	}
	if err := orders.AddPart(ctx, &model.Part{
		OrderID:  order.ID,
		Name:     "Display assembly",
		Cost:     decimal.NewFromInt(95),
		Quantity: 1,
	}); err != nil {
		return err
	}

	orderID := order.ID
	if err := cash.Append(ctx, &model.CashEntry{
		Kind:         model.EntryKindInflow,
		Amount:       order.Deposit,
		Description:  fmt.Sprintf("Deposit for order #%d", order.ID),
		OrderID:      &orderID,
		RecordedByID: admin.ID,
	}); err != nil {
		return err
	}

	log.Printf("Created demo order #%d (public token %s)", order.ID, order.PublicToken)
	return nil
}
