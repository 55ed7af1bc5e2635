// User and traffic seeder for local load testing.
// - Inserts users directly through the repository layer
// - Submits transactions over HTTP with an RPS limiter and a fixed worker pool
//
// Example:
//
//	go run ./services/fraud-api/cmd/seed \
//	  -noOfUsers=100 \
//	  -noOfTransactionsPerUser=20 \
//	  -rps=200 \
//	  -fraudApiUrl=http://localhost:8080
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/smartmedishop/fraud-pipeline/pkg/repositories"
	"github.com/smartmedishop/fraud-pipeline/pkg/utils"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/configs"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	noOfUsers               = flag.Int("noOfUsers", 50, "Number of users to seed")
	noOfTransactionsPerUser = flag.Int("noOfTransactionsPerUser", 10, "Transactions submitted per seeded user")
	maxConcurrentRequests   = flag.Int("maxConcurrentRequests", 10, "Max in-flight HTTP requests (worker pool size)")
	minAmount               = flag.Float64("minAmount", 10.0, "Min transaction amount")
	maxAmount               = flag.Float64("maxAmount", 500.0, "Max transaction amount")
	fraudApiURL             = flag.String("fraudApiUrl", "http://localhost:8080", "Fraud API base URL")
	rps                     = flag.Int("rps", 100, "Requests-per-second limit for outbound POST /transactions")
)

type seedTransaction struct {
	UserID          string `json:"userId"`
	Amount          string `json:"amount"`
	PaymentMethod   string `json:"paymentMethod"`
	DeviceType      string `json:"deviceType"`
	LocationCountry string `json:"locationCountry"`
	MerchantName    string `json:"merchantName"`
	TransactionType string `json:"transactionType"`
}

var (
	paymentMethods = []string{"CREDIT_CARD", "DEBIT_CARD", "PAYPAL", "BANK_TRANSFER"}
	deviceTypes    = []string{"MOBILE", "DESKTOP", "TABLET"}
	countries      = []string{"US", "CA", "GB", "DE"}
	merchants      = []string{"acme-pharma", "medisupply", "healthmart", "wellness-hub"}
)

func main() {
	flag.Parse()

	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync()

	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed_to_load_config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	db, disconnect, err := database.New(ctx, logger, database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	})
	if err != nil {
		logger.Fatal("failed_to_connect_db", zap.Error(err))
	}
	defer disconnect()

	userRepo := repositories.NewUserRepository()
	userIDs := seedUsers(ctx, logger, db, userRepo, *noOfUsers)
	logger.Info("users_seeded", zap.Int("count", len(userIDs)))

	submitTransactions(ctx, logger, userIDs)
}

func seedUsers(ctx context.Context, logger *zap.Logger, db *database.DB, repo repositories.UserRepository, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	now := time.Now()
	for i := 0; i < n; i++ {
		birth := now.AddDate(-20-rand.Intn(40), 0, 0)
		registered := now.AddDate(0, 0, -rand.Intn(365))
		user := models.User{
			ID:               uuid.New(),
			Username:         fmt.Sprintf("seed-user-%d-%d", i, now.UnixNano()),
			Email:            fmt.Sprintf("seed-user-%d-%d@example.com", i, now.UnixNano()),
			BirthDate:        &birth,
			RegistrationDate: &registered,
			RiskProfile:      pkg.RiskLevelLow,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		err := db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			_, err := repo.Create(ctx, tx, user)
			return err
		})
		if err != nil {
			logger.Error("failed_to_seed_user", zap.Error(err))
			continue
		}
		ids = append(ids, user.ID)
	}
	return ids
}

func submitTransactions(ctx context.Context, logger *zap.Logger, userIDs []uuid.UUID) {
	client := utils.NewHTTPClient()
	limiter := rate.NewLimiter(rate.Limit(*rps), *rps)

	jobs := make(chan seedTransaction)
	var ok, fail int64
	var wg sync.WaitGroup

	for w := 0; w < *maxConcurrentRequests; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for txn := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				if err := postTransaction(ctx, client, txn); err != nil {
					atomic.AddInt64(&fail, 1)
					logger.Warn("transaction_submit_failed", zap.Error(err))
					continue
				}
				atomic.AddInt64(&ok, 1)
			}
		}()
	}

	for _, id := range userIDs {
		for i := 0; i < *noOfTransactionsPerUser; i++ {
			amount := *minAmount + rand.Float64()*(*maxAmount-*minAmount)
			select {
			case <-ctx.Done():
				close(jobs)
				wg.Wait()
				return
			case jobs <- seedTransaction{
				UserID:          id.String(),
				Amount:          fmt.Sprintf("%.2f", amount),
				PaymentMethod:   paymentMethods[rand.Intn(len(paymentMethods))],
				DeviceType:      deviceTypes[rand.Intn(len(deviceTypes))],
				LocationCountry: countries[rand.Intn(len(countries))],
				MerchantName:    merchants[rand.Intn(len(merchants))],
				TransactionType: "PURCHASE",
			}:
			}
		}
	}
	close(jobs)
	wg.Wait()
	logger.Info("seeding_complete", zap.Int64("ok", ok), zap.Int64("failed", fail))
}

func postTransaction(ctx context.Context, client *http.Client, txn seedTransaction) error {
	body, err := json.Marshal(txn)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *fraudApiURL+"/api/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
