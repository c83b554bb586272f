package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := NewConnection(config.DatabaseConfig{
		Host:    host,
		Port:    strconv.Itoa(port.Int()),
		DBName:  "storefront",
		SSLMode: "disable",
	}, config.DatabaseCredentials{User: "testuser", Password: "testpass"})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db, "./migrations"))

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func newTestOrder(number string) *domain.Order {
	email := "khach@example.com"
	return &domain.Order{
		UserID:        uuid.New(),
		OrderNumber:   number,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodOnlineTransfer,
		TotalAmount:   5000000,
		ShippingFee:   30000,
		FinalAmount:   5030000,
		FullName:      "Nguyen Van A",
		Email:         &email,
		Phone:         "0901234567",
		Address:       "12 Le Loi",
		City:          "Ho Chi Minh",
		District:      "Quan 1",
		Ward:          "Ben Nghe",
	}
}

func TestRepositories(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repos := NewRepositories(db, zap.NewNop())
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		order := newTestOrder("HTX10001")
		require.NoError(t, repos.Order.Create(ctx, order))
		assert.NotEqual(t, uuid.Nil, order.ID)

		fetched, err := repos.Order.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderNumber, fetched.OrderNumber)
		assert.Equal(t, order.UserID, fetched.UserID)
		assert.Equal(t, int64(5030000), fetched.FinalAmount)
		assert.Equal(t, domain.PaymentMethodOnlineTransfer, fetched.PaymentMethod)
		require.NotNil(t, fetched.Email)
		assert.Nil(t, fetched.Note)
		assert.Nil(t, fetched.TransactionID)
	})

	t.Run("duplicate order number", func(t *testing.T) {
		require.NoError(t, repos.Order.Create(ctx, newTestOrder("HTX10002")))

		err := repos.Order.Create(ctx, newTestOrder("HTX10002"))
		assert.ErrorIs(t, err, repository.ErrDuplicateOrderNumber)
	})

	t.Run("duplicate id is not an order number clash", func(t *testing.T) {
		first := newTestOrder("HTX10008")
		require.NoError(t, repos.Order.Create(ctx, first))

		clash := newTestOrder("HTX10009")
		clash.ID = first.ID
		err := repos.Order.Create(ctx, clash)
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrDuplicateOrderNumber)
	})

	t.Run("mark paid keeps a closed order status", func(t *testing.T) {
		order := newTestOrder("HTX10010")
		order.Status = domain.OrderStatusCancelled
		require.NoError(t, repos.Order.Create(ctx, order))

		updated, err := repos.Order.MarkPaid(ctx, order.ID, nil, time.Now())
		require.NoError(t, err)
		assert.True(t, updated)

		fetched, err := repos.Order.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPaid, fetched.PaymentStatus)
		assert.Equal(t, domain.OrderStatusCancelled, fetched.Status)
	})

	t.Run("normalized lookup", func(t *testing.T) {
		require.NoError(t, repos.Order.Create(ctx, newTestOrder("HTX10003")))

		_, err := repos.Order.GetByOrderNumber(ctx, "htx10003")
		var notFound *pkgerrors.ErrNotFound
		assert.ErrorAs(t, err, &notFound)

		fetched, err := repos.Order.FindByNormalizedNumber(ctx, "  htx10003 ")
		require.NoError(t, err)
		assert.Equal(t, "HTX10003", fetched.OrderNumber)
	})

	t.Run("mark paid is conditional", func(t *testing.T) {
		order := newTestOrder("HTX10004")
		require.NoError(t, repos.Order.Create(ctx, order))

		txID := "FT1"
		updated, err := repos.Order.MarkPaid(ctx, order.ID, &txID, time.Now())
		require.NoError(t, err)
		assert.True(t, updated)

		replay := "FT2"
		updated, err = repos.Order.MarkPaid(ctx, order.ID, &replay, time.Now())
		require.NoError(t, err)
		assert.False(t, updated)

		fetched, err := repos.Order.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPaid, fetched.PaymentStatus)
		assert.Equal(t, domain.OrderStatusProcessing, fetched.Status)
		require.NotNil(t, fetched.TransactionID)
		assert.Equal(t, "FT1", *fetched.TransactionID)
	})

	t.Run("concurrent mark paid updates once", func(t *testing.T) {
		order := newTestOrder("HTX10005")
		require.NoError(t, repos.Order.Create(ctx, order))

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				updated, err := repos.Order.MarkPaid(ctx, order.ID, nil, time.Now())
				if assert.NoError(t, err) && updated {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("items are all or nothing", func(t *testing.T) {
		order := newTestOrder("HTX10006")
		require.NoError(t, repos.Order.Create(ctx, order))

		bad := []*domain.OrderItem{
			{OrderID: order.ID, ProductID: uuid.New(), Quantity: 1, Price: 100, Subtotal: 100},
			{OrderID: order.ID, ProductID: uuid.New(), Quantity: 0, Price: 100, Subtotal: 0},
		}
		require.Error(t, repos.OrderItem.CreateBatch(ctx, bad))

		items, err := repos.OrderItem.GetByOrderID(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, items)

		good := []*domain.OrderItem{
			{OrderID: order.ID, ProductID: uuid.New(), Quantity: 2, Price: 2500000, Subtotal: 5000000},
		}
		require.NoError(t, repos.OrderItem.CreateBatch(ctx, good))

		items, err = repos.OrderItem.GetByOrderID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(5000000), items[0].Subtotal)
	})

	t.Run("delete cascades to items", func(t *testing.T) {
		order := newTestOrder("HTX10007")
		require.NoError(t, repos.Order.Create(ctx, order))
		require.NoError(t, repos.OrderItem.CreateBatch(ctx, []*domain.OrderItem{
			{OrderID: order.ID, ProductID: uuid.New(), Quantity: 1, Price: 100, Subtotal: 100},
		}))

		require.NoError(t, repos.Order.Delete(ctx, order.ID))

		_, err := repos.Order.GetByID(ctx, order.ID)
		var notFound *pkgerrors.ErrNotFound
		assert.ErrorAs(t, err, &notFound)

		items, err := repos.OrderItem.GetByOrderID(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("products by ids", func(t *testing.T) {
		active, inactive, missing := uuid.New(), uuid.New(), uuid.New()
		_, err := db.ExecContext(ctx,
			`INSERT INTO products (id, name, price, is_active) VALUES ($1, 'Xiaomi 4 Lite', 3290000, TRUE), ($2, 'Sharp FP-J30E', 2190000, FALSE)`,
			active, inactive,
		)
		require.NoError(t, err)

		products, err := repos.Product.GetByIDs(ctx, []uuid.UUID{active, inactive, missing})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.True(t, products[active].IsActive)
		assert.Equal(t, int64(3290000), products[active].Price)
		assert.False(t, products[inactive].IsActive)
		assert.NotContains(t, products, missing)
	})
}
