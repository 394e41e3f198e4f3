package infrastructure

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/memstore"
	zapAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/zaplogger/adapter"
)

func seededRide(id string, total int) domain.Ride {
	return domain.Ride{
		ID:             id,
		DriverID:       "d1",
		Route:          domain.Route{StartCity: "Accra", EndCity: "Kumasi"},
		TravelDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		StartTime:      "06:00",
		Pricing:        domain.Pricing{PricePerSeat: 40},
		TotalSeats:     total,
		AvailableSeats: total,
		Status:         domain.StatusOpen,
	}
}

func TestReserveReleaseKeepSeatsInBounds(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRideRepository(memstore.NewStore(), pkgApp.NopLogger{})
	require.NoError(t, repo.Create(ctx, seededRide("r1", 8)))

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 500; step++ {
		seats := rng.Intn(4) + 1
		if rng.Intn(2) == 0 {
			err := repo.Reserve(ctx, "r1", seats)
			if err != nil {
				require.True(t, pkgDomain.IsInsufficientCapacity(err), "step %d: %v", step, err)
			}
		} else {
			require.NoError(t, repo.Release(ctx, "r1", seats))
		}

		ride, err := repo.FindByID(ctx, "r1")
		require.NoError(t, err)
		require.GreaterOrEqual(t, ride.AvailableSeats, 0, "step %d", step)
		require.LessOrEqual(t, ride.AvailableSeats, ride.TotalSeats, "step %d", step)
	}
}

func TestReserveReportsAvailability(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRideRepository(memstore.NewStore(), pkgApp.NopLogger{})
	require.NoError(t, repo.Create(ctx, seededRide("r1", 2)))

	err := repo.Reserve(ctx, "r1", 5)
	assert.EqualError(t, err, "ride r1: requested 5 seats, 2 available")
	assert.True(t, pkgDomain.IsNotFound(repo.Reserve(ctx, "nope", 1)))
	assert.True(t, pkgDomain.IsNotFound(repo.Release(ctx, "nope", 1)))
}

func TestReleaseOverflowIsClampedAndLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.ErrorLevel)
	repo := NewInMemoryRideRepository(memstore.NewStore(), zapAdapter.NewFromZap(zap.New(core)))
	require.NoError(t, repo.Create(ctx, seededRide("r1", 4)))
	require.NoError(t, repo.Reserve(ctx, "r1", 1))

	require.NoError(t, repo.Release(ctx, "r1", 3))

	ride, err := repo.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 4, ride.AvailableSeats)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "invariant violation", entry.Message)
	assert.Equal(t, "r1", entry.ContextMap()["ride_id"])
}

func TestSearchOrdersByTravelDate(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRideRepository(memstore.NewStore(), pkgApp.NopLogger{})

	late := seededRide("r-late", 3)
	late.TravelDate = late.TravelDate.AddDate(0, 0, 5)
	other := seededRide("r-other", 3)
	other.Route.EndCity = "Tamale"
	require.NoError(t, repo.Create(ctx, late))
	require.NoError(t, repo.Create(ctx, seededRide("r-early", 3)))
	require.NoError(t, repo.Create(ctx, other))

	rides, err := repo.Search(ctx, domain.SearchCriteria{EndCity: "kumasi"})
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, "r-early", rides[0].ID)
	assert.Equal(t, "r-late", rides[1].ID)

	require.NoError(t, repo.Delete(ctx, "r-early"))
	assert.True(t, pkgDomain.IsNotFound(repo.Delete(ctx, "r-early")))
}
