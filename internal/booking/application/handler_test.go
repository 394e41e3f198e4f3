package application_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mateusmacedo/go-rideshare/internal/access"
	"github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	bookingInfra "github.com/mateusmacedo/go-rideshare/internal/booking/infrastructure"
	rideApp "github.com/mateusmacedo/go-rideshare/internal/ride/application"
	ride "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	rideInfra "github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/memstore"
)

var (
	passenger = access.Actor{ID: "p1", Role: access.RoleUser}
	stranger  = access.Actor{ID: "p2", Role: access.RoleUser}
	driver    = access.Actor{ID: "d1", Role: access.RoleDriver}
	admin     = access.Actor{ID: "a1", Role: access.RoleSuperAdmin}
)

type recordingEventBus struct {
	mu     sync.Mutex
	events []pkgDomain.Event[application.BookingEventData]
}

func (b *recordingEventBus) RegisterHandler(string, pkgApp.EventHandler[pkgDomain.Event[application.BookingEventData], application.BookingEventData]) {
}

func (b *recordingEventBus) Publish(_ context.Context, event pkgDomain.Event[application.BookingEventData]) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingEventBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.events))
	for _, e := range b.events {
		names = append(names, e.EventName())
	}
	return names
}

// flakyRides fails the first n reservations with a transient conflict.
type flakyRides struct {
	ride.RideRepository
	failures int32
}

func (f *flakyRides) Reserve(ctx context.Context, rideID string, seats int) error {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return pkgDomain.TransientError{Err: fmt.Errorf("could not serialize access")}
	}
	return f.RideRepository.Reserve(ctx, rideID, seats)
}

type LedgerSuite struct {
	suite.Suite
	ctx      context.Context
	rides    ride.RideRepository
	bookings domain.BookingRepository
	events   *recordingEventBus
	ledger   application.Ledger
	ids      int32
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	store := memstore.NewStore()
	logger := pkgApp.NopLogger{}
	s.ctx = context.Background()
	s.rides = rideInfra.NewInMemoryRideRepository(store, logger)
	s.bookings = bookingInfra.NewInMemoryBookingRepository(store, logger)
	s.events = &recordingEventBus{}
	s.ledger = application.Ledger{
		Bookings:   s.bookings,
		Rides:      s.rides,
		UnitOfWork: store,
		EventBus:   s.events,
		Retry:      pkgApp.RetryPolicy{MaxRetries: 3},
		Logger:     logger,
	}
}

func (s *LedgerSuite) seedRide(id string, total, available int, price float64) {
	s.Require().NoError(s.rides.Create(s.ctx, ride.Ride{
		ID:             id,
		DriverID:       driver.ID,
		Route:          ride.Route{StartCity: "Lisbon", EndCity: "Porto"},
		TravelDate:     time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		StartTime:      "08:00",
		Pricing:        ride.Pricing{PricePerSeat: price},
		TotalSeats:     total,
		AvailableSeats: available,
		Status:         ride.StatusOpen,
	}))
}

func (s *LedgerSuite) available(rideID string) int {
	r, err := s.rides.FindByID(s.ctx, rideID)
	s.Require().NoError(err)
	return r.AvailableSeats
}

func (s *LedgerSuite) create(actor access.Actor, rideID, passengerID string, seats int) (string, error) {
	id := fmt.Sprintf("b%d", atomic.AddInt32(&s.ids, 1))
	err := application.NewCreateBookingHandler(s.ledger).Handle(s.ctx, application.NewCreateBookingCommand(application.CreateBookingData{
		Actor:       actor,
		BookingID:   id,
		RideID:      rideID,
		PassengerID: passengerID,
		SeatsBooked: seats,
	}))
	return id, err
}

func (s *LedgerSuite) cancel(actor access.Actor, bookingID string) error {
	return application.NewCancelBookingHandler(s.ledger).Handle(s.ctx, application.NewCancelBookingCommand(application.CancelBookingData{Actor: actor, BookingID: bookingID}))
}

func (s *LedgerSuite) update(actor access.Actor, bookingID string, patch domain.Patch) error {
	return application.NewUpdateBookingHandler(s.ledger).Handle(s.ctx, application.NewUpdateBookingCommand(application.UpdateBookingData{Actor: actor, BookingID: bookingID, Patch: patch}))
}

func (s *LedgerSuite) TestCreateComputesTotalAndReservesSeats() {
	s.seedRide("r1", 4, 4, 100)

	id, err := s.create(passenger, "r1", "", 3)
	s.Require().NoError(err)

	booking, err := s.bookings.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(300.0, booking.TotalAmount)
	s.Equal(domain.StatusConfirmed, booking.Status)
	s.Equal("p1", booking.PassengerID)
	s.Equal(1, s.available("r1"))
	s.Equal([]string{application.BookingConfirmedEventName}, s.events.names())
}

func (s *LedgerSuite) TestCreateBeyondCapacityLeavesStateUnchanged() {
	s.seedRide("r1", 4, 2, 100)

	_, err := s.create(passenger, "r1", "", 5)
	s.True(pkgDomain.IsInsufficientCapacity(err))
	s.Equal(2, s.available("r1"))

	bookings, err := s.bookings.List(s.ctx, domain.ListFilter{RideID: "r1"})
	s.Require().NoError(err)
	s.Empty(bookings)
	s.Empty(s.events.names())
}

func (s *LedgerSuite) TestDuplicateBookingChangesNoSeats() {
	s.seedRide("r1", 6, 6, 50)

	_, err := s.create(passenger, "r1", "", 2)
	s.Require().NoError(err)
	_, err = s.create(passenger, "r1", "", 1)
	s.True(pkgDomain.IsDuplicateBooking(err))
	s.Equal(4, s.available("r1"))
}

func (s *LedgerSuite) TestCreateValidatesInput() {
	s.seedRide("r1", 4, 4, 100)

	_, err := s.create(passenger, "r1", "", 0)
	s.EqualError(err, "seatsBooked: must be at least 1")

	_, err = s.create(passenger, "missing", "", 1)
	s.True(pkgDomain.IsNotFound(err))

	_, err = s.create(passenger, "r1", "p9", 1)
	s.True(pkgDomain.IsForbidden(err))

	_, err = s.create(access.Actor{}, "r1", "", 1)
	s.True(pkgDomain.IsUnauthenticated(err))

	s.Require().NoError(setRideStatus(s.rides, "r1", ride.StatusOngoing))
	_, err = s.create(passenger, "r1", "", 1)
	s.True(pkgDomain.IsValidation(err))
	s.Equal(4, s.available("r1"))
}

func (s *LedgerSuite) TestAdminMayBookOnBehalfOfPassenger() {
	s.seedRide("r1", 4, 4, 100)

	id, err := s.create(admin, "r1", "p7", 1)
	s.Require().NoError(err)
	booking, err := s.bookings.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("p7", booking.PassengerID)
}

func (s *LedgerSuite) TestConcurrentCreatesNeverOverbook() {
	const capacity = 5
	s.seedRide("r1", capacity, capacity, 10)

	var wg sync.WaitGroup
	var booked, rejected int32
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := access.Actor{ID: fmt.Sprintf("p%d", i), Role: access.RoleUser}
			_, err := s.create(actor, "r1", "", 2)
			switch {
			case err == nil:
				atomic.AddInt32(&booked, 2)
			case pkgDomain.IsInsufficientCapacity(err):
				atomic.AddInt32(&rejected, 1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(i)
	}
	wg.Wait()

	s.LessOrEqual(int(booked), capacity)
	s.Equal(int32(4), booked)
	s.Equal(int32(10), rejected)
	s.Equal(capacity-int(booked), s.available("r1"))
	s.GreaterOrEqual(s.available("r1"), 0)
}

func (s *LedgerSuite) TestCancelConfirmedReleasesExactlyItsSeats() {
	s.seedRide("r1", 6, 6, 100)
	id, err := s.create(passenger, "r1", "", 3)
	s.Require().NoError(err)
	s.Equal(3, s.available("r1"))

	s.Require().NoError(s.cancel(passenger, id))
	s.Equal(6, s.available("r1"))

	_, err = s.bookings.FindByID(s.ctx, id)
	s.True(pkgDomain.IsNotFound(err))
	s.Equal([]string{application.BookingConfirmedEventName, application.BookingCancelledEventName}, s.events.names())

	// the pair is free again
	_, err = s.create(passenger, "r1", "", 1)
	s.NoError(err)
}

func (s *LedgerSuite) TestCancelByStrangerIsForbidden() {
	s.seedRide("r1", 4, 4, 100)
	id, err := s.create(passenger, "r1", "", 2)
	s.Require().NoError(err)

	s.True(pkgDomain.IsForbidden(s.cancel(stranger, id)))
	s.True(pkgDomain.IsForbidden(s.cancel(driver, id)))
	s.Equal(2, s.available("r1"))

	booking, err := s.bookings.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.StatusConfirmed, booking.Status)

	s.NoError(s.cancel(admin, id))
	s.Equal(4, s.available("r1"))
}

func (s *LedgerSuite) TestCancelCompletedBookingKeepsInventory() {
	s.seedRide("r1", 4, 4, 100)
	id, err := s.create(passenger, "r1", "", 2)
	s.Require().NoError(err)

	completed := domain.StatusCompleted
	s.Require().NoError(s.update(passenger, id, domain.Patch{Status: &completed}))
	s.Equal(2, s.available("r1"))

	s.Require().NoError(s.cancel(passenger, id))
	s.Equal(2, s.available("r1"))

	kept, err := s.bookings.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, kept.Status)
}

func (s *LedgerSuite) TestAuditAfterDeletingCompletedBookingIsClean() {
	s.seedRide("r1", 4, 4, 100)
	id, err := s.create(passenger, "r1", "", 2)
	s.Require().NoError(err)

	completed := domain.StatusCompleted
	s.Require().NoError(s.update(passenger, id, domain.Patch{Status: &completed}))
	s.Require().NoError(s.cancel(passenger, id))

	found, err := rideApp.NewInventoryAuditor(s.rides, s.bookings, pkgApp.NopLogger{}).Audit(s.ctx)
	s.Require().NoError(err)
	s.Empty(found)
	s.Equal(2, s.available("r1"))
}

func (s *LedgerSuite) TestUpdateSeatsRunsInventoryAndFare() {
	s.seedRide("r1", 4, 4, 25)
	id, err := s.create(passenger, "r1", "", 1)
	s.Require().NoError(err)

	three := 3
	s.Require().NoError(s.update(passenger, id, domain.Patch{SeatsBooked: &three}))
	s.Equal(1, s.available("r1"))
	booking, _ := s.bookings.FindByID(s.ctx, id)
	s.Equal(75.0, booking.TotalAmount)

	six := 6
	s.True(pkgDomain.IsInsufficientCapacity(s.update(passenger, id, domain.Patch{SeatsBooked: &six})))
	booking, _ = s.bookings.FindByID(s.ctx, id)
	s.Equal(3, booking.SeatsBooked)
	s.Equal(1, s.available("r1"))

	two := 2
	s.Require().NoError(s.update(admin, id, domain.Patch{SeatsBooked: &two}))
	s.Equal(2, s.available("r1"))
}

func (s *LedgerSuite) TestStatusTransitions() {
	s.seedRide("r1", 4, 4, 100)
	id, err := s.create(passenger, "r1", "", 2)
	s.Require().NoError(err)

	cancelled := domain.StatusCancelled
	s.True(pkgDomain.IsForbidden(s.update(stranger, id, domain.Patch{Status: &cancelled})))

	s.Require().NoError(s.update(passenger, id, domain.Patch{Status: &cancelled}))
	s.Equal(4, s.available("r1"))

	completed := domain.StatusCompleted
	s.True(pkgDomain.IsValidation(s.update(passenger, id, domain.Patch{Status: &completed})))
	s.True(pkgDomain.IsValidation(s.update(passenger, id, domain.Patch{Status: &cancelled})))
	s.Equal(4, s.available("r1"))

	// a cancelled record still occupies the (ride, passenger) pair
	_, err = s.create(passenger, "r1", "", 1)
	s.True(pkgDomain.IsDuplicateBooking(err))

	// deleting it later has no inventory effect
	s.Require().NoError(s.cancel(passenger, id))
	s.Equal(4, s.available("r1"))
}

func (s *LedgerSuite) TestTransientConflictsAreRetried() {
	s.seedRide("r1", 4, 4, 100)
	s.ledger.Rides = &flakyRides{RideRepository: s.rides, failures: 2}

	id, err := s.create(passenger, "r1", "", 1)
	s.Require().NoError(err)
	s.Equal(3, s.available("r1"))

	bookings, err := s.bookings.List(s.ctx, domain.ListFilter{RideID: "r1"})
	s.Require().NoError(err)
	s.Len(bookings, 1)
	s.Equal(id, bookings[0].ID)

	s.ledger.Rides = &flakyRides{RideRepository: s.rides, failures: 10}
	_, err = s.create(stranger, "r1", "", 1)
	s.True(pkgDomain.IsConflict(err))
	s.Equal(3, s.available("r1"))
}

func (s *LedgerSuite) TestFindAndListAuthorization() {
	s.seedRide("r1", 4, 4, 100)
	id, err := s.create(passenger, "r1", "", 1)
	s.Require().NoError(err)
	_, err = s.create(stranger, "r1", "", 1)
	s.Require().NoError(err)

	find := application.NewFindBookingHandler(s.bookings)
	_, err = find.Handle(s.ctx, application.NewFindBookingQuery(application.FindBookingData{Actor: stranger, BookingID: id}))
	s.True(pkgDomain.IsForbidden(err))
	got, err := find.Handle(s.ctx, application.NewFindBookingQuery(application.FindBookingData{Actor: passenger, BookingID: id}))
	s.Require().NoError(err)
	s.Equal(id, got.ID)

	list := application.NewListBookingsHandler(s.bookings, s.rides, pkgApp.NopLogger{})
	mine, err := list.Handle(s.ctx, application.NewListBookingsQuery(application.ListBookingsData{Actor: passenger, PassengerID: "p1"}))
	s.Require().NoError(err)
	s.Len(mine, 1)

	_, err = list.Handle(s.ctx, application.NewListBookingsQuery(application.ListBookingsData{Actor: passenger, PassengerID: "p2"}))
	s.True(pkgDomain.IsForbidden(err))

	onRide, err := list.Handle(s.ctx, application.NewListBookingsQuery(application.ListBookingsData{Actor: driver, RideID: "r1"}))
	s.Require().NoError(err)
	s.Len(onRide, 2)

	_, err = list.Handle(s.ctx, application.NewListBookingsQuery(application.ListBookingsData{Actor: passenger, RideID: "r1"}))
	s.True(pkgDomain.IsForbidden(err))

	own, err := list.Handle(s.ctx, application.NewListBookingsQuery(application.ListBookingsData{Actor: passenger, PassengerID: "p1", RideID: "r1"}))
	s.Require().NoError(err)
	s.Len(own, 1)

	_, err = list.Handle(s.ctx, application.NewListBookingsQuery(application.ListBookingsData{Actor: driver}))
	s.True(pkgDomain.IsForbidden(err))
	all, err := list.Handle(s.ctx, application.NewListBookingsQuery(application.ListBookingsData{Actor: admin}))
	s.Require().NoError(err)
	s.Len(all, 2)
}

func setRideStatus(rides ride.RideRepository, rideID string, status ride.Status) error {
	r, err := rides.FindByID(context.Background(), rideID)
	if err != nil {
		return err
	}
	r.Status = status
	return rides.Update(context.Background(), r)
}
