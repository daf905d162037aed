package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athletichub/internal/booking"
	"athletichub/internal/models"
	"athletichub/internal/utils"
)

// Mock implementations for testing

type MockEventStore struct {
	mu           sync.Mutex
	events       map[string]bool
	participants map[string]bool
	shouldFailOn string
	errorMsg     string
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:       make(map[string]bool),
		participants: make(map[string]bool),
	}
}

func bookingKey(eventID, email string) string {
	return eventID + "|" + email
}

func (m *MockEventStore) AddEvent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[id] = true
}

func (m *MockEventStore) EventExists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "EventExists" {
		return false, errors.New(m.errorMsg)
	}
	return m.events[id], nil
}

func (m *MockEventStore) AddParticipant(ctx context.Context, eventID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "AddParticipant" {
		return false, errors.New(m.errorMsg)
	}
	key := bookingKey(eventID, email)
	if m.participants[key] {
		return false, nil
	}
	m.participants[key] = true
	return true, nil
}

func (m *MockEventStore) RemoveParticipant(ctx context.Context, eventID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "RemoveParticipant" {
		return false, errors.New(m.errorMsg)
	}
	key := bookingKey(eventID, email)
	if !m.participants[key] {
		return false, nil
	}
	delete(m.participants, key)
	return true, nil
}

func (m *MockEventStore) HasParticipant(ctx context.Context, eventID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "HasParticipant" {
		return false, errors.New(m.errorMsg)
	}
	return m.participants[bookingKey(eventID, email)], nil
}

type MockTicketStore struct {
	mu           sync.Mutex
	tickets      map[string]*models.Ticket
	issueCalls   int
	revokeCalls  int
	shouldFailOn string
	errorMsg     string
}

func NewMockTicketStore() *MockTicketStore {
	return &MockTicketStore{
		tickets: make(map[string]*models.Ticket),
	}
}

func (m *MockTicketStore) Issue(ctx context.Context, eventID, email string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issueCalls++
	if m.shouldFailOn == "Issue" {
		return nil, errors.New(m.errorMsg)
	}
	key := bookingKey(eventID, email)
	if existing, ok := m.tickets[key]; ok {
		return existing, nil
	}
	ticket := &models.Ticket{
		TicketID:         utils.TicketID(eventID, email),
		EventID:          eventID,
		ParticipantEmail: email,
		QRCode:           []byte("qr"),
		Status:           models.TicketStatusValid,
		IssuedAt:         time.Now(),
	}
	m.tickets[key] = ticket
	return ticket, nil
}

func (m *MockTicketStore) ByBooking(ctx context.Context, eventID, email string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "ByBooking" {
		return nil, errors.New(m.errorMsg)
	}
	ticket, ok := m.tickets[bookingKey(eventID, email)]
	if !ok {
		return nil, fmt.Errorf("%w: event=%s email=%s", booking.ErrTicketNotFound, eventID, email)
	}
	return ticket, nil
}

func (m *MockTicketStore) Revoke(ctx context.Context, eventID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokeCalls++
	if m.shouldFailOn == "Revoke" {
		return false, errors.New(m.errorMsg)
	}
	key := bookingKey(eventID, email)
	if _, ok := m.tickets[key]; !ok {
		return false, nil
	}
	delete(m.tickets, key)
	return true, nil
}

func (m *MockTicketStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

// Seed drops a ticket into the store without going through Issue, to
// simulate state left behind by a partial failure.
func (m *MockTicketStore) Seed(eventID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[bookingKey(eventID, email)] = &models.Ticket{
		TicketID:         utils.TicketID(eventID, email),
		EventID:          eventID,
		ParticipantEmail: email,
		Status:           models.TicketStatusValid,
		IssuedAt:         time.Now(),
	}
}

type MockLock struct {
	mu           sync.Mutex
	locks        map[string]string
	shouldFailOn string
	errorMsg     string
}

func NewMockLock() *MockLock {
	return &MockLock{locks: make(map[string]string)}
}

func (m *MockLock) Acquire(ctx context.Context, eventID, email, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "Acquire" {
		return false, errors.New(m.errorMsg)
	}
	key := bookingKey(eventID, email)
	if _, held := m.locks[key]; held {
		return false, nil
	}
	m.locks[key] = owner
	return true, nil
}

func (m *MockLock) Release(ctx context.Context, eventID, email, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "Release" {
		return errors.New(m.errorMsg)
	}
	key := bookingKey(eventID, email)
	if m.locks[key] == owner {
		delete(m.locks, key)
	}
	return nil
}

type MockPublisher struct {
	mu           sync.Mutex
	created      []models.Ticket
	cancelled    []string
	shouldFailOn string
	errorMsg     string
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishBookingCreated(ticket models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "PublishBookingCreated" {
		return errors.New(m.errorMsg)
	}
	m.created = append(m.created, ticket)
	return nil
}

func (m *MockPublisher) PublishBookingCancelled(eventID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOn == "PublishBookingCancelled" {
		return errors.New(m.errorMsg)
	}
	m.cancelled = append(m.cancelled, bookingKey(eventID, email))
	return nil
}

func setupService() (*booking.Service, *MockEventStore, *MockTicketStore, *MockLock, *MockPublisher) {
	events := NewMockEventStore()
	tickets := NewMockTicketStore()
	lock := NewMockLock()
	publisher := NewMockPublisher()
	svc := booking.NewService(events, tickets, lock, publisher, nil, 5*time.Second)
	return svc, events, tickets, lock, publisher
}

func TestBookIssuesTicket(t *testing.T) {
	svc, events, tickets, _, publisher := setupService()
	events.AddEvent("event-1")

	result, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	assert.True(t, result.Added)
	assert.False(t, result.AlreadyBooked)
	require.NotNil(t, result.Ticket)
	assert.Equal(t, utils.TicketID("event-1", "runner@example.com"), result.Ticket.TicketID)
	assert.Equal(t, 1, tickets.Count())
	assert.Len(t, publisher.created, 1)
}

func TestBookIsIdempotent(t *testing.T) {
	svc, events, tickets, _, _ := setupService()
	events.AddEvent("event-1")

	first, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	second, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	assert.False(t, second.Added)
	assert.True(t, second.AlreadyBooked)
	require.NotNil(t, second.Ticket)
	assert.Equal(t, first.Ticket.TicketID, second.Ticket.TicketID)
	assert.Equal(t, 1, tickets.Count(), "repeated booking must not create a second ticket")
}

func TestBookNormalizesEmail(t *testing.T) {
	svc, events, _, _, _ := setupService()
	events.AddEvent("event-1")

	first, err := svc.Book(context.Background(), "event-1", "  Runner@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "runner@example.com", first.Email)

	second, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)
	assert.True(t, second.AlreadyBooked, "case variants of the same email are the same booking")
	assert.Equal(t, first.Ticket.TicketID, second.Ticket.TicketID)
}

func TestBookUnknownEvent(t *testing.T) {
	svc, _, tickets, _, _ := setupService()

	_, err := svc.Book(context.Background(), "no-such-event", "runner@example.com")
	assert.ErrorIs(t, err, booking.ErrEventNotFound)
	assert.Equal(t, 0, tickets.Count())
}

func TestBookValidation(t *testing.T) {
	svc, _, _, _, _ := setupService()

	_, err := svc.Book(context.Background(), "", "runner@example.com")
	assert.ErrorIs(t, err, booking.ErrInvalidInput)

	_, err = svc.Book(context.Background(), "event-1", "   ")
	assert.ErrorIs(t, err, booking.ErrInvalidInput)
}

func TestBookStoreFailure(t *testing.T) {
	svc, events, _, _, _ := setupService()
	events.AddEvent("event-1")
	events.shouldFailOn = "AddParticipant"
	events.errorMsg = "connection refused"

	_, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	assert.ErrorIs(t, err, booking.ErrStoreUnavailable)
}

func TestBookSurvivesLockFailure(t *testing.T) {
	svc, events, _, lock, _ := setupService()
	events.AddEvent("event-1")
	lock.shouldFailOn = "Acquire"
	lock.errorMsg = "redis down"

	result, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err, "the lock is best-effort, booking must not depend on it")
	require.NotNil(t, result.Ticket)
}

func TestBookPublishFailureDoesNotFailBooking(t *testing.T) {
	svc, events, _, _, publisher := setupService()
	events.AddEvent("event-1")
	publisher.shouldFailOn = "PublishBookingCreated"
	publisher.errorMsg = "broker unavailable"

	result, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Ticket)
}

func TestConcurrentBooksProduceOneTicket(t *testing.T) {
	svc, events, tickets, _, _ := setupService()
	events.AddEvent("event-1")

	const numGoroutines = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	addedCount := 0
	ticketIDs := make(map[string]bool)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Book(context.Background(), "event-1", "runner@example.com")
			if err != nil {
				t.Errorf("Book failed: %v", err)
				return
			}
			mu.Lock()
			if result.Added {
				addedCount++
			}
			if result.Ticket != nil {
				ticketIDs[result.Ticket.TicketID] = true
			}
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, addedCount, "exactly one call should observe the membership change")
	assert.Equal(t, 1, tickets.Count(), "all racers must converge on a single ticket")
	assert.Len(t, ticketIDs, 1, "every caller must see the same ticket id")
}

func TestCancelRemovesBookingAndTicket(t *testing.T) {
	svc, events, tickets, _, publisher := setupService()
	events.AddEvent("event-1")

	_, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	result, err := svc.Cancel(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	assert.True(t, result.Removed)
	assert.True(t, result.TicketDeleted)
	assert.Equal(t, 0, tickets.Count())
	assert.Len(t, publisher.cancelled, 1)

	booked, err := events.HasParticipant(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestCancelNeverBooked(t *testing.T) {
	svc, events, tickets, _, _ := setupService()
	events.AddEvent("event-1")

	_, err := svc.Cancel(context.Background(), "event-1", "stranger@example.com")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	assert.Equal(t, 0, tickets.revokeCalls, "a cancel that removed nothing must not touch the ticket store")
}

func TestCancelOnlyRemovesMatchingBooking(t *testing.T) {
	svc, events, tickets, _, _ := setupService()
	events.AddEvent("event-1")

	_, err := svc.Book(context.Background(), "event-1", "first@example.com")
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), "event-1", "second@example.com")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), "event-1", "first@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, tickets.Count())
	remaining, err := svc.Ticket(context.Background(), "event-1", "second@example.com")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", remaining.ParticipantEmail)
}

func TestCancelSucceedsWhenRevokeFails(t *testing.T) {
	svc, events, tickets, _, _ := setupService()
	events.AddEvent("event-1")

	_, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	tickets.shouldFailOn = "Revoke"
	tickets.errorMsg = "connection reset"

	result, err := svc.Cancel(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err, "membership removal already happened, the cancel stands")
	assert.True(t, result.Removed)
	assert.False(t, result.TicketDeleted)
}

func TestRebookAfterCancelYieldsSameTicketID(t *testing.T) {
	svc, events, _, _, _ := setupService()
	events.AddEvent("event-1")

	first, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	again, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	assert.True(t, again.Added)
	assert.Equal(t, first.Ticket.TicketID, again.Ticket.TicketID,
		"ticket ids are derived from the booking pair, so a re-book reproduces the id")
}

func TestTicketHappyPath(t *testing.T) {
	svc, events, _, _, _ := setupService()
	events.AddEvent("event-1")

	booked, err := svc.Book(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)

	ticket, err := svc.Ticket(context.Background(), "event-1", "Runner@Example.com")
	require.NoError(t, err)
	assert.Equal(t, booked.Ticket.TicketID, ticket.TicketID)
}

func TestTicketRepairsOrphan(t *testing.T) {
	svc, events, tickets, _, _ := setupService()
	events.AddEvent("event-1")

	// A ticket without a matching membership row, as left behind by a
	// cancel whose revoke write failed.
	tickets.Seed("event-1", "runner@example.com")

	_, err := svc.Ticket(context.Background(), "event-1", "runner@example.com")
	assert.ErrorIs(t, err, booking.ErrTicketNotFound)
	assert.Equal(t, 0, tickets.Count(), "the orphan ticket should be cleaned up on read")
}

func TestTicketReissuesForBookedParticipant(t *testing.T) {
	svc, events, tickets, _, _ := setupService()
	events.AddEvent("event-1")

	// Membership without a ticket, as left behind by a Book whose ticket
	// write failed.
	added, err := events.AddParticipant(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)
	require.True(t, added)

	ticket, err := svc.Ticket(context.Background(), "event-1", "runner@example.com")
	require.NoError(t, err)
	assert.Equal(t, utils.TicketID("event-1", "runner@example.com"), ticket.TicketID)
	assert.Equal(t, 1, tickets.Count())
}

func TestTicketNotBookedNoTicket(t *testing.T) {
	svc, events, _, _, _ := setupService()
	events.AddEvent("event-1")

	_, err := svc.Ticket(context.Background(), "event-1", "stranger@example.com")
	assert.ErrorIs(t, err, booking.ErrTicketNotFound)
}
