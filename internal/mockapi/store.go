package mockapi

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farmart/farmart-go/pkg/models"
)

// userRecord pairs a profile with its password hash. The hash never
// leaves the store.
type userRecord struct {
	models.User
	PasswordHash string
}

// Store is the mock API's in-memory state. Everything lives behind one
// lock; the mock trades throughput for zero setup.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*userRecord
	emails  map[string]string // email -> user id
	animals map[string]*models.Animal
	carts   map[string][]models.CartItem // user id -> items
	orders  map[string]*models.Order
	uploads map[string][]byte // served path -> bytes
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*userRecord),
		emails:  make(map[string]string),
		animals: make(map[string]*models.Animal),
		carts:   make(map[string][]models.CartItem),
		orders:  make(map[string]*models.Order),
		uploads: make(map[string][]byte),
	}
}

func (s *Store) createUser(user models.User, passwordHash string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := s.emails[email]; taken {
		return models.User{}, false
	}

	user.ID = uuid.New().String()
	s.users[user.ID] = &userRecord{User: user, PasswordHash: passwordHash}
	s.emails[email] = user.ID
	return user, true
}

func (s *Store) userByEmail(email string) (*userRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, false
	}
	record := *s.users[id]
	return &record, true
}

func (s *Store) userByID(id string) (*userRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.users[id]
	if !ok {
		return nil, false
	}
	copied := *record
	return &copied, true
}

func (s *Store) updateUser(id string, apply func(*userRecord)) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	apply(record)
	return record.User, true
}

// animalFilter holds the parsed GET /animals query.
type animalFilter struct {
	animalType string
	breed      string
	minAge     int
	maxAge     int
	minPrice   float64
	maxPrice   float64
	location   string
	search     string
	hasMinAge  bool
	hasMaxAge  bool
	hasMinP    bool
	hasMaxP    bool
}

func parseAnimalFilter(get func(string) string) animalFilter {
	f := animalFilter{
		animalType: get("type"),
		breed:      get("breed"),
		location:   get("location"),
		search:     get("search"),
	}
	if v := get("minAge"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.minAge, f.hasMinAge = n, true
		}
	}
	if v := get("maxAge"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.maxAge, f.hasMaxAge = n, true
		}
	}
	if v := get("minPrice"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.minPrice, f.hasMinP = n, true
		}
	}
	if v := get("maxPrice"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.maxPrice, f.hasMaxP = n, true
		}
	}
	return f
}

func (f animalFilter) matches(a *models.Animal) bool {
	if !a.Available {
		return false
	}
	if f.animalType != "" && !strings.EqualFold(a.Type, f.animalType) {
		return false
	}
	if f.breed != "" && !containsFold(a.Breed, f.breed) {
		return false
	}
	if f.hasMinAge && a.Age < f.minAge {
		return false
	}
	if f.hasMaxAge && a.Age > f.maxAge {
		return false
	}
	if f.hasMinP && a.Price < f.minPrice {
		return false
	}
	if f.hasMaxP && a.Price > f.maxPrice {
		return false
	}
	if f.location != "" && !containsFold(a.Farmer.FarmLocation, f.location) {
		return false
	}
	if f.search != "" {
		if !containsFold(a.Name, f.search) &&
			!containsFold(a.Breed, f.search) &&
			!containsFold(a.Description, f.search) {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *Store) listAnimals(f animalFilter) []models.Animal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Animal, 0)
	for _, animal := range s.animals {
		if f.matches(animal) {
			matched = append(matched, *animal)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func (s *Store) createAnimal(animal models.Animal) models.Animal {
	s.mu.Lock()
	defer s.mu.Unlock()
	animal.ID = uuid.New().String()
	animal.CreatedAt = time.Now().UTC()
	animal.UpdatedAt = animal.CreatedAt
	s.animals[animal.ID] = &animal
	return animal
}

func (s *Store) animalByID(id string) (models.Animal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	animal, ok := s.animals[id]
	if !ok {
		return models.Animal{}, false
	}
	return *animal, true
}

func (s *Store) replaceAnimal(updated models.Animal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated.UpdatedAt = time.Now().UTC()
	s.animals[updated.ID] = &updated
}

func (s *Store) deleteAnimal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.animals, id)
}

func (s *Store) cartItems(userID string) []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.CartItem, len(s.carts[userID]))
	copy(items, s.carts[userID])
	return items
}

// addCartItem merges quantity into an existing line for the same animal
// or appends a new one.
func (s *Store) addCartItem(userID string, animal models.Animal, quantity int) models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].Animal.ID == animal.ID {
			items[i].Quantity += quantity
			s.carts[userID] = items
			return items[i]
		}
	}

	item := models.CartItem{
		ID:       uuid.New().String(),
		Animal:   animal,
		Quantity: quantity,
	}
	s.carts[userID] = append(items, item)
	return item
}

func (s *Store) removeCartItem(userID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) clearCart(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

func (s *Store) createOrder(order models.Order) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = uuid.New().String()
	order.OrderNumber = "ORD-" + strings.ToUpper(order.ID[:8])
	order.CreatedAt = time.Now().UTC()
	s.orders[order.ID] = &order
	return order
}

func (s *Store) orderByID(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return *order, true
}

func (s *Store) replaceOrder(updated models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[updated.ID] = &updated
}

// ordersFor returns a customer's own orders or a farmer's incoming ones
// (orders containing at least one of their animals), newest first.
func (s *Store) ordersFor(user models.User) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Order, 0)
	for _, order := range s.orders {
		switch user.Role {
		case models.RoleCustomer:
			if order.CustomerID == user.ID {
				matched = append(matched, *order)
			}
		case models.RoleFarmer:
			if orderHasFarmer(order, user.ID) {
				matched = append(matched, *order)
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func orderHasFarmer(order *models.Order, farmerID string) bool {
	for _, item := range order.Items {
		if item.FarmerID == farmerID {
			return true
		}
	}
	return false
}

func (s *Store) statsFor(user models.User) models.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.DashboardStats
	switch user.Role {
	case models.RoleFarmer:
		for _, animal := range s.animals {
			if animal.Farmer.ID == user.ID {
				stats.TotalListings++
			}
		}
		for _, order := range s.orders {
			if !orderHasFarmer(order, user.ID) {
				continue
			}
			switch order.Status {
			case models.OrderPending:
				stats.PendingOrders++
			case models.OrderConfirmed:
				stats.ConfirmedOrders++
				stats.TotalRevenue += order.TotalAmount
			case models.OrderRejected:
				stats.RejectedOrders++
			}
		}
	case models.RoleCustomer:
		for _, order := range s.orders {
			if order.CustomerID != user.ID {
				continue
			}
			switch order.Status {
			case models.OrderPending:
				stats.PendingOrders++
			case models.OrderConfirmed:
				stats.ConfirmedOrders++
				stats.TotalRevenue += order.TotalAmount
			case models.OrderRejected:
				stats.RejectedOrders++
			}
		}
		stats.CartItems = len(s.carts[user.ID])
	}
	return stats
}

func (s *Store) saveUpload(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[path] = data
}

func (s *Store) upload(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.uploads[path]
	return data, ok
}
