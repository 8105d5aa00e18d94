package testutil

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hupe1980/gridgo/row"
)

var (
	Departments = []string{"Engineering", "Marketing", "Sales", "HR", "Finance"}
	Positions   = []string{"Manager", "Senior", "Junior", "Lead", "Specialist"}
	Locations   = []string{"New York", "Los Angeles", "San Francisco", "Chicago"}
	Statuses    = []string{"Active", "On Leave", "Remote"}
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Pick returns a random element of choices.
func (r *RNG) Pick(choices []string) string {
	return choices[r.Intn(len(choices))]
}

// Employee returns one synthetic employee record with the given id.
func (r *RNG) Employee(id int64) row.Row {
	r.mu.Lock()
	defer r.mu.Unlock()

	pick := func(choices []string) string { return choices[r.rand.Intn(len(choices))] }
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, r.rand.Intn(3650))

	return row.Row{
		"id":         id,
		"name":       fmt.Sprintf("Employee %d", id),
		"email":      fmt.Sprintf("employee%d@company.com", id),
		"department": pick(Departments),
		"position":   pick(Positions),
		"salary":     r.rand.Intn(100000) + 40000,
		"startDate":  start.Format(time.DateOnly),
		"status":     pick(Statuses),
		"location":   pick(Locations),
	}
}

// Employees returns n employees with consecutive ids starting at firstID.
func (r *RNG) Employees(n int, firstID int64) []row.Row {
	out := make([]row.Row, n)
	for i := range out {
		out[i] = r.Employee(firstID + int64(i))
	}
	return out
}

// Sparse returns n employees where roughly one in three rows lacks the given
// field. Useful for exercising "Unknown" grouping and missing-value filters.
func (r *RNG) Sparse(n int, firstID int64, field string) []row.Row {
	out := r.Employees(n, firstID)
	for _, e := range out {
		if r.Intn(3) == 0 {
			delete(e, field)
		}
	}
	return out
}
