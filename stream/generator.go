package stream

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/gridgo/row"
)

// Generator synthesizes the row with the given id.
type Generator func(id int64) row.Row

var (
	departments = []string{"Engineering", "Marketing", "Sales", "HR", "Finance"}
	positions   = []string{"Manager", "Senior", "Junior", "Lead", "Specialist"}
	locations   = []string{"New York", "Los Angeles", "San Francisco", "Chicago"}
	statuses    = []string{"Active", "On Leave", "Remote"}
)

// Employee is the default Generator. It produces employee records that
// started today.
func Employee(id int64) row.Row {
	return row.Row{
		"id":         id,
		"name":       fmt.Sprintf("Employee %d", id),
		"email":      fmt.Sprintf("employee%d@company.com", id),
		"department": departments[rand.IntN(len(departments))],
		"position":   positions[rand.IntN(len(positions))],
		"salary":     rand.IntN(100000) + 40000,
		"startDate":  time.Now().Format(time.DateOnly),
		"status":     statuses[rand.IntN(len(statuses))],
		"location":   locations[rand.IntN(len(locations))],
	}
}
