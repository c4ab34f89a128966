package services

import (
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
)

// tickClock advances one second per read so server timestamps are distinct.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore() (*docstore.Memory, *tickClock) {
	clock := &tickClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	return docstore.NewMemory(docstore.WithClock(clock.now)), clock
}

func newJobRequest(title string) *dto.CreateJobRequest {
	return &dto.CreateJobRequest{
		Title:           title,
		Department:      "Engineering",
		EmploymentType:  models.EmploymentFullTime,
		ExperienceLevel: models.ExperienceSenior,
		Location:        "Berlin",
		Description:     "Build the hiring pipeline",
		CreatedBy:       "hr1",
	}
}
