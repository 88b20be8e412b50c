package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbaer/opendirindex/internal/models"
)

func newState() *State {
	root := models.NewDirectory("http://example.com/", "", nil)
	return New(root, 4)
}

func TestMarkProcessedOnlyOnce(t *testing.T) {
	s := newState()
	assert.True(t, s.MarkProcessed("http://example.com/a"))
	assert.False(t, s.MarkProcessed("http://example.com/a"))
	assert.True(t, s.IsProcessed("http://example.com/a"))
}

func TestUnmarkProcessed(t *testing.T) {
	s := newState()
	s.MarkProcessed("http://example.com/a")
	s.UnmarkProcessed("http://example.com/a")
	assert.False(t, s.IsProcessed("http://example.com/a"))
	assert.True(t, s.MarkProcessed("http://example.com/a"))
}

func TestMarkProcessedConcurrentOnlyOneWinner(t *testing.T) {
	s := newState()
	var wg sync.WaitGroup
	wins := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- s.MarkProcessed("http://example.com/shared")
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRecordStatusAndCounters(t *testing.T) {
	s := newState()
	s.RecordStatus(200, 1024)
	s.RecordStatus(200, 2048)
	s.RecordStatus(404, 0)

	codes := s.StatusCodes()
	assert.Equal(t, 2, codes[200])
	assert.Equal(t, 1, codes[404])
	assert.EqualValues(t, 3, s.TotalHTTPRequests())
	assert.EqualValues(t, 3072, s.TotalHTTPTraffic())
}

func TestAddErrorAndSkipped(t *testing.T) {
	s := newState()
	s.AddError("http://example.com/broken")
	s.IncSkipped()
	s.IncSkipped()

	assert.EqualValues(t, 1, s.Errors())
	assert.EqualValues(t, 2, s.Skipped())
	assert.Contains(t, s.URLsWithErrors(), "http://example.com/broken")
}

func TestParameters(t *testing.T) {
	s := newState()
	s.SetParameter("GdIndex_RootId", "abc123")
	assert.Equal(t, "abc123", s.Parameter("GdIndex_RootId"))
	assert.Equal(t, "", s.Parameter("missing"))

	params := s.Parameters()
	assert.Equal(t, "abc123", params["GdIndex_RootId"])
}

func TestToModelSnapshotsCurrentState(t *testing.T) {
	s := newState()
	s.RecordStatus(200, 100)
	s.AddError("http://example.com/bad")
	s.Finish()

	snap := s.ToModel()
	assert.EqualValues(t, 1, snap.TotalHTTPRequests)
	assert.EqualValues(t, 1, snap.Errors)
	assert.False(t, snap.FinishedAt.IsZero())
	assert.Equal(t, 4, snap.MaxThreads)
}
