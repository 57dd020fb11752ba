package storage

import (
	"sync"

	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// CollectionStore holds the session's ordered image collection together with
// the terminal result list of the last completed analysis run. An optional
// eviction hook fires once for every record that leaves the store, which is
// where preview objects get released.
type CollectionStore struct {
	mu          sync.RWMutex
	records     []models.ImageRecord
	results     []models.AnalysisResult
	resultsDesc bool
	onEvict     func(models.ImageRecord)
}

func New(onEvict func(models.ImageRecord)) *CollectionStore {
	return &CollectionStore{onEvict: onEvict}
}

// Append adds a batch of records after the existing ones, preserving both
// the existing order and the batch's internal order.
func (s *CollectionStore) Append(batch []models.ImageRecord) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, batch...)
}

// Remove deletes the record with the given id. Removing an unknown id is a
// no-op. Returns whether a record was removed.
func (s *CollectionStore) Remove(id string) bool {
	var evicted *models.ImageRecord

	s.mu.Lock()
	for i, rec := range s.records {
		if rec.ID == id {
			r := rec
			evicted = &r
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if evicted == nil {
		return false
	}
	if s.onEvict != nil {
		s.onEvict(*evicted)
	}
	return true
}

// Clear empties the collection and drops any prior results.
func (s *CollectionStore) Clear() {
	s.mu.Lock()
	evicted := s.records
	s.records = nil
	s.results = nil
	s.resultsDesc = false
	s.mu.Unlock()

	if s.onEvict != nil {
		for _, rec := range evicted {
			s.onEvict(rec)
		}
	}
}

// Images returns a copy of the collection in stored order.
func (s *CollectionStore) Images() []models.ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ImageRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *CollectionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// SetResults replaces the stored results with the terminal list of a
// completed run. withDescription records whether that run had descriptions
// enabled, which later decides the CSV column set.
func (s *CollectionStore) SetResults(results []models.AnalysisResult, withDescription bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.resultsDesc = withDescription
}

// Results returns a copy of the current result list and whether the run
// that produced it had descriptions enabled.
func (s *CollectionStore) Results() ([]models.AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AnalysisResult, len(s.results))
	copy(out, s.results)
	return out, s.resultsDesc
}
