package recommend

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("prediction not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type PredictionResult struct {
	ID                     string        `json:"id"`
	PatientID              string        `json:"patientId"`
	DrugName               string        `json:"drugName"`
	RecommendedDosage      float64       `json:"recommendedDosage"`
	Confidence             float64       `json:"confidence"`
	Source                 string        `json:"source"`
	AlternativeMedications []Alternative `json:"alternativeMedications"`
	BlockchainHash         string        `json:"blockchainHash"`
	BlockchainTxHash       string        `json:"blockchainTxHash,omitempty"`
	Timestamp              int64         `json:"timestamp"`
	Status                 Status        `json:"status"`
}

// History is append-only. List returns the newest result first.
type History interface {
	Append(ctx context.Context, r PredictionResult) error
	Get(ctx context.Context, id string) (PredictionResult, error)
	FindByHash(ctx context.Context, hash string) (PredictionResult, error)
	List(ctx context.Context) ([]PredictionResult, error)
}

type MemoryHistory struct {
	mu      sync.RWMutex
	results []PredictionResult
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) Append(_ context.Context, r PredictionResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, r)
	return nil
}

func (h *MemoryHistory) find(match func(PredictionResult) bool) (PredictionResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.results) - 1; i >= 0; i-- {
		if match(h.results[i]) {
			return h.results[i], nil
		}
	}
	return PredictionResult{}, ErrNotFound
}

func (h *MemoryHistory) Get(_ context.Context, id string) (PredictionResult, error) {
	return h.find(func(r PredictionResult) bool { return r.ID == id })
}

func (h *MemoryHistory) FindByHash(_ context.Context, hash string) (PredictionResult, error) {
	return h.find(func(r PredictionResult) bool { return r.BlockchainHash == hash })
}

func (h *MemoryHistory) List(_ context.Context) ([]PredictionResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]PredictionResult, len(h.results))
	for i, r := range h.results {
		out[len(out)-1-i] = r
	}
	return out, nil
}

type Stats struct {
	TotalPredictions   int     `json:"totalPredictions"`
	AverageConfidence  float64 `json:"averageConfidence"`
	UniquePatients     int     `json:"uniquePatients"`
	MostPrescribedDrug string  `json:"mostPrescribedDrug"`
}

// Summarize computes dashboard figures over results in list order. On a
// tie the drug seen first wins.
func Summarize(results []PredictionResult) Stats {
	s := Stats{TotalPredictions: len(results)}
	if len(results) == 0 {
		return s
	}

	patients := map[string]struct{}{}
	counts := map[string]int{}
	var order []string
	var total float64
	for _, r := range results {
		total += r.Confidence
		patients[r.PatientID] = struct{}{}
		if counts[r.DrugName] == 0 {
			order = append(order, r.DrugName)
		}
		counts[r.DrugName]++
	}

	best := 0
	for _, drug := range order {
		if counts[drug] > best {
			best = counts[drug]
			s.MostPrescribedDrug = drug
		}
	}
	s.AverageConfidence = total / float64(len(results))
	s.UniquePatients = len(patients)
	return s
}
