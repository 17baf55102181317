package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Skufu/medidose/internal/scoring"
	"github.com/Skufu/medidose/internal/synthetic"
)

var ErrModelUnavailable = errors.New("model unavailable")

type RegistryConfig struct {
	// KeyPrefix is prepended to drug names to form dosage store keys.
	KeyPrefix       string
	DiseaseKey      string
	Patients        int
	SymptomPatients int
	Seed            uint64
	Train           TrainConfig
	// TrainTimeout bounds one load-or-train run. Zero means no limit.
	TrainTimeout time.Duration
	// OnTraining, when set, is called after every training attempt with the
	// model kind and "success" or "failure".
	OnTraining func(kind, result string)
}

func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		KeyPrefix:       "drug-dosage-model-",
		DiseaseKey:      "disease-prediction-model",
		Patients:        1000,
		SymptomPatients: 5000,
		Train:           DefaultTrainConfig(),
		TrainTimeout:    10 * time.Minute,
	}
}

// Registry hands out trained models, loading them from the store or
// training them on synthetic data. At most one load-or-train runs per key.
type Registry struct {
	store  Store
	engine *scoring.DosageEngine
	scorer *scoring.DiseaseScorer
	cfg    RegistryConfig
	log    *zap.Logger

	mu      sync.RWMutex
	dosage  map[string]*DosageModel
	disease *DiseaseModel
	group   singleflight.Group

	datasetOnce sync.Once
	dataset     synthetic.Dataset
}

func NewRegistry(store Store, engine *scoring.DosageEngine, scorer *scoring.DiseaseScorer, cfg RegistryConfig, log *zap.Logger) *Registry {
	return &Registry{
		store:  store,
		engine: engine,
		scorer: scorer,
		cfg:    cfg,
		log:    log.Named("models"),
		dosage: make(map[string]*DosageModel),
	}
}

func (r *Registry) cached(drug string) *DosageModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dosage[drug]
}

// Dosage returns the model for drug. ErrNoTrainingData is returned as is;
// any other training failure is reported as ErrModelUnavailable.
func (r *Registry) Dosage(ctx context.Context, drug string) (*DosageModel, error) {
	drug = scoring.NormalizeDrug(drug)
	if m := r.cached(drug); m != nil {
		return m, nil
	}

	v, err := r.do(ctx, "dosage:"+drug, func(ctx context.Context) (any, error) {
		if m := r.cached(drug); m != nil {
			return m, nil
		}
		key := r.cfg.KeyPrefix + drug
		log := r.log.With(zap.String("drug", drug), zap.String("key", key))

		m, err := r.loadDosage(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrModelNotFound) {
				log.Warn("stored model unusable, retraining", zap.Error(err))
			}
			m, err = TrainDosage(ctx, drug, r.trainingData(), r.cfg.Train, log)
			r.observe(KindDosage, err)
			if errors.Is(err, ErrNoTrainingData) {
				return nil, err
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			}
			if err := r.store.Save(ctx, key, m.Snapshot()); err != nil {
				log.Warn("failed to save model", zap.Error(err))
			}
		}

		r.mu.Lock()
		r.dosage[drug] = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DosageModel), nil
}

// do runs fn once per key for all concurrent callers. fn gets a context
// that outlives any single caller, so one client going away does not abort
// a run the others are waiting on; each caller still returns as soon as its
// own ctx is done.
func (r *Registry) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	ch := r.group.DoChan(key, func() (any, error) {
		runCtx := context.WithoutCancel(ctx)
		if r.cfg.TrainTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, r.cfg.TrainTimeout)
			defer cancel()
		}
		return fn(runCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, ctx.Err())
	}
}

func (r *Registry) loadDosage(ctx context.Context, key string) (*DosageModel, error) {
	s, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	m, err := DosageFromSnapshot(s)
	if err != nil {
		return nil, err
	}
	if want := r.engine.AgePolicy().String(); m.Labels != want {
		return nil, fmt.Errorf("%w: labels %q, want %q", ErrSchemaMismatch, m.Labels, want)
	}
	return m, nil
}

// Disease returns the disease classifier.
func (r *Registry) Disease(ctx context.Context) (*DiseaseModel, error) {
	r.mu.RLock()
	m := r.disease
	r.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	v, err := r.do(ctx, KindDisease, func(ctx context.Context) (any, error) {
		r.mu.RLock()
		m := r.disease
		r.mu.RUnlock()
		if m != nil {
			return m, nil
		}
		log := r.log.With(zap.String("key", r.cfg.DiseaseKey))

		m, err := r.loadDisease(ctx)
		if err != nil {
			if !errors.Is(err, ErrModelNotFound) {
				log.Warn("stored model unusable, retraining", zap.Error(err))
			}
			gen := synthetic.New(synthetic.NewRand(r.cfg.Seed), r.engine)
			m, err = TrainDisease(ctx, gen.SymptomPatients(r.cfg.SymptomPatients), r.scorer, r.cfg.Train, log)
			r.observe(KindDisease, err)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			}
			if err := r.store.Save(ctx, r.cfg.DiseaseKey, m.Snapshot()); err != nil {
				log.Warn("failed to save model", zap.Error(err))
			}
		}

		r.mu.Lock()
		r.disease = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DiseaseModel), nil
}

func (r *Registry) loadDisease(ctx context.Context) (*DiseaseModel, error) {
	s, err := r.store.Load(ctx, r.cfg.DiseaseKey)
	if err != nil {
		return nil, err
	}
	return DiseaseFromSnapshot(s)
}

// Warm loads or trains every known drug model and the disease model.
func (r *Registry) Warm(ctx context.Context) error {
	var errs []error
	for _, drug := range scoring.Drugs {
		if _, err := r.Dosage(ctx, drug); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := r.Disease(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// trainingData generates the shared dosage dataset on first use.
func (r *Registry) trainingData() synthetic.Dataset {
	r.datasetOnce.Do(func() {
		gen := synthetic.New(synthetic.NewRand(r.cfg.Seed), r.engine)
		r.dataset = gen.Dataset(r.cfg.Patients)
	})
	return r.dataset
}

func (r *Registry) observe(kind string, err error) {
	if r.cfg.OnTraining == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.cfg.OnTraining(kind, result)
}
