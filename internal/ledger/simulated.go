package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultRecorder = "0x1234567890123456789012345678901234567890"

type SimulatedConfig struct {
	Network      string
	FailureRate  float64
	MissRate     float64
	SubmitDelay  time.Duration
	ConfirmDelay time.Duration
	VerifyDelay  time.Duration
	Recorder     string
}

func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		Network:      DefaultNetwork,
		FailureRate:  0.1,
		MissRate:     0.1,
		SubmitDelay:  time.Second,
		ConfirmDelay: 2 * time.Second,
		VerifyDelay:  2 * time.Second,
		Recorder:     defaultRecorder,
	}
}

// Simulated keeps records in memory and fails or misses at the configured
// rates. It is safe for concurrent use.
type Simulated struct {
	cfg     SimulatedConfig
	network Network
	log     *zap.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	records map[string]Entry
}

func NewSimulated(cfg SimulatedConfig, rng *rand.Rand, log *zap.Logger) (*Simulated, error) {
	n, ok := Networks[cfg.Network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, cfg.Network)
	}
	if cfg.Recorder == "" {
		cfg.Recorder = defaultRecorder
	}
	return &Simulated{
		cfg:     cfg,
		network: n,
		log:     log.Named("ledger").With(zap.String("network", cfg.Network)),
		rng:     rng,
		records: make(map[string]Entry),
	}, nil
}

func (s *Simulated) Network() Network {
	return s.network
}

func (s *Simulated) Record(ctx context.Context, hash, drug string, dosage float64, timestamp int64, onStatus StatusFunc) (Receipt, error) {
	notify := func(status string) {
		if onStatus != nil {
			onStatus(status)
		}
	}

	notify(StatusSubmitting)
	if err := wait(ctx, s.cfg.SubmitDelay); err != nil {
		return Receipt{}, err
	}
	notify(StatusSubmitted)
	if err := wait(ctx, s.cfg.ConfirmDelay); err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[hash]; ok {
		notify(StatusFailed)
		return Receipt{}, ErrAlreadyRecorded
	}
	if s.rng.Float64() < s.cfg.FailureRate {
		notify(StatusFailed)
		s.log.Debug("transaction failed", zap.String("hash", hash))
		return Receipt{}, ErrTransactionFailed
	}

	tx := s.txHash(hash)
	s.records[hash] = Entry{
		Hash:      hash,
		DrugName:  drug,
		Dosage:    dosage,
		Timestamp: timestamp,
		Recorder:  s.cfg.Recorder,
		TxHash:    tx,
	}
	notify(StatusConfirmed)
	s.log.Debug("transaction confirmed", zap.String("hash", hash), zap.String("tx_hash", tx))
	return Receipt{TxHash: tx, Network: s.cfg.Network}, nil
}

// txHash derives a transaction id from the prediction hash and a nonce.
// Callers hold s.mu.
func (s *Simulated) txHash(hash string) string {
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], s.rng.Uint64())
	return keccakHex(append([]byte(hash), nonce[:]...))
}

func (s *Simulated) Verify(ctx context.Context, hash string) (Entry, error) {
	if err := wait(ctx, s.cfg.VerifyDelay); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < s.cfg.MissRate {
		return Entry{}, ErrRecordNotFound
	}
	e, ok := s.records[hash]
	if !ok {
		return Entry{}, ErrRecordNotFound
	}
	return e, nil
}

func (s *Simulated) ExplorerURL(txHash string) string {
	return s.network.BlockExplorer + "/tx/" + txHash
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
