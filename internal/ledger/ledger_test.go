package ledger

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSimulated(t *testing.T, failure, miss float64) *Simulated {
	t.Helper()
	cfg := SimulatedConfig{Network: "mumbai", FailureRate: failure, MissRate: miss}
	s, err := NewSimulated(cfg, rand.New(rand.NewPCG(1, 2)), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestKeccak(t *testing.T) {
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", keccakHex(nil))
}

func TestPredictionHash(t *testing.T) {
	a := PredictionHash("P1000", "ibuprofen", 400, 1700000000000)
	assert.Len(t, a, 66)
	assert.Equal(t, "0x", a[:2])
	assert.Equal(t, a, PredictionHash("P1000", "ibuprofen", 400, 1700000000000))
	assert.Equal(t, keccakHex([]byte("P1000:ibuprofen:400:1700000000000")), a)

	assert.NotEqual(t, a, PredictionHash("P1001", "ibuprofen", 400, 1700000000000))
	assert.NotEqual(t, a, PredictionHash("P1000", "ibuprofen", 405, 1700000000000))
	assert.NotEqual(t, a, PredictionHash("P1000", "ibuprofen", 400, 1700000000001))
}

func TestRecordAndVerify(t *testing.T) {
	ctx := context.Background()
	s := newSimulated(t, 0, 0)

	var statuses []string
	hash := PredictionHash("P1", "metformin", 280, 42)
	receipt, err := s.Record(ctx, hash, "metformin", 280, 42, func(status string) {
		statuses = append(statuses, status)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{StatusSubmitting, StatusSubmitted, StatusConfirmed}, statuses)
	assert.Len(t, receipt.TxHash, 66)
	assert.Equal(t, "mumbai", receipt.Network)

	entry, err := s.Verify(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "metformin", entry.DrugName)
	assert.Equal(t, 280.0, entry.Dosage)
	assert.Equal(t, int64(42), entry.Timestamp)
	assert.Equal(t, defaultRecorder, entry.Recorder)
	assert.Equal(t, receipt.TxHash, entry.TxHash)

	_, err = s.Verify(ctx, "0xunknown")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordTwice(t *testing.T) {
	s := newSimulated(t, 0, 0)
	_, err := s.Record(context.Background(), "0xabc", "ibuprofen", 400, 1, nil)
	require.NoError(t, err)

	_, err = s.Record(context.Background(), "0xabc", "ibuprofen", 400, 1, nil)
	assert.ErrorIs(t, err, ErrAlreadyRecorded)
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestRecordFailure(t *testing.T) {
	s := newSimulated(t, 1, 0)

	var last string
	_, err := s.Record(context.Background(), "0xdef", "ibuprofen", 400, 1, func(status string) { last = status })
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.Equal(t, StatusFailed, last)

	_, err = s.Verify(context.Background(), "0xdef")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestVerifyMiss(t *testing.T) {
	s := newSimulated(t, 0, 1)
	_, err := s.Record(context.Background(), "0x1", "ibuprofen", 400, 1, nil)
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), "0x1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordHonoursDeadline(t *testing.T) {
	cfg := SimulatedConfig{Network: "goerli", SubmitDelay: time.Second, ConfirmDelay: time.Second}
	s, err := NewSimulated(cfg, rand.New(rand.NewPCG(1, 2)), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Record(ctx, "0x2", "ibuprofen", 400, 1, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExplorerURL(t *testing.T) {
	s := newSimulated(t, 0, 0)
	assert.Equal(t, "https://mumbai.polygonscan.com/tx/0xabc", s.ExplorerURL("0xabc"))

	url, err := ExplorerURL("goerli", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "https://goerli.etherscan.io/tx/0xabc", url)

	_, err = ExplorerURL("ropsten", "0xabc")
	assert.ErrorIs(t, err, ErrUnknownNetwork)

	_, err = NewSimulated(SimulatedConfig{Network: "ropsten"}, rand.New(rand.NewPCG(1, 2)), zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}
