// Package ledger records dosage predictions on a blockchain stand-in and
// verifies them later by prediction hash.
package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/sha3"
)

var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrAlreadyRecorded   = fmt.Errorf("%w: prediction already recorded", ErrTransactionFailed)
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnknownNetwork    = errors.New("unknown network")
)

// Status messages passed to a Record observer, in emission order.
const (
	StatusSubmitting = "Submitting transaction..."
	StatusSubmitted  = "Transaction submitted. Waiting for confirmation..."
	StatusConfirmed  = "Transaction confirmed!"
	StatusFailed     = "Transaction failed!"
)

type Network struct {
	Name          string `json:"name"`
	ChainID       int    `json:"chainId"`
	RPCURL        string `json:"rpcUrl"`
	BlockExplorer string `json:"blockExplorer"`
}

const DefaultNetwork = "mumbai"

var Networks = map[string]Network{
	"mumbai": {
		Name:          "Polygon Mumbai Testnet",
		ChainID:       80001,
		RPCURL:        "https://rpc-mumbai.maticvigil.com",
		BlockExplorer: "https://mumbai.polygonscan.com",
	},
	"goerli": {
		Name:          "Ethereum Goerli Testnet",
		ChainID:       5,
		RPCURL:        "https://goerli.infura.io/v3/",
		BlockExplorer: "https://goerli.etherscan.io",
	},
}

// Receipt is returned for a confirmed transaction.
type Receipt struct {
	TxHash  string `json:"txHash"`
	Network string `json:"network"`
}

// Entry is a recorded prediction as stored on chain.
type Entry struct {
	Hash      string  `json:"hash"`
	DrugName  string  `json:"drugName"`
	Dosage    float64 `json:"dosage"`
	Timestamp int64   `json:"timestamp"`
	Recorder  string  `json:"recorder"`
	TxHash    string  `json:"txHash"`
}

// StatusFunc observes transaction progress. It may be nil.
type StatusFunc func(status string)

// Ledger is the blockchain collaborator. Record and Verify block until the
// round trip completes or ctx is done.
type Ledger interface {
	Record(ctx context.Context, hash, drug string, dosage float64, timestamp int64, onStatus StatusFunc) (Receipt, error)
	Verify(ctx context.Context, hash string) (Entry, error)
	ExplorerURL(txHash string) string
}

// PredictionHash is the Keccak-256 of "patientId:drug:dosage:timestamp",
// hex encoded with a 0x prefix.
func PredictionHash(patientID, drug string, dosage float64, timestamp int64) string {
	data := patientID + ":" + drug + ":" + strconv.FormatFloat(dosage, 'f', -1, 64) + ":" + strconv.FormatInt(timestamp, 10)
	return keccakHex([]byte(data))
}

func keccakHex(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// ExplorerURL links a transaction on the named network's block explorer.
func ExplorerURL(network, txHash string) (string, error) {
	n, ok := Networks[network]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return n.BlockExplorer + "/tx/" + txHash, nil
}
