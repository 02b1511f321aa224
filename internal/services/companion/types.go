package companion

import (
	"encoding/json"
	"fmt"
)

// ResultState tags one settled stream result. The upstream answers any
// freshly submitted key with a pending marker; only a resubmission after
// materialization carries the payload or a definite error.
type ResultState int

const (
	StatePending ResultState = iota
	StateSuccess
	StateError
)

func (s ResultState) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "pending"
	}
}

// PriceEntry is one active listing as returned by the market prices call.
type PriceEntry struct {
	SellPrice        int    `json:"sellPrice"`
	Stack            int    `json:"stack"`
	HQ               bool   `json:"hq"`
	Materia          int    `json:"materia"`
	RegisterTown     int    `json:"registerTown"`
	Stars            int    `json:"stars"`
	SellRetainerName string `json:"sellRetainerName"`
	SignatureName    string `json:"signatureName"`
}

// HistoryEntry is one completed transaction as returned by the
// transaction history call.
type HistoryEntry struct {
	Stack            int    `json:"stack"`
	HQ               bool   `json:"hq"`
	SellPrice        int    `json:"sellPrice"`
	BuyRealDate      int64  `json:"buyRealDate"`
	BuyCharacterName string `json:"buyCharacterName"`
}

// PriceResult is the classified outcome of one prices request.
type PriceResult struct {
	State   ResultState
	Reason  string
	Entries []PriceEntry
}

// HistoryResult is the classified outcome of one history request.
type HistoryResult struct {
	State  ResultState
	Reason string
	Rows   []HistoryEntry
}

// Wire envelope shared by both streams. The upstream multiplexes pending
// markers, errors and payloads over one shape; it is decoded exactly once
// here and never inspected field-by-field anywhere else.
type envelope struct {
	State   string         `json:"state"`
	Error   bool           `json:"error"`
	Reason  string         `json:"reason"`
	Entries []PriceEntry   `json:"entries"`
	History []HistoryEntry `json:"history"`
}

func decode(resp Response) (envelope, ResultState, string) {
	if resp.Err != nil {
		return envelope{}, StateError, resp.Err.Error()
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return envelope{}, StateError, fmt.Sprintf("malformed response: %v", err)
	}
	if env.Error {
		return env, StateError, env.Reason
	}
	if env.State == "pending" {
		return env, StatePending, ""
	}
	return env, StateSuccess, ""
}

// ParsePrices classifies a settled prices response.
func ParsePrices(resp Response) PriceResult {
	env, state, reason := decode(resp)
	return PriceResult{State: state, Reason: reason, Entries: env.Entries}
}

// ParseHistory classifies a settled history response.
func ParseHistory(resp Response) HistoryResult {
	env, state, reason := decode(resp)
	return HistoryResult{State: state, Reason: reason, Rows: env.History}
}
