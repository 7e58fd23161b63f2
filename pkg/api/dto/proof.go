package dto

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
)

var (
	// ReadError is returned, when the request body couldn't be read while parsing.
	ReadError = errors.New("couldn't read the request body")
	// ParsingError is returned, when an error occurred during the unmarshalling of the request body.
	ParsingError = errors.New("couldn't parse the request body properly")
)

// proofKindNames maps the proof kinds of the api onto the proof kinds of the
// db package.
var proofKindNames = map[string]db.ProofKind{
	"relayBandwidth":      db.RelayBandwidth,
	"storageAvailability": db.StorageAvailability,
	"validationSignature": db.ValidationSignature,
	"uptimeBeacon":        db.UptimeBeacon,
}

// WorkProof is a single assertion of useful work submitted by a node for a
// certain slot.
type WorkProof struct {
	// Entity is the unique id of the node that performed the work.
	Entity string `json:"entity"`
	// Pool is the optional id of the pool the node belongs to.
	Pool string `json:"pool,omitempty"`
	// Slot is the slot number the work is asserted for.
	Slot uint64 `json:"slot"`
	// Kind names the kind of operational task.
	Kind string `json:"kind"`
	// Payload carries the kind-specific measurements.
	Payload db.ProofPayload `json:"payload"`
	// Signature is the signature over the proof in hex format.
	Signature string `json:"signature"`
	// SubmittedAt is the optional submission time. It defaults to the time
	// of acceptance.
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

// ToPlain transforms this work proof object from the api package into a work
// proof object from the db package. An error will be returned, if the proof
// kind is unknown or the signature isn't valid hex.
func (p *WorkProof) ToPlain() (*db.WorkProof, error) {
	kind, found := proofKindNames[p.Kind]
	if !found {
		return nil, ParsingError
	}
	signature, err := hex.DecodeString(p.Signature)
	if err != nil {
		return nil, ParsingError
	}
	return &db.WorkProof{
		Entity:      p.Entity,
		Pool:        p.Pool,
		Slot:        p.Slot,
		Kind:        kind,
		Payload:     p.Payload,
		Signature:   signature,
		SubmittedAt: p.SubmittedAt,
	}, nil
}

// ParseWorkProof parses the content of the given reader into a work proof
// object. If the parsing fails, then a corresponding error will be returned.
// Otherwise, the parsed work proof is returned.
func ParseWorkProof(reader io.Reader) (*WorkProof, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ReadError
	}
	var proof WorkProof
	err = json.Unmarshal(data, &proof)
	if err != nil {
		return nil, ParsingError
	}
	return &proof, nil
}
