package dto

import (
	"encoding/json"
	"io"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
)

// outcomeNames maps the outcome names of the api onto the outcome statuses
// of the db package.
var outcomeNames = map[string]db.OutcomeStatus{
	"primaryProduced":  db.OutcomePrimaryProduced,
	"fallbackProduced": db.OutcomeFallbackProduced,
	"foreignProduced":  db.OutcomeForeignProduced,
	"missed":           db.OutcomeMissed,
}

// Outcome reports the concluded block production of a slot.
type Outcome struct {
	// Winner is the entity that actually produced the block, or empty, if
	// no block was produced.
	Winner string `json:"winner"`
	// Status optionally names the outcome. When omitted, the engine
	// classifies the winner against the stored schedule.
	Status string `json:"status,omitempty"`
}

// ToPlain transforms the named outcome status of this object into the
// outcome status of the db package. db.OutcomePending is returned for an
// omitted status; an error will be returned for an unknown one.
func (o *Outcome) ToPlain() (db.OutcomeStatus, error) {
	if o.Status == "" {
		return db.OutcomePending, nil
	}
	status, found := outcomeNames[o.Status]
	if !found {
		return db.OutcomePending, ParsingError
	}
	return status, nil
}

// ParseOutcome parses the content of the given reader into an outcome
// object. If the parsing fails, then a corresponding error will be returned.
// Otherwise, the parsed outcome is returned.
func ParseOutcome(reader io.Reader) (*Outcome, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ReadError
	}
	var outcome Outcome
	err = json.Unmarshal(data, &outcome)
	if err != nil {
		return nil, ParsingError
	}
	return &outcome, nil
}
