package pgcrud

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/edgeflare/pgcrud/pkg/crud"
	"github.com/google/uuid"
)

// peopleResource is the sample entity served out of the box. It shows the
// full descriptor surface: scoped verbs, typed filters and a validating
// input payload.
type peopleResource struct{}

func (peopleResource) TableName() string    { return "People" }
func (peopleResource) EndpointName() string { return "people" }

func (peopleResource) DDL() string {
	return `CREATE TABLE IF NOT EXISTS People (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	age bigint NOT NULL,
	date_created timestamptz NOT NULL,
	status text NOT NULL,
	user_id text NOT NULL
)`
}

func (peopleResource) Config(v crud.Verb) crud.VerbConfig {
	switch v {
	case crud.VerbGet:
		return crud.VerbConfig{Include: true, Object: crud.ScopeAll, Caller: crud.CallerAny}
	case crud.VerbPost:
		return crud.VerbConfig{Include: true, Object: crud.ScopeAll, Caller: crud.CallerAuthenticated}
	case crud.VerbPut:
		return crud.VerbConfig{Include: true, Object: crud.ScopeOwner, Caller: crud.CallerAuthenticated}
	case crud.VerbDelete:
		return crud.VerbConfig{Include: true, Object: crud.ScopeAll, Caller: crud.CallerAdmin}
	}
	return crud.VerbConfig{}
}

func (peopleResource) DecodeFilter(values url.Values) (crud.Pairs, error) {
	return crud.NewFilterParser(values).
		Identifier("id").
		Text("name").
		Integer("age").
		Integer("age_gt").
		Integer("age_lt").
		Integer("age_ge").
		Integer("age_le").
		Text("status").
		Timestamp("date_created_gt").
		Timestamp("date_created_lt").
		Ordering().
		Result()
}

func (peopleResource) DecodeInput(r io.Reader) (crud.Input, error) {
	var in personInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, err
	}
	if in.Name == nil || in.Age == nil {
		return nil, errors.New("missing required field")
	}
	return &in, nil
}

type personInput struct {
	Name *string `json:"name"`
	Age  *int64  `json:"age"`
}

func (in *personInput) Verify() bool {
	return *in.Age > 0 && *in.Age < 100 && len(*in.Name) > 0 && len(*in.Name) < 50
}

func (in *personInput) Pairs() crud.Pairs {
	return crud.Pairs{}.
		Add("name", crud.Text(*in.Name)).
		Add("age", crud.Integer(*in.Age))
}

func (in *personInput) Materialize(ownerID string) crud.Pairs {
	if ownerID == "" {
		ownerID = "nobody"
	}
	return crud.Pairs{}.
		Add("id", crud.Identifier(uuid.New())).
		Add("name", crud.Text(*in.Name)).
		Add("age", crud.Integer(*in.Age)).
		Add("date_created", crud.Timestamp(time.Now().UTC())).
		Add("status", crud.Text("active")).
		Add("user_id", crud.Text(ownerID))
}
