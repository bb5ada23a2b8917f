package crud

import (
	"context"
	"io"
	"net/url"

	"github.com/google/uuid"
)

// Verb identifies one of the four generated endpoint kinds.
type Verb int

const (
	VerbGet Verb = iota
	VerbPost
	VerbPut
	VerbDelete
)

// Verbs lists every verb in registration order.
var Verbs = []Verb{VerbGet, VerbPost, VerbPut, VerbDelete}

func (v Verb) String() string {
	switch v {
	case VerbGet:
		return "GET"
	case VerbPost:
		return "POST"
	case VerbPut:
		return "PUT"
	case VerbDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// ObjectScope controls row-level visibility for a verb.
type ObjectScope int

const (
	// ScopeAll places no ownership constraint on the query.
	ScopeAll ObjectScope = iota
	// ScopeOwner restricts the query to rows owned by the caller. An
	// anonymous caller under ScopeOwner gets no constraint at all; the
	// degradation to ScopeAll is deliberate.
	ScopeOwner
)

// CallerScope is the minimum authentication a route demands.
type CallerScope int

const (
	// CallerAny skips identity extraction entirely.
	CallerAny CallerScope = iota
	// CallerAuthenticated requires a verified identity.
	CallerAuthenticated
	// CallerAdmin requires a verified identity carrying the configured
	// admin permission claim.
	CallerAdmin
)

// VerbConfig is the per-verb slice of an entity's configuration.
type VerbConfig struct {
	// Include registers the route at all; false means no route exists.
	Include bool
	// Custom delegates the verb to the entity's custom handler instead of
	// the default query path.
	Custom bool
	Object ObjectScope
	Caller CallerScope
}

// Resource describes one entity type: its table, endpoint, schema and
// per-verb behavior. Implementations are defined once at startup and must
// not change afterwards.
type Resource interface {
	// TableName is the relational table backing this entity.
	TableName() string
	// EndpointName is the path segment routes are registered under.
	EndpointName() string
	// DDL is the CREATE TABLE text executed by the table-management
	// endpoints.
	DDL() string
	// Config returns the verb's inclusion, override and scope settings.
	Config(v Verb) VerbConfig
	// DecodeFilter parses query-string values into the filter projection.
	// An error maps to 400; unknown keys are ignored by implementations.
	DecodeFilter(values url.Values) (Pairs, error)
	// DecodeInput parses a JSON request body into an input payload. An
	// error (malformed JSON, missing required field, wrong type) maps
	// to 422.
	DecodeInput(r io.Reader) (Input, error)
}

// Input is a write payload: it validates itself before any SQL is built,
// projects its own fields for UPDATE, and materializes into a full row
// for INSERT.
type Input interface {
	// Verify runs the payload's self-checks (ranges, lengths). A false
	// return maps to 400 and nothing is executed.
	Verify() bool
	// Pairs projects only the payload's declared fields, in declaration
	// order. UPDATE sets exactly these columns: a full replace of the
	// listed columns, never a merge-patch of server-stamped ones.
	Pairs() Pairs
	// Materialize stamps server-assigned fields (id, creation timestamp,
	// default status, owning identity) and returns the complete column
	// projection for INSERT. ownerID is empty for anonymous callers; the
	// implementation chooses its placeholder.
	Materialize(ownerID string) Pairs
}

// CustomHandlers carries per-verb replacements for the default query path.
// A nil field on a verb flagged Custom answers 501 Not Implemented.
type CustomHandlers struct {
	Create func(ctx context.Context, db DB, table string, values Pairs) (uuid.UUID, error)
	Read   func(ctx context.Context, db DB, table string, filters Pairs, ownerID string) ([]map[string]any, error)
	Update func(ctx context.Context, db DB, table string, id uuid.UUID, values Pairs, ownerID string) error
	Delete func(ctx context.Context, db DB, table string, ids []uuid.UUID, ownerID string) error
}

// Customizer is implemented by resources that override any verb.
type Customizer interface {
	Handlers() CustomHandlers
}

// Registry holds the resources exposed by a server. Registration happens
// during startup; the registry is read-only afterwards, so no locking.
type Registry struct {
	resources []Resource
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a resource. Call order determines route and DDL order.
func (reg *Registry) Register(res Resource) {
	reg.resources = append(reg.resources, res)
}

// Resources returns the registered resources in registration order.
func (reg *Registry) Resources() []Resource {
	return reg.resources
}

// HasTable reports whether name is the table of a registered resource.
// Table-management endpoints use it to refuse identifiers that did not
// come from server configuration.
func (reg *Registry) HasTable(name string) bool {
	for _, res := range reg.resources {
		if res.TableName() == name {
			return true
		}
	}
	return false
}
