package crud

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edgeflare/pgcrud/pkg/auth"
	"github.com/edgeflare/pgcrud/pkg/httputil"
)

// Server dispatches generated endpoints against a database pool. The pool
// and verifier are owned by the caller; Server itself holds no mutable
// request state, so one instance serves all requests concurrently.
type Server struct {
	db       DB
	verifier *auth.Verifier
	reg      *Registry
	logger   *zap.Logger
}

// NewServer wires a registry of resources to a database and a token
// verifier. A nil logger disables logging.
func NewServer(db DB, verifier *auth.Verifier, reg *Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{db: db, verifier: verifier, reg: reg, logger: logger}
}

// withCaller wraps a handler with the caller-scope resolution for one
// route. Identity extraction happens here, before any request parsing or
// SQL construction: an unauthenticated or unauthorized request never
// reaches the database. The verified identity, if any, is handed to the
// core handler and stored in the request context.
func (s *Server) withCaller(scope CallerScope, next func(http.ResponseWriter, *http.Request, *auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ident *auth.Identity
		var err error

		switch scope {
		case CallerAny:
			// no identity extraction attempted
		case CallerAuthenticated:
			ident, err = s.verifier.VerifyRequest(r)
		case CallerAdmin:
			ident, err = s.verifier.VerifyAdmin(r)
		}
		if err != nil {
			s.authError(w, err)
			return
		}

		if ident != nil {
			r = r.WithContext(context.WithValue(r.Context(), httputil.IdentityCtxKey, ident))
		}
		next(w, r, ident)
	}
}

// ownerFor resolves the verb's object scope against the caller identity.
// ScopeAll never constrains; ScopeOwner constrains to the caller's rows,
// degrading to no constraint when the caller is anonymous.
func ownerFor(cfg VerbConfig, ident *auth.Identity) string {
	if cfg.Object != ScopeOwner || ident == nil {
		return ""
	}
	return ident.UserID
}

// customHandlers returns the resource's hooks, or the zero value when the
// resource declares none.
func customHandlers(res Resource) CustomHandlers {
	if c, ok := res.(Customizer); ok {
		return c.Handlers()
	}
	return CustomHandlers{}
}

func (s *Server) authError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrKeySetUnavailable) {
		s.logger.Error("key set fetch failed", zap.Error(err))
		httputil.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Every verification failure collapses to one body; which check
	// failed is never leaked.
	httputil.Error(w, http.StatusUnauthorized, "unauthorized")
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, zap.Error(err))
	httputil.Error(w, http.StatusInternalServerError, "internal error")
}

// doGet serves the collection endpoint: query-string filters become AND
// predicates, the optional owner constraint comes first.
func (s *Server) doGet(w http.ResponseWriter, r *http.Request, res Resource, ident *auth.Identity) {
	cfg := res.Config(VerbGet)

	filters, err := res.DecodeFilter(r.URL.Query())
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid query parameters")
		return
	}
	ownerID := ownerFor(cfg, ident)

	var rows []map[string]any
	if cfg.Custom {
		hooks := customHandlers(res)
		if hooks.Read == nil {
			httputil.Error(w, http.StatusNotImplemented, "not implemented")
			return
		}
		rows, err = hooks.Read(r.Context(), s.db, res.TableName(), filters, ownerID)
	} else {
		rows, err = selectRows(r.Context(), s.db, res.TableName(), filters, ownerID)
	}
	if err != nil {
		s.serverError(w, "read failed", err)
		return
	}

	httputil.JSON(w, http.StatusOK, rows)
}

// doPost validates and materializes the input payload, then inserts it and
// answers the generated identifier. The owning identity is stamped by the
// payload's Materialize, regardless of the verb's object scope.
func (s *Server) doPost(w http.ResponseWriter, r *http.Request, res Resource, ident *auth.Identity) {
	cfg := res.Config(VerbPost)

	input, err := res.DecodeInput(r.Body)
	if err != nil {
		httputil.Error(w, http.StatusUnprocessableEntity, "malformed payload")
		return
	}
	if !input.Verify() {
		httputil.Error(w, http.StatusBadRequest, "validation failed")
		return
	}

	ownerID := ""
	if ident != nil {
		ownerID = ident.UserID
	}
	values := input.Materialize(ownerID)

	var id uuid.UUID
	if cfg.Custom {
		hooks := customHandlers(res)
		if hooks.Create == nil {
			httputil.Error(w, http.StatusNotImplemented, "not implemented")
			return
		}
		id, err = hooks.Create(r.Context(), s.db, res.TableName(), values)
	} else {
		id, err = insertRow(r.Context(), s.db, res.TableName(), values)
	}
	if err != nil {
		s.serverError(w, "create failed", err)
		return
	}

	httputil.JSON(w, http.StatusOK, id)
}

// doPut replaces the listed columns of one row. Zero rows affected is a
// client-side 400: the request was well formed but targeted nothing
// visible to the caller.
func (s *Server) doPut(w http.ResponseWriter, r *http.Request, res Resource, ident *auth.Identity) {
	cfg := res.Config(VerbPut)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	input, err := res.DecodeInput(r.Body)
	if err != nil {
		httputil.Error(w, http.StatusUnprocessableEntity, "malformed payload")
		return
	}
	if !input.Verify() {
		httputil.Error(w, http.StatusBadRequest, "validation failed")
		return
	}

	ownerID := ownerFor(cfg, ident)
	values := input.Pairs()

	if cfg.Custom {
		hooks := customHandlers(res)
		if hooks.Update == nil {
			httputil.Error(w, http.StatusNotImplemented, "not implemented")
			return
		}
		err = hooks.Update(r.Context(), s.db, res.TableName(), id, values, ownerID)
	} else {
		err = updateRow(r.Context(), s.db, res.TableName(), id, values, ownerID)
	}
	switch {
	case errors.Is(err, ErrNoRows):
		httputil.Error(w, http.StatusBadRequest, "no rows affected")
	case err != nil:
		s.serverError(w, "update failed", err)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// doDelete removes one row by id. Deleting an absent row answers the same
// 400 as an update that matched nothing; it is not a server failure.
func (s *Server) doDelete(w http.ResponseWriter, r *http.Request, res Resource, ident *auth.Identity) {
	cfg := res.Config(VerbDelete)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	ids := []uuid.UUID{id}
	ownerID := ownerFor(cfg, ident)

	if cfg.Custom {
		hooks := customHandlers(res)
		if hooks.Delete == nil {
			httputil.Error(w, http.StatusNotImplemented, "not implemented")
			return
		}
		err = hooks.Delete(r.Context(), s.db, res.TableName(), ids, ownerID)
	} else {
		err = deleteRows(r.Context(), s.db, res.TableName(), ids, ownerID)
	}
	switch {
	case errors.Is(err, ErrNoRows):
		httputil.Error(w, http.StatusBadRequest, "no rows affected")
	case err != nil:
		s.serverError(w, "delete failed", err)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleInitTables executes every registered DDL.
func (s *Server) handleInitTables(w http.ResponseWriter, r *http.Request) {
	if err := createTables(r.Context(), s.db, s.reg); err != nil {
		s.serverError(w, "init tables failed", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleResetTables drops the public schema and rebuilds every table.
func (s *Server) handleResetTables(w http.ResponseWriter, r *http.Request) {
	if err := resetSchema(r.Context(), s.db, s.reg); err != nil {
		s.serverError(w, "reset tables failed", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleDropTable drops one table named in the JSON body. Only registered
// table names are accepted; the identifier never comes from free-form
// user text.
func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	var table string
	if err := httputil.BindOrError(r, w, &table); err != nil {
		return
	}
	if !s.reg.HasTable(table) {
		httputil.Error(w, http.StatusBadRequest, "unknown table")
		return
	}
	if err := dropTable(r.Context(), s.db, table); err != nil {
		s.serverError(w, "drop table failed", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
