package crud

import (
	"fmt"
	"net/http"

	"github.com/edgeflare/pgcrud/pkg/auth"
	"github.com/edgeflare/pgcrud/pkg/httputil"
	"github.com/edgeflare/pgcrud/pkg/metrics"
)

// Mount registers one route per included (resource, verb) pair on the
// router. The variant is fixed at startup by the verb's caller scope;
// nothing about routing is decided per request. Excluded verbs get no
// route at all, so the mux answers them with its default 404/405.
func (s *Server) Mount(r *httputil.Router) {
	for _, res := range s.reg.Resources() {
		for _, verb := range Verbs {
			cfg := res.Config(verb)
			if !cfg.Include {
				continue
			}

			var core func(http.ResponseWriter, *http.Request, *auth.Identity)
			var pattern string
			switch verb {
			case VerbGet:
				core = func(w http.ResponseWriter, req *http.Request, ident *auth.Identity) {
					s.doGet(w, req, res, ident)
				}
				pattern = fmt.Sprintf("GET /%s", res.EndpointName())
			case VerbPost:
				core = func(w http.ResponseWriter, req *http.Request, ident *auth.Identity) {
					s.doPost(w, req, res, ident)
				}
				pattern = fmt.Sprintf("POST /%s", res.EndpointName())
			case VerbPut:
				core = func(w http.ResponseWriter, req *http.Request, ident *auth.Identity) {
					s.doPut(w, req, res, ident)
				}
				pattern = fmt.Sprintf("PUT /%s/{id}", res.EndpointName())
			case VerbDelete:
				core = func(w http.ResponseWriter, req *http.Request, ident *auth.Identity) {
					s.doDelete(w, req, res, ident)
				}
				pattern = fmt.Sprintf("DELETE /%s/{id}", res.EndpointName())
			}

			handler := metrics.Instrument(res.EndpointName(), verb.String(),
				s.withCaller(cfg.Caller, core))
			r.Handle(pattern, handler)
		}
	}
}

// MountTables registers the table-management endpoints consumed by an
// external admin collaborator.
func (s *Server) MountTables(r *httputil.Router) {
	r.Handle("POST /initTables", http.HandlerFunc(s.handleInitTables))
	r.Handle("POST /resetTables", http.HandlerFunc(s.handleResetTables))
	r.Handle("POST /dropTable", http.HandlerFunc(s.handleDropTable))
}
