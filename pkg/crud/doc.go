// Package crud generates authenticated REST endpoints from table
// descriptors.
//
// A Resource describes one entity: its table, endpoint name, schema and
// per-verb behavior. Registering resources and mounting the server yields
// one route per included (resource, verb) pair:
//
//	GET    /entity        list rows, filtered by query parameters
//	POST   /entity        insert a validated payload, answer the new id
//	PUT    /entity/{id}   replace the payload's columns of one row
//	DELETE /entity/{id}   delete one row
//
// Query parameters become AND-joined predicates. A field name ending in a
// comparison suffix selects the operator, otherwise equality is used:
//
//	Parameter    | Predicate
//	-------------|------------------
//	?col=val     | col = val
//	?col_gt=val  | col > val
//	?col_lt=val  | col < val
//	?col_ge=val  | col >= val
//	?col_le=val  | col <= val
//	?order_by=c  | ORDER BY c, if c is a declared column (default: id)
//	?order_dir=asc | ascending order (anything else: descending)
//
// Each verb declares the authentication it demands (anonymous,
// authenticated, admin) and whether rows are visible to everyone or only
// to their owner. Verification happens before any SQL is constructed.
package crud
