package http

import (
	"net/http"

	"kiguca/internal/core"
	"kiguca/internal/events"
	"kiguca/internal/log"
	"kiguca/internal/storage"
)

// resource serves the uniform CRUD surface for one entity collection. The
// four collections only differ in their record, draft and patch types, so one
// generic handler set covers all of them.
type resource[T any, D any, P any] struct {
	srv    *Server
	entity string
	store  storage.Store[T, D, P]
	ops    storage.EntityOps[T, D, P]
}

func mount[T any, D any, P any](mux *http.ServeMux, s *Server, entity string, store storage.Store[T, D, P], ops storage.EntityOps[T, D, P]) {
	res := &resource[T, D, P]{srv: s, entity: entity, store: store, ops: ops}
	base := "/api/" + entity

	mux.HandleFunc("GET "+base, s.withMiddleware(res.list))
	mux.HandleFunc("POST "+base, s.withMiddleware(res.create))
	mux.HandleFunc("GET "+base+"/{id}", s.withMiddleware(res.get))
	mux.HandleFunc("PATCH "+base+"/{id}", s.withMiddleware(res.update))
	mux.HandleFunc("DELETE "+base+"/{id}", s.withMiddleware(res.remove))
}

// list degrades backend failures to an empty collection: a reading client is
// better served by a blank list than a failure page. A missing or rejected
// identity is the exception, that one the client has to fix.
func (res *resource[T, D, P]) list(w http.ResponseWriter, r *http.Request) {
	items, err := res.store.List(r.Context())
	if err != nil {
		if core.IsUnauthorized(err) {
			res.srv.writeError(w, r, err)
			return
		}
		res.srv.logger.WarnContext(r.Context(), "List failed, serving empty collection",
			log.FieldEntity, res.entity,
			log.FieldError, err)
		writeJSON(w, http.StatusOK, []T{})
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (res *resource[T, D, P]) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := res.store.Get(r.Context(), id)
	if err != nil {
		res.srv.writeError(w, r, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: res.entity + " " + id + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (res *resource[T, D, P]) create(w http.ResponseWriter, r *http.Request) {
	var draft D
	if err := decodeBody(r, &draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	rec, err := res.store.Create(r.Context(), draft)
	if err != nil {
		res.srv.writeError(w, r, err)
		return
	}
	res.srv.publish(res.entity, events.ActionCreated, *res.ops.ID(rec))
	writeJSON(w, http.StatusCreated, rec)
}

func (res *resource[T, D, P]) update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch P
	if err := decodeBody(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	rec, err := res.store.Update(r.Context(), id, patch)
	if err != nil {
		res.srv.writeError(w, r, err)
		return
	}
	res.srv.publish(res.entity, events.ActionUpdated, id)
	writeJSON(w, http.StatusOK, rec)
}

func (res *resource[T, D, P]) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := res.store.Remove(r.Context(), id)
	if err != nil {
		res.srv.writeError(w, r, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorBody{Error: res.entity + " " + id + " not found"})
		return
	}
	res.srv.publish(res.entity, events.ActionRemoved, id)
	w.WriteHeader(http.StatusNoContent)
}
