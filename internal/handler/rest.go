package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/auth"
	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

const (
	acceptSingleObject = "application/vnd.pgrst.object+json"
	maxRowBytes        = 64 << 10
)

// RoomStore is the rooms table behind the tables routes.
// *sqlite.RoomDB implements it.
type RoomStore interface {
	repository.RoomRepository
	Get(ctx context.Context, id uuid.UUID) (*model.Room, error)
}

// ItemStore is the items table behind the tables routes.
// *sqlite.ItemDB implements it.
type ItemStore interface {
	repository.ItemRepository
	Get(ctx context.Context, id uuid.UUID) (*model.Item, error)
}

// RestHandler serves the subset of the tables API the app uses, over
// /rest/v1/{table}:
//
//	rooms         POST, GET ?created_by=eq.X, GET ?room_code=eq.X&password=eq.Y, DELETE ?id=eq.X
//	room_members  POST, GET ?select=role,rooms(*)&user_id=eq.X&role=eq.Y
//	items         POST, GET ?room_id=eq.X&order=created_at.desc, DELETE ?id=eq.X
//
// Inserts must be made as the row's owner. A room can only be deleted by its
// creator; an item by its poster or by the room's creator.
type RestHandler struct {
	rooms   RoomStore
	members repository.MembershipRepository
	items   ItemStore
	logger  *slog.Logger
}

func NewRestHandler(
	rooms RoomStore,
	members repository.MembershipRepository,
	items ItemStore,
	logger *slog.Logger,
) *RestHandler {
	return &RestHandler{rooms: rooms, members: members, items: items, logger: logger}
}

// filters holds the eq. filters of a request, keyed by column.
type filters map[string]string

// reserved query keys that are not column filters.
var reserved = map[string]bool{"select": true, "order": true, "limit": true, "offset": true}

// parseFilters accepts only column=eq.value filters.
func parseFilters(q url.Values) (filters, error) {
	f := filters{}
	for col, vals := range q {
		if reserved[col] {
			continue
		}
		if len(vals) != 1 {
			return nil, fmt.Errorf("column %q filtered more than once", col)
		}
		v, ok := strings.CutPrefix(vals[0], "eq.")
		if !ok {
			return nil, fmt.Errorf("unsupported operator in filter on %q", col)
		}
		f[col] = v
	}
	return f, nil
}

// only reports whether f filters on exactly the given columns.
func (f filters) only(cols ...string) bool {
	if len(f) != len(cols) {
		return false
	}
	for _, c := range cols {
		if _, ok := f[c]; !ok {
			return false
		}
	}
	return true
}

func (f filters) uuid(col string) (uuid.UUID, error) {
	id, err := uuid.Parse(f[col])
	if err != nil {
		return uuid.Nil, apperror.ValidationFailed(col, fmt.Sprintf("invalid input syntax for type uuid: %q", f[col]))
	}
	return id, nil
}

func wantsSingle(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), acceptSingleObject)
}

func unsupported(w http.ResponseWriter, msg string) {
	writeRestError(w, http.StatusBadRequest, "PGRST100", msg)
}

func rlsViolation(w http.ResponseWriter, table string) {
	writeRestError(w, http.StatusForbidden, "42501",
		fmt.Sprintf("new row violates row-level security policy for table %q", table))
}

func deleteDenied(w http.ResponseWriter, table string) {
	writeRestError(w, http.StatusForbidden, "42501",
		fmt.Sprintf("permission denied to delete from table %q", table))
}

// writeRows sends rows as a JSON array, or the single element when the
// client asked for an object.
func writeRows[T any](w http.ResponseWriter, r *http.Request, status int, rows []T) {
	if wantsSingle(r) {
		if len(rows) != 1 {
			writeRestError(w, http.StatusNotAcceptable, "PGRST116",
				"JSON object requested, multiple (or no) rows returned")
			return
		}
		writeJSON(w, status, rows[0])
		return
	}
	writeJSON(w, status, rows)
}

func decodeRow(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRowBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeRestError(w, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
		return false
	}
	return true
}

// writeInserted honours Prefer: return=representation; without it the
// insert answers 201 with no body.
func writeInserted[T any](w http.ResponseWriter, r *http.Request, row T) {
	if !strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeRows(w, r, http.StatusCreated, []T{row})
}

func (h *RestHandler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	switch table := chi.URLParam(r, "table"); table {
	case "rooms":
		var in model.NewRoom
		if !decodeRow(w, r, &in) {
			return
		}
		if in.CreatedBy != caller.ID {
			rlsViolation(w, table)
			return
		}
		room, err := h.rooms.Create(r.Context(), &in)
		if err != nil {
			writeRestErr(w, h.logger, err)
			return
		}
		writeInserted(w, r, *room)

	case "room_members":
		var in model.Membership
		if !decodeRow(w, r, &in) {
			return
		}
		if in.UserID != caller.ID {
			rlsViolation(w, table)
			return
		}
		m, err := h.members.Add(r.Context(), &in)
		if err != nil {
			writeRestErr(w, h.logger, err)
			return
		}
		writeInserted(w, r, *m)

	case "items":
		var in model.NewItem
		if !decodeRow(w, r, &in) {
			return
		}
		if in.CreatedBy != caller.ID {
			rlsViolation(w, table)
			return
		}
		item, err := h.items.Create(r.Context(), &in)
		if err != nil {
			writeRestErr(w, h.logger, err)
			return
		}
		writeInserted(w, r, *item)

	default:
		writeRestError(w, http.StatusNotFound, "42P01", fmt.Sprintf("relation %q does not exist", table))
	}
}

func (h *RestHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		unsupported(w, err.Error())
		return
	}
	ctx := r.Context()

	switch table := chi.URLParam(r, "table"); table {
	case "rooms":
		switch {
		case f.only("created_by"):
			id, err := f.uuid("created_by")
			if err != nil {
				writeRestErr(w, h.logger, err)
				return
			}
			rooms, err := h.rooms.ListByCreator(ctx, id)
			if err != nil {
				writeRestErr(w, h.logger, err)
				return
			}
			writeRows(w, r, http.StatusOK, rooms)

		case f.only("room_code", "password"):
			room, err := h.rooms.FindByCredentials(ctx, f["room_code"], f["password"])
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) && !wantsSingle(r) {
					writeRows(w, r, http.StatusOK, []model.Room{})
				} else {
					writeRestErr(w, h.logger, err)
				}
				return
			}
			writeRows(w, r, http.StatusOK, []model.Room{*room})

		default:
			unsupported(w, "rooms can be filtered by created_by, or by room_code and password")
		}

	case "room_members":
		if !f.only("user_id", "role") || !strings.Contains(r.URL.Query().Get("select"), "rooms(") {
			unsupported(w, "room_members must be selected as role,rooms(*) by user_id and role")
			return
		}
		id, err := f.uuid("user_id")
		if err != nil {
			writeRestErr(w, h.logger, err)
			return
		}
		joined, err := h.members.ListJoined(ctx, id, model.Role(f["role"]))
		if err != nil {
			writeRestErr(w, h.logger, err)
			return
		}
		writeRows(w, r, http.StatusOK, joined)

	case "items":
		if !f.only("room_id") {
			unsupported(w, "items can only be filtered by room_id")
			return
		}
		if o := r.URL.Query().Get("order"); o != "" && o != "created_at.desc" {
			unsupported(w, "items can only be ordered by created_at.desc")
			return
		}
		id, err := f.uuid("room_id")
		if err != nil {
			writeRestErr(w, h.logger, err)
			return
		}
		items, err := h.items.ListByRoom(ctx, id)
		if err != nil {
			writeRestErr(w, h.logger, err)
			return
		}
		writeRows(w, r, http.StatusOK, items)

	default:
		writeRestError(w, http.StatusNotFound, "42P01", fmt.Sprintf("relation %q does not exist", table))
	}
}

func (h *RestHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		unsupported(w, err.Error())
		return
	}
	if !f.only("id") {
		unsupported(w, "deletes must filter on id")
		return
	}
	id, err := f.uuid("id")
	if err != nil {
		writeRestErr(w, h.logger, err)
		return
	}

	ctx := r.Context()
	caller, _ := auth.UserFromContext(ctx)

	table := chi.URLParam(r, "table")
	var allowed bool
	switch table {
	case "rooms":
		allowed, err = h.mayDeleteRoom(ctx, id, caller.ID)
	case "items":
		allowed, err = h.mayDeleteItem(ctx, id, caller.ID)
	default:
		writeRestError(w, http.StatusNotFound, "42P01", fmt.Sprintf("relation %q does not exist", table))
		return
	}
	if errors.Is(err, apperror.ErrNotFound) {
		// A filtered delete that matches nothing succeeds.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeRestErr(w, h.logger, err)
		return
	}
	if !allowed {
		deleteDenied(w, table)
		return
	}

	if table == "rooms" {
		err = h.rooms.Delete(ctx, id)
	} else {
		err = h.items.Delete(ctx, id)
	}
	if err != nil {
		writeRestErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RestHandler) mayDeleteRoom(ctx context.Context, id, caller uuid.UUID) (bool, error) {
	room, err := h.rooms.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return room.CreatedBy == caller, nil
}

func (h *RestHandler) mayDeleteItem(ctx context.Context, id, caller uuid.UUID) (bool, error) {
	item, err := h.items.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if item.CreatedBy == caller {
		return true, nil
	}
	room, err := h.rooms.Get(ctx, item.RoomID)
	if err != nil {
		return false, err
	}
	return room.CreatedBy == caller, nil
}
