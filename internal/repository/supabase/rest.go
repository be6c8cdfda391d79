package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/sakif/reclaim/internal/model"
	"github.com/sakif/reclaim/internal/repository"
)

// Tables API headers.
const (
	preferRepresentation = "return=representation"
	acceptSingleObject   = "application/vnd.pgrst.object+json"
)

func eq(v string) string { return "eq." + v }

func singleObject() http.Header {
	return http.Header{"Accept": {acceptSingleObject}}
}

func insertHeaders() http.Header {
	return http.Header{
		"Prefer": {preferRepresentation},
		"Accept": {acceptSingleObject},
	}
}

func (c *Client) table(name string) string {
	return "/rest/v1/" + name
}

var (
	_ repository.RoomRepository       = (*Rooms)(nil)
	_ repository.MembershipRepository = (*Members)(nil)
	_ repository.ItemRepository       = (*Items)(nil)
)

// Rooms is the rooms table.
type Rooms struct{ c *Client }

func (c *Client) Rooms() *Rooms { return &Rooms{c: c} }

func (r *Rooms) Create(ctx context.Context, in *model.NewRoom) (*model.Room, error) {
	var room model.Room
	err := r.c.do(ctx, request{
		method: http.MethodPost,
		path:   r.c.table("rooms"),
		header: insertHeaders(),
		body:   in,
		asUser: true,
	}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Rooms) ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Room, error) {
	rooms := []model.Room{}
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   r.c.table("rooms"),
		query: url.Values{
			"select":     {"*"},
			"created_by": {eq(userID.String())},
			"order":      {"created_at.desc"},
		},
		asUser: true,
	}, &rooms)
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByCredentials asks for a single object; the server answers 406 when
// zero or several rows match, which decodes to apperror.ErrNotFound.
func (r *Rooms) FindByCredentials(ctx context.Context, code, password string) (*model.Room, error) {
	var room model.Room
	err := r.c.do(ctx, request{
		method: http.MethodGet,
		path:   r.c.table("rooms"),
		query: url.Values{
			"select":    {"*"},
			"room_code": {eq(code)},
			"password":  {eq(password)},
		},
		header: singleObject(),
		asUser: true,
	}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Rooms) Delete(ctx context.Context, id uuid.UUID) error {
	return r.c.do(ctx, request{
		method: http.MethodDelete,
		path:   r.c.table("rooms"),
		query:  url.Values{"id": {eq(id.String())}},
		asUser: true,
	}, nil)
}

// Members is the room_members table.
type Members struct{ c *Client }

func (c *Client) Members() *Members { return &Members{c: c} }

func (m *Members) Add(ctx context.Context, in *model.Membership) (*model.Membership, error) {
	var out model.Membership
	err := m.c.do(ctx, request{
		method: http.MethodPost,
		path:   m.c.table("room_members"),
		header: insertHeaders(),
		body:   in,
		asUser: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Members) ListJoined(ctx context.Context, userID uuid.UUID, role model.Role) ([]model.JoinedRoom, error) {
	joined := []model.JoinedRoom{}
	err := m.c.do(ctx, request{
		method: http.MethodGet,
		path:   m.c.table("room_members"),
		query: url.Values{
			"select":  {"role,rooms(*)"},
			"user_id": {eq(userID.String())},
			"role":    {eq(string(role))},
		},
		asUser: true,
	}, &joined)
	if err != nil {
		return nil, err
	}
	return joined, nil
}

// Items is the items table.
type Items struct{ c *Client }

func (c *Client) Items() *Items { return &Items{c: c} }

func (i *Items) Create(ctx context.Context, in *model.NewItem) (*model.Item, error) {
	var item model.Item
	err := i.c.do(ctx, request{
		method: http.MethodPost,
		path:   i.c.table("items"),
		header: insertHeaders(),
		body:   in,
		asUser: true,
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (i *Items) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Item, error) {
	items := []model.Item{}
	err := i.c.do(ctx, request{
		method: http.MethodGet,
		path:   i.c.table("items"),
		query: url.Values{
			"select":  {"*"},
			"room_id": {eq(roomID.String())},
			"order":   {"created_at.desc"},
		},
		asUser: true,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (i *Items) Delete(ctx context.Context, id uuid.UUID) error {
	return i.c.do(ctx, request{
		method: http.MethodDelete,
		path:   i.c.table("items"),
		query:  url.Values{"id": {eq(id.String())}},
		asUser: true,
	}, nil)
}
