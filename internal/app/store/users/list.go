package userstore

import (
	"context"
	"maps"
	"strings"

	"github.com/dalemusser/unionhub/internal/app/system/paging"
	"github.com/dalemusser/unionhub/internal/app/system/search"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListQuery selects one page of accounts. Empty fields do not filter.
type ListQuery struct {
	BranchID *primitive.ObjectID
	Status   models.Status
	Role     models.Role
	Search   string
	Before   string
	After    string
}

// ListPage is one page of accounts, ordered by folded name, or by email
// when the search pivots to email.
type ListPage struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	HasPrev    bool          `json:"hasPrev"`
	HasNext    bool          `json:"hasNext"`
	PrevCursor string        `json:"prevCursor,omitempty"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// List returns one page of accounts matching q. An undecodable cursor
// yields paging.ErrInvalidCursor.
func (s *Store) List(ctx context.Context, q ListQuery) (ListPage, error) {
	var page ListPage

	cfg, err := paging.ConfigureKeyset(q.Before, q.After)
	if err != nil {
		return page, err
	}

	base := bson.M{}
	if q.BranchID != nil {
		base["branch_id"] = *q.BranchID
	}
	if q.Status != "" {
		base["status"] = q.Status
	}
	if q.Role != "" {
		base["role"] = q.Role
	}

	query := strings.TrimSpace(q.Search)
	emailPivot := search.EmailPivotNoBranchOK(query, string(q.Status))
	if q.BranchID != nil {
		emailPivot = search.EmailPivotOK(query, string(q.Status), true)
	}

	var searchOr []bson.M
	if query != "" {
		eLo, eHi := search.EmailRange(query)
		if emailPivot {
			searchOr = []bson.M{{"email": bson.M{"$gte": eLo, "$lt": eHi}}}
		} else {
			nLo, nHi := search.NameRange(query)
			searchOr = []bson.M{
				{"full_name_ci": bson.M{"$gte": nLo, "$lt": nHi}},
				{"email": bson.M{"$gte": eLo, "$lt": eHi}},
			}
		}
		base["$or"] = searchOr
	}

	page.Total, err = s.c.CountDocuments(ctx, base)
	if err != nil {
		return page, err
	}

	sortField := "full_name_ci"
	if emailPivot {
		sortField = "email"
	}
	find := options.Find()
	cfg.ApplyToFind(find, sortField)

	// Clone the base filter, then add cursor conditions ($or needs an $and).
	f := maps.Clone(base)
	if ks := cfg.KeysetWindow(sortField); ks != nil {
		if searchOr != nil {
			f["$and"] = []bson.M{{"$or": searchOr}, ks}
			delete(f, "$or")
		} else {
			maps.Copy(f, ks)
		}
	}

	cur, err := s.c.Find(ctx, f, find)
	if err != nil {
		return page, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return page, err
	}

	if cfg.Direction == paging.Backward {
		paging.Reverse(users)
	}
	res := paging.TrimPage(&users, q.Before, q.After)
	page.Users = users
	page.HasPrev, page.HasNext = res.HasPrev, res.HasNext

	key := func(u models.User) string { return u.FullNameCI }
	if emailPivot {
		key = func(u models.User) string { return u.Email }
	}
	page.PrevCursor, page.NextCursor = paging.BuildCursors(users, key, func(u models.User) primitive.ObjectID { return u.ID })
	return page, nil
}

// Stats summarizes accounts by status, role and activation.
type Stats struct {
	Total    int64                   `json:"total"`
	Active   int64                   `json:"active"`
	Inactive int64                   `json:"inactive"`
	ByStatus map[models.Status]int64 `json:"byStatus"`
	ByRole   map[models.Role]int64   `json:"byRole"`
}

// Stats counts accounts, optionally within one branch.
func (s *Store) Stats(ctx context.Context, branchID *primitive.ObjectID) (Stats, error) {
	match := bson.M{}
	if branchID != nil {
		match["branch_id"] = *branchID
	}
	group := func(field string) bson.A {
		return bson.A{bson.M{"$group": bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.M{
			"status": group("status"),
			"role":   group("role"),
			"active": group("is_active"),
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cur.Close(ctx)

	var facets []struct {
		Status []struct {
			ID models.Status `bson:"_id"`
			N  int64         `bson:"n"`
		} `bson:"status"`
		Role []struct {
			ID models.Role `bson:"_id"`
			N  int64       `bson:"n"`
		} `bson:"role"`
		Active []struct {
			ID bool  `bson:"_id"`
			N  int64 `bson:"n"`
		} `bson:"active"`
	}
	if err := cur.All(ctx, &facets); err != nil {
		return Stats{}, err
	}

	st := NewStats()
	if len(facets) == 0 {
		return st, nil
	}
	for _, g := range facets[0].Status {
		st.ByStatus[g.ID] += g.N
		st.Total += g.N
	}
	for _, g := range facets[0].Role {
		st.ByRole[g.ID] += g.N
	}
	for _, g := range facets[0].Active {
		if g.ID {
			st.Active += g.N
		} else {
			st.Inactive += g.N
		}
	}
	return st, nil
}

// NewStats returns zeroed Stats with every canonical status and role present.
func NewStats() Stats {
	st := Stats{ByStatus: map[models.Status]int64{}, ByRole: map[models.Role]int64{}}
	for _, s := range models.Statuses {
		st.ByStatus[s] = 0
	}
	for _, r := range models.Roles {
		st.ByRole[r] = 0
	}
	return st
}
