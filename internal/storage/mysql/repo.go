package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"estate_listing/internal/domain"
	"estate_listing/internal/geo"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func pointWKT(lat, lng float64) string {
	return "POINT(" + fmtCoord(lng) + " " + fmtCoord(lat) + ")"
}

func boxWKT(lat, lng float64, meters int) string {
	dLat, dLng := geo.BoundingBox(lat, float64(meters))
	minLat, maxLat := math.Max(lat-dLat, -90), math.Min(lat+dLat, 90)
	minLng, maxLng := math.Max(lng-dLng, -180), math.Min(lng+dLng, 180)
	return fmt.Sprintf("POLYGON((%s %s, %s %s, %s %s, %s %s, %s %s))",
		fmtCoord(minLng), fmtCoord(minLat),
		fmtCoord(maxLng), fmtCoord(minLat),
		fmtCoord(maxLng), fmtCoord(maxLat),
		fmtCoord(minLng), fmtCoord(maxLat),
		fmtCoord(minLng), fmtCoord(minLat),
	)
}

func fmtCoord(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// likePattern escapes LIKE wildcards with '!' and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(s) + "%"
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.StoreError{Op: op, Err: err}
}

func (r *Repo) Insert(ctx context.Context, l domain.Listing) error {
	imgs, err := json.Marshal(nonNil(l.ImageURLs))
	if err != nil {
		return wrap("insert", err)
	}
	_, err = r.db.ExecContext(ctx, insertListingSQL,
		l.ID,
		l.Name,
		l.Description,
		l.Address,
		l.RegularPrice,
		l.DiscountPrice,
		l.Bathrooms,
		l.Bedrooms,
		l.Furnished,
		l.Parking,
		string(l.Type),
		l.Offer,
		string(imgs),
		l.UserRef,
		pointWKT(l.Location.Lat(), l.Location.Lng()),
		l.CreatedAt.UTC(),
		l.UpdatedAt.UTC(),
	)
	return wrap("insert", err)
}

func (r *Repo) Update(ctx context.Context, l domain.Listing) error {
	imgs, err := json.Marshal(nonNil(l.ImageURLs))
	if err != nil {
		return wrap("update", err)
	}
	res, err := r.db.ExecContext(ctx, updateListingSQL,
		l.Name,
		l.Description,
		l.Address,
		l.RegularPrice,
		l.DiscountPrice,
		l.Bathrooms,
		l.Bedrooms,
		l.Furnished,
		l.Parking,
		string(l.Type),
		l.Offer,
		string(imgs),
		pointWKT(l.Location.Lat(), l.Location.Lng()),
		l.UpdatedAt.UTC(),
		l.ID,
	)
	if err != nil {
		return wrap("update", err)
	}
	// Rows matched, not changed: the DSN sets clientFoundRows.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteListingSQL, id)
	if err != nil {
		return wrap("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx, getListingSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, wrap("get", err)
}

func (r *Repo) FindByTextMatch(ctx context.Context, substr string, limit int) ([]domain.Listing, error) {
	p := likePattern(substr)
	rows, err := r.db.QueryContext(ctx, findByTextSQL, p, p, limit)
	if err != nil {
		return nil, wrap("find by text", err)
	}
	out, err := scanListings(rows)
	return out, wrap("find by text", err)
}

func (r *Repo) FindNear(ctx context.Context, lat, lng float64, maxDistanceMeters, limit int) ([]domain.Listing, error) {
	pt := pointWKT(lat, lng)
	rows, err := r.db.QueryContext(ctx, findNearSQL,
		boxWKT(lat, lng, maxDistanceMeters),
		pt, maxDistanceMeters,
		pt,
		limit,
	)
	if err != nil {
		return nil, wrap("find near", err)
	}
	out, err := scanListings(rows)
	return out, wrap("find near", err)
}

func (r *Repo) List(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	var (
		where []string
		args  []any
	)
	if f.SearchTerm != "" {
		where = append(where, "LOWER(name) LIKE LOWER(?) ESCAPE '!'")
		args = append(args, likePattern(f.SearchTerm))
	}
	if f.Offer {
		where = append(where, "offer = TRUE")
	}
	if f.Furnished {
		where = append(where, "furnished = TRUE")
	}
	if f.Parking {
		where = append(where, "parking = TRUE")
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}

	// column names are never taken from input
	col := "created_at"
	if f.Sort == "regularPrice" {
		col = "regular_price"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	var b strings.Builder
	b.WriteString("SELECT " + listingColumns + " FROM listings")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + col + " " + dir + ", id " + dir + " LIMIT ? OFFSET ?")
	args = append(args, f.Limit, f.StartIndex)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, wrap("list", err)
	}
	out, err := scanListings(rows)
	return out, wrap("list", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (domain.Listing, error) {
	var (
		l        domain.Listing
		typ      string
		imgsJSON []byte
		lng, lat float64
	)
	if err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Description,
		&l.Address,
		&l.RegularPrice,
		&l.DiscountPrice,
		&l.Bathrooms,
		&l.Bedrooms,
		&l.Furnished,
		&l.Parking,
		&typ,
		&l.Offer,
		&imgsJSON,
		&l.UserRef,
		&lng, &lat,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return domain.Listing{}, err
	}
	l.Type = domain.ListingType(typ)
	l.Location = domain.NewPoint(lat, lng)
	if len(imgsJSON) > 0 {
		if err := json.Unmarshal(imgsJSON, &l.ImageURLs); err != nil {
			return domain.Listing{}, fmt.Errorf("decode image_urls for %s: %w", l.ID, err)
		}
	}
	return l, nil
}

func scanListings(rows *sql.Rows) ([]domain.Listing, error) {
	defer rows.Close()
	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
