package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"listing-service/internal/apperr"
	"listing-service/internal/models"
	"listing-service/internal/query"
	"listing-service/internal/utils"
)

// mutableColumns are the columns an update may rewrite. id, slug, owner_id,
// views and created_at are fixed at creation.
var mutableColumns = []string{
	"photos", "price", "address", "property_type", "bedrooms", "bathrooms",
	"landsize", "landsize_type", "carpark", "loc_longitude", "loc_latitude",
	"google_map", "title", "description", "features", "nearby", "published",
	"action", "status", "inspection_time", "updated_at",
}

// listingOrder sorts newest first. id breaks ties so pages never overlap.
const listingOrder = "created_at DESC, id DESC"

var queryFieldColumns = map[string]string{
	query.GoogleMapField: "google_map",
}

// sqlCondition is one WHERE predicate with its bind values.
type sqlCondition struct {
	Expr string
	Args []interface{}
}

// ListingRepositoryImpl stores listings in PostgreSQL through GORM.
type ListingRepositoryImpl struct {
	db *gorm.DB
}

// NewListingRepository creates a new ListingRepositoryImpl instance with the provided GORM database connection.
func NewListingRepository(db *gorm.DB) *ListingRepositoryImpl {
	return &ListingRepositoryImpl{db: db}
}

// distanceExpr is the haversine distance in meters from (?, ?) = (lat, lng) to the row.
const distanceExpr = `(? * acos(LEAST(1.0, GREATEST(-1.0,
	cos(radians(?)) * cos(radians(loc_latitude)) * cos(radians(loc_longitude) - radians(?)) +
	sin(radians(?)) * sin(radians(loc_latitude))))))`

func distanceArgs(center models.GeoPoint) []interface{} {
	return []interface{}{models.EarthRadiusKm * 1000, center.Latitude, center.Longitude, center.Latitude}
}

func radiusConditions(center models.GeoPoint, radiusMeters float64) []sqlCondition {
	box := utils.CalculateBoundingBox(center, radiusMeters)
	return []sqlCondition{
		{Expr: "loc_latitude BETWEEN ? AND ?", Args: []interface{}{box.MinLat, box.MaxLat}},
		{Expr: "loc_longitude BETWEEN ? AND ?", Args: []interface{}{box.MinLng, box.MaxLng}},
		{Expr: distanceExpr + " <= ?", Args: append(distanceArgs(center), radiusMeters)},
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// listingConditions translates a ListingQuery into SQL predicates.
func listingConditions(q models.ListingQuery) []sqlCondition {
	var conds []sqlCondition
	if q.Near != nil {
		conds = append(conds, radiusConditions(q.Near.Center, q.Near.RadiusMeters())...)
	}
	if q.Action != "" {
		conds = append(conds, sqlCondition{Expr: "action = ?", Args: []interface{}{q.Action}})
	}
	if q.PropertyType != "" {
		conds = append(conds, sqlCondition{Expr: "property_type = ?", Args: []interface{}{q.PropertyType}})
	}
	if q.Bedrooms != nil {
		conds = append(conds, sqlCondition{Expr: "bedrooms = ?", Args: []interface{}{*q.Bedrooms}})
	}
	if q.Bathrooms != nil {
		conds = append(conds, sqlCondition{Expr: "bathrooms = ?", Args: []interface{}{*q.Bathrooms}})
	}
	if len(q.PricePrefixes) > 0 {
		parts := make([]string, 0, len(q.PricePrefixes))
		args := make([]interface{}, 0, len(q.PricePrefixes))
		for _, p := range q.PricePrefixes {
			parts = append(parts, "price LIKE ?")
			args = append(args, escapeLike(p)+"%")
		}
		conds = append(conds, sqlCondition{Expr: "(" + strings.Join(parts, " OR ") + ")", Args: args})
	}
	if q.Published != nil {
		conds = append(conds, sqlCondition{Expr: "published = ?", Args: []interface{}{*q.Published}})
	}
	if q.OwnerID != "" {
		conds = append(conds, sqlCondition{Expr: "owner_id = ?", Args: []interface{}{q.OwnerID}})
	}
	return conds
}

func omittedColumns(fields []string) []string {
	var cols []string
	for _, f := range fields {
		if c, ok := queryFieldColumns[f]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

func (r *ListingRepositoryImpl) scoped(ctx context.Context, conds []sqlCondition) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Listing{})
	for _, c := range conds {
		tx = tx.Where(c.Expr, c.Args...)
	}
	return tx
}

// Find returns one page of matching listings, newest first, and the total match count.
func (r *ListingRepositoryImpl) Find(ctx context.Context, q models.ListingQuery, page, pageSize int) ([]models.Listing, int64, error) {
	conds := listingConditions(q)

	var total int64
	if err := r.scoped(ctx, conds).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count listings")
	}

	var listings []models.Listing
	tx := r.scoped(ctx, conds)
	if cols := omittedColumns(q.ExcludeFields); len(cols) > 0 {
		tx = tx.Omit(cols...)
	}
	err := tx.Order(listingOrder).
		Offset(query.Skip(page, pageSize)).
		Limit(pageSize).
		Find(&listings).Error
	if err != nil {
		return nil, 0, translateError(err, "failed to find listings")
	}
	return listings, total, nil
}

// FindBySlug retrieves a listing and its owner by slug.
func (r *ListingRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).Preload("Owner").First(&listing, "slug = ?", slug).Error
	if err != nil {
		return nil, translateError(err, "failed to get listing")
	}
	return &listing, nil
}

// FindNearby returns listings around a point ordered by increasing distance.
func (r *ListingRepositoryImpl) FindNearby(ctx context.Context, q models.NearbyQuery) ([]models.Listing, error) {
	conds := radiusConditions(q.Center, q.MaxMeters)
	conds = append(conds,
		sqlCondition{Expr: "action = ?", Args: []interface{}{q.Action}},
		sqlCondition{Expr: "property_type = ?", Args: []interface{}{q.PropertyType}},
	)
	if q.ExcludeID != "" {
		conds = append(conds, sqlCondition{Expr: "id <> ?", Args: []interface{}{q.ExcludeID}})
	}

	var listings []models.Listing
	err := r.scoped(ctx, conds).
		Omit(omittedColumns([]string{query.GoogleMapField})...).
		Preload("Owner").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                distanceExpr + " ASC",
			Vars:               distanceArgs(q.Center),
			WithoutParentheses: true,
		}}).
		Limit(q.Limit).
		Find(&listings).Error
	if err != nil {
		return nil, translateError(err, "failed to find nearby listings")
	}
	return listings, nil
}

// Create inserts a new listing. A slug collision yields a DuplicateSlug error.
func (r *ListingRepositoryImpl) Create(ctx context.Context, listing *models.Listing) error {
	if err := listing.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Omit("Owner").Create(listing).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.DuplicateSlug(listing.Slug, err)
	}
	if err != nil {
		return translateError(err, "failed to create listing")
	}
	return nil
}

// UpdateBySlug rewrites the mutable columns of the listing identified by slug.
func (r *ListingRepositoryImpl) UpdateBySlug(ctx context.Context, slug string, listing *models.Listing) error {
	if err := listing.Validate(); err != nil {
		return err
	}
	listing.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("slug = ?", slug).
		Select(mutableColumns).
		Updates(listing)
	return affectedOne(res, "failed to update listing", slug)
}

// SetStatus changes only the status column.
func (r *ListingRepositoryImpl) SetStatus(ctx context.Context, slug, status string) error {
	if !models.IsStatus(status) {
		return apperr.Validation("invalid status %q", status)
	}
	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("slug = ?", slug).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	return affectedOne(res, "failed to update listing status", slug)
}

// SetPublished changes only the published flag.
func (r *ListingRepositoryImpl) SetPublished(ctx context.Context, slug string, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("slug = ?", slug).
		Updates(map[string]interface{}{"published": published, "updated_at": time.Now()})
	return affectedOne(res, "failed to update listing visibility", slug)
}

// DeleteBySlug deletes a listing by slug.
func (r *ListingRepositoryImpl) DeleteBySlug(ctx context.Context, slug string) error {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Listing{})
	return affectedOne(res, "failed to delete listing", slug)
}

// IncrementViews adds one to the view counter of a listing.
func (r *ListingRepositoryImpl) IncrementViews(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return translateError(err, "failed to increment views")
	}
	return nil
}

func affectedOne(res *gorm.DB, msg, slug string) error {
	if res.Error != nil {
		return translateError(res.Error, msg)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("listing %q not found", slug)
	}
	return nil
}

func translateError(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s: not found", msg)
	case apperr.KindOf(err) != apperr.KindInternal:
		return err
	default:
		return apperr.Storage(err, "%s", msg)
	}
}
