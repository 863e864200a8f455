package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"listing-service/internal/apperr"
	"listing-service/internal/models"
	"listing-service/internal/query"
)

const (
	listingsCollection = "ads"
	usersCollection    = "users"
	imagesCollection   = "images"
)

// listingSort sorts newest first. _id breaks ties so pages never overlap.
var listingSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type geoJSONDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type imageRefDocument struct {
	Key      string `bson:"key"`
	Location string `bson:"location"`
}

type ownerDocument struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
	Phone    string `bson:"phone,omitempty"`
	Company  string `bson:"company,omitempty"`
	Photo    string `bson:"photo,omitempty"`
}

// listingDocument is the document shape of a listing in the ads collection.
type listingDocument struct {
	ID             string             `bson:"_id"`
	Photos         []imageRefDocument `bson:"photos"`
	Price          string             `bson:"price"`
	Address        string             `bson:"address"`
	PropertyType   string             `bson:"propertyType"`
	Bedrooms       *int               `bson:"bedrooms,omitempty"`
	Bathrooms      *int               `bson:"bathroom,omitempty"`
	Landsize       *float64           `bson:"landsize,omitempty"`
	LandsizeType   string             `bson:"landsizetype,omitempty"`
	Carpark        *int               `bson:"carpark,omitempty"`
	Location       geoJSONDocument    `bson:"location"`
	GoogleMap      string             `bson:"googleMap,omitempty"`
	Title          string             `bson:"title"`
	Slug           string             `bson:"slug"`
	Description    string             `bson:"description"`
	Features       string             `bson:"features,omitempty"`
	Nearby         string             `bson:"nearby,omitempty"`
	PostedBy       string             `bson:"postedBy"`
	Owner          *ownerDocument     `bson:"owner,omitempty"`
	Published      bool               `bson:"published"`
	Action         string             `bson:"action"`
	Views          int64              `bson:"views"`
	Status         string             `bson:"status"`
	InspectionTime string             `bson:"inspectionTime,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func toListingDocument(l *models.Listing) listingDocument {
	doc := listingDocument{
		ID:             l.ID,
		Price:          l.Price,
		Address:        l.Address,
		PropertyType:   l.PropertyType,
		Bedrooms:       l.Bedrooms,
		Bathrooms:      l.Bathrooms,
		Landsize:       l.Landsize,
		LandsizeType:   l.LandsizeType,
		Carpark:        l.Carpark,
		Location:       geoJSONDocument{Type: "Point", Coordinates: []float64{l.Location.Longitude, l.Location.Latitude}},
		GoogleMap:      string(l.GoogleMap),
		Title:          l.Title,
		Slug:           l.Slug,
		Description:    l.Description,
		Features:       l.Features,
		Nearby:         l.Nearby,
		PostedBy:       l.OwnerID,
		Published:      l.Published,
		Action:         l.Action,
		Views:          l.Views,
		Status:         l.Status,
		InspectionTime: l.InspectionTime,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
	doc.Photos = make([]imageRefDocument, 0, len(l.Photos))
	for _, p := range l.Photos {
		doc.Photos = append(doc.Photos, imageRefDocument{Key: p.Key, Location: p.Location})
	}
	return doc
}

func (d *listingDocument) toModel() models.Listing {
	l := models.Listing{
		ID:             d.ID,
		Price:          d.Price,
		Address:        d.Address,
		PropertyType:   d.PropertyType,
		Bedrooms:       d.Bedrooms,
		Bathrooms:      d.Bathrooms,
		Landsize:       d.Landsize,
		LandsizeType:   d.LandsizeType,
		Carpark:        d.Carpark,
		Title:          d.Title,
		Slug:           d.Slug,
		Description:    d.Description,
		Features:       d.Features,
		Nearby:         d.Nearby,
		OwnerID:        d.PostedBy,
		Published:      d.Published,
		Action:         d.Action,
		Views:          d.Views,
		Status:         d.Status,
		InspectionTime: d.InspectionTime,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if len(d.Location.Coordinates) == 2 {
		l.Location = models.GeoPoint{Longitude: d.Location.Coordinates[0], Latitude: d.Location.Coordinates[1]}
	}
	if d.GoogleMap != "" && json.Valid([]byte(d.GoogleMap)) {
		l.GoogleMap = json.RawMessage(d.GoogleMap)
	}
	l.Photos = make([]models.ImageRef, 0, len(d.Photos))
	for _, p := range d.Photos {
		l.Photos = append(l.Photos, models.ImageRef{Key: p.Key, Location: p.Location})
	}
	if d.Owner != nil {
		l.Owner = d.Owner.toModel()
	}
	return l
}

func (o *ownerDocument) toModel() *models.Owner {
	return &models.Owner{
		ID:       o.ID,
		Name:     o.Name,
		Username: o.Username,
		Email:    o.Email,
		Phone:    o.Phone,
		Company:  o.Company,
		Photo:    o.Photo,
	}
}

// listingFilter translates a ListingQuery into a document filter.
func listingFilter(q models.ListingQuery) bson.M {
	f := bson.M{}
	if q.Near != nil {
		f["location"] = bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{
				bson.A{q.Near.Center.Longitude, q.Near.Center.Latitude},
				q.Near.RadiusRadians,
			},
		}}
	}
	if q.Action != "" {
		f["action"] = q.Action
	}
	if q.PropertyType != "" {
		f["propertyType"] = q.PropertyType
	}
	if q.Bedrooms != nil {
		f["bedrooms"] = *q.Bedrooms
	}
	if q.Bathrooms != nil {
		f["bathroom"] = *q.Bathrooms
	}
	if len(q.PricePrefixes) > 0 {
		quoted := make([]string, 0, len(q.PricePrefixes))
		for _, p := range q.PricePrefixes {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
		f["price"] = bson.M{"$regex": "^(" + strings.Join(quoted, "|") + ")"}
	}
	if q.Published != nil {
		f["published"] = *q.Published
	}
	if q.OwnerID != "" {
		f["postedBy"] = q.OwnerID
	}
	return f
}

func projection(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	p := bson.M{}
	for _, f := range fields {
		p[f] = 0
	}
	return p
}

// nearbyPipeline builds the $geoNear aggregation for related listings.
func nearbyPipeline(q models.NearbyQuery) mongo.Pipeline {
	match := bson.M{
		"action":       q.Action,
		"propertyType": q.PropertyType,
	}
	if q.ExcludeID != "" {
		match["_id"] = bson.M{"$ne": q.ExcludeID}
	}
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{q.Center.Longitude, q.Center.Latitude}},
			}},
			{Key: "distanceField", Value: "distance"},
			{Key: "maxDistance", Value: q.MaxMeters},
			{Key: "spherical", Value: true},
			{Key: "query", Value: match},
		}}},
		{{Key: "$limit", Value: q.Limit}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "postedBy"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$owner"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: query.GoogleMapField, Value: 0},
			{Key: "distance", Value: 0},
		}}},
	}
}

// MongoListingRepository stores listings in a MongoDB collection.
type MongoListingRepository struct {
	listings *mongo.Collection
	users    *mongo.Collection
}

func NewMongoListingRepository(db *mongo.Database) *MongoListingRepository {
	return &MongoListingRepository{
		listings: db.Collection(listingsCollection),
		users:    db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the geo index and the unique slug index.
func (r *MongoListingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.listings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: listingSort},
		{Keys: bson.D{{Key: "postedBy", Value: 1}}},
	})
	if err != nil {
		return apperr.Storage(err, "failed to create listing indexes")
	}
	return nil
}

func (r *MongoListingRepository) Find(ctx context.Context, q models.ListingQuery, page, pageSize int) ([]models.Listing, int64, error) {
	filter := listingFilter(q)

	total, err := r.listings.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to count listings")
	}

	opts := options.Find().
		SetSort(listingSort).
		SetSkip(int64(query.Skip(page, pageSize))).
		SetLimit(int64(pageSize))
	if p := projection(q.ExcludeFields); p != nil {
		opts.SetProjection(p)
	}
	cur, err := r.listings.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to find listings")
	}
	listings, err := decodeListings(ctx, cur)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *MongoListingRepository) FindBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	var doc listingDocument
	err := r.listings.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("listing %q not found", slug)
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to get listing")
	}

	var owner ownerDocument
	err = r.users.FindOne(ctx, bson.M{"_id": doc.PostedBy},
		options.FindOne().SetProjection(bson.M{"password": 0, "resetCode": 0})).Decode(&owner)
	switch {
	case err == nil:
		doc.Owner = &owner
	case err != mongo.ErrNoDocuments:
		return nil, apperr.Storage(err, "failed to get listing owner")
	}

	l := doc.toModel()
	return &l, nil
}

func (r *MongoListingRepository) FindNearby(ctx context.Context, q models.NearbyQuery) ([]models.Listing, error) {
	cur, err := r.listings.Aggregate(ctx, nearbyPipeline(q))
	if err != nil {
		return nil, apperr.Storage(err, "failed to find nearby listings")
	}
	return decodeListings(ctx, cur)
}

func (r *MongoListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := listing.Validate(); err != nil {
		return err
	}
	stampCreated(listing, time.Now())
	_, err := r.listings.InsertOne(ctx, toListingDocument(listing))
	if mongo.IsDuplicateKeyError(err) {
		return apperr.DuplicateSlug(listing.Slug, err)
	}
	if err != nil {
		return apperr.Storage(err, "failed to create listing")
	}
	return nil
}

// stampCreated fills the creation and update times the way gorm does for
// the SQL store. Times already set are kept.
func stampCreated(listing *models.Listing, now time.Time) {
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	if listing.UpdatedAt.IsZero() {
		listing.UpdatedAt = listing.CreatedAt
	}
}

func (r *MongoListingRepository) UpdateBySlug(ctx context.Context, slug string, listing *models.Listing) error {
	if err := listing.Validate(); err != nil {
		return err
	}
	listing.UpdatedAt = time.Now()
	doc := toListingDocument(listing)
	set := bson.M{
		"photos":         doc.Photos,
		"price":          doc.Price,
		"address":        doc.Address,
		"propertyType":   doc.PropertyType,
		"bedrooms":       doc.Bedrooms,
		"bathroom":       doc.Bathrooms,
		"landsize":       doc.Landsize,
		"landsizetype":   doc.LandsizeType,
		"carpark":        doc.Carpark,
		"location":       doc.Location,
		"googleMap":      doc.GoogleMap,
		"title":          doc.Title,
		"description":    doc.Description,
		"features":       doc.Features,
		"nearby":         doc.Nearby,
		"published":      doc.Published,
		"action":         doc.Action,
		"status":         doc.Status,
		"inspectionTime": doc.InspectionTime,
		"updatedAt":      doc.UpdatedAt,
	}
	return r.updateOne(ctx, slug, set, "failed to update listing")
}

func (r *MongoListingRepository) SetStatus(ctx context.Context, slug, status string) error {
	if !models.IsStatus(status) {
		return apperr.Validation("invalid status %q", status)
	}
	return r.updateOne(ctx, slug, bson.M{"status": status, "updatedAt": time.Now()}, "failed to update listing status")
}

func (r *MongoListingRepository) SetPublished(ctx context.Context, slug string, published bool) error {
	return r.updateOne(ctx, slug, bson.M{"published": published, "updatedAt": time.Now()}, "failed to update listing visibility")
}

func (r *MongoListingRepository) updateOne(ctx context.Context, slug string, set bson.M, msg string) error {
	res, err := r.listings.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$set": set})
	if err != nil {
		return apperr.Storage(err, "%s", msg)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("listing %q not found", slug)
	}
	return nil
}

func (r *MongoListingRepository) DeleteBySlug(ctx context.Context, slug string) error {
	res, err := r.listings.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return apperr.Storage(err, "failed to delete listing")
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("listing %q not found", slug)
	}
	return nil
}

func (r *MongoListingRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.listings.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return apperr.Storage(err, "failed to increment views")
	}
	return nil
}

func decodeListings(ctx context.Context, cur *mongo.Cursor) ([]models.Listing, error) {
	defer cur.Close(ctx)
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Storage(err, "failed to decode listings")
	}
	listings := make([]models.Listing, 0, len(docs))
	for i := range docs {
		listings = append(listings, docs[i].toModel())
	}
	return listings, nil
}
