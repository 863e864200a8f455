package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"listing-service/internal/apperr"
	"listing-service/internal/geocoding"
	"listing-service/internal/models"
	"listing-service/internal/query"
	"listing-service/internal/utils"
)

type fakeGeocoder struct {
	points map[string]models.GeoPoint
	calls  int32
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (*geocoding.Result, error) {
	atomic.AddInt32(&g.calls, 1)
	p, ok := g.points[address]
	if !ok {
		return nil, apperr.Geocode(nil, "address %q not found", address)
	}
	return &geocoding.Result{Point: p, FormattedAddress: address, Raw: json.RawMessage(`{"address":"` + address + `"}`)}, nil
}

// memListingRepo is an in-memory ListingRepository that evaluates queries
// the same way the database backends do.
type memListingRepo struct {
	mu         sync.Mutex
	listings   []models.Listing
	duplicates int
	failNearby bool
	failViews  bool
	views      chan string
}

func newMemListingRepo(listings ...models.Listing) *memListingRepo {
	return &memListingRepo{listings: listings, views: make(chan string, 16)}
}

func matches(l models.Listing, q models.ListingQuery) bool {
	if q.Near != nil && utils.HaversineMeters(q.Near.Center, l.Location) > q.Near.RadiusMeters() {
		return false
	}
	if q.Action != "" && l.Action != q.Action {
		return false
	}
	if q.PropertyType != "" && l.PropertyType != q.PropertyType {
		return false
	}
	if q.Bedrooms != nil && (l.Bedrooms == nil || *l.Bedrooms != *q.Bedrooms) {
		return false
	}
	if q.Bathrooms != nil && (l.Bathrooms == nil || *l.Bathrooms != *q.Bathrooms) {
		return false
	}
	if !query.MatchesPricePrefix(l.Price, q.PricePrefixes) {
		return false
	}
	if q.Published != nil && l.Published != *q.Published {
		return false
	}
	if q.OwnerID != "" && l.OwnerID != q.OwnerID {
		return false
	}
	return true
}

func (r *memListingRepo) Find(_ context.Context, q models.ListingQuery, page, pageSize int) ([]models.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []models.Listing
	for _, l := range r.listings {
		if matches(l, q) {
			for _, f := range q.ExcludeFields {
				if f == query.GoogleMapField {
					l.GoogleMap = nil
				}
			}
			hits = append(hits, l)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].CreatedAt.After(hits[j].CreatedAt)
		}
		return hits[i].ID > hits[j].ID
	})
	total := int64(len(hits))
	skip := query.Skip(page, pageSize)
	if skip >= len(hits) {
		return []models.Listing{}, total, nil
	}
	end := skip + pageSize
	if end > len(hits) {
		end = len(hits)
	}
	return hits[skip:end], total, nil
}

func (r *memListingRepo) FindBySlug(_ context.Context, slug string) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.listings {
		if l.Slug == slug {
			out := l
			return &out, nil
		}
	}
	return nil, apperr.NotFound("listing %q not found", slug)
}

func (r *memListingRepo) FindNearby(_ context.Context, q models.NearbyQuery) ([]models.Listing, error) {
	if r.failNearby {
		return nil, apperr.Storage(errors.New("geo index missing"), "failed to find nearby listings")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []models.Listing
	for _, l := range r.listings {
		if l.ID == q.ExcludeID || l.Action != q.Action || l.PropertyType != q.PropertyType {
			continue
		}
		if utils.HaversineMeters(q.Center, l.Location) <= q.MaxMeters {
			hits = append(hits, l)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return utils.HaversineMeters(q.Center, hits[i].Location) < utils.HaversineMeters(q.Center, hits[j].Location)
	})
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

func (r *memListingRepo) Create(_ context.Context, l *models.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicates > 0 {
		r.duplicates--
		return apperr.DuplicateSlug(l.Slug, nil)
	}
	for _, existing := range r.listings {
		if existing.Slug == l.Slug {
			return apperr.DuplicateSlug(l.Slug, nil)
		}
	}
	r.listings = append(r.listings, *l)
	return nil
}

func (r *memListingRepo) update(slug string, fn func(*models.Listing)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].Slug == slug {
			fn(&r.listings[i])
			return nil
		}
	}
	return apperr.NotFound("listing %q not found", slug)
}

func (r *memListingRepo) UpdateBySlug(_ context.Context, slug string, l *models.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return r.update(slug, func(existing *models.Listing) { *existing = *l })
}

func (r *memListingRepo) SetStatus(_ context.Context, slug, status string) error {
	return r.update(slug, func(l *models.Listing) { l.Status = status })
}

func (r *memListingRepo) SetPublished(_ context.Context, slug string, published bool) error {
	return r.update(slug, func(l *models.Listing) { l.Published = published })
}

func (r *memListingRepo) DeleteBySlug(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].Slug == slug {
			r.listings = append(r.listings[:i], r.listings[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("listing %q not found", slug)
}

func (r *memListingRepo) IncrementViews(_ context.Context, id string) error {
	defer func() {
		select {
		case r.views <- id:
		default:
		}
	}()
	if r.failViews {
		return apperr.Storage(errors.New("connection reset"), "failed to increment views")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			r.listings[i].Views++
		}
	}
	return nil
}

type fakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	failPut   bool
	failDel   bool
	putCalled int32
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	atomic.AddInt32(&s.putCalled, 1)
	if s.failPut {
		return "", errors.New("bucket unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return "http://objects.local/images/" + key, nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	if s.failDel {
		return errors.New("bucket unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeObjectStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type memImageRepo struct {
	mu     sync.Mutex
	images map[string]models.StoredImage
}

func newMemImageRepo() *memImageRepo {
	return &memImageRepo{images: map[string]models.StoredImage{}}
}

func (r *memImageRepo) Create(_ context.Context, img *models.StoredImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[img.Key]; ok {
		return apperr.Storage(errors.New("duplicate key"), "failed to save image metadata")
	}
	r.images[img.Key] = *img
	return nil
}

func (r *memImageRepo) Get(_ context.Context, key string) (*models.StoredImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[key]
	if !ok {
		return nil, apperr.NotFound("image %q not found", key)
	}
	return &img, nil
}

func (r *memImageRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.images, key)
	return nil
}

func hasPrefixAny(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
