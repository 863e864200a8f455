package services

import (
	"context"
	"log"
	"sort"

	"listing-service/internal/models"
	"listing-service/internal/repository"
	"listing-service/internal/utils"
)

// RelatedRanker finds listings near an anchor that share its action and type.
type RelatedRanker struct {
	Repo     repository.ListingRepository
	RadiusKm float64
	Limit    int
	Metrics  *utils.Metrics
}

func NewRelatedRanker(repo repository.ListingRepository, radiusKm float64, limit int, metrics *utils.Metrics) *RelatedRanker {
	if metrics == nil {
		metrics = utils.NewMetrics(nil)
	}
	return &RelatedRanker{Repo: repo, RadiusKm: radiusKm, Limit: limit, Metrics: metrics}
}

// Related returns at most Limit listings ordered by distance from anchor.
// Lookup failures are logged and yield an empty set.
func (r *RelatedRanker) Related(ctx context.Context, anchor *models.Listing) []models.Listing {
	maxMeters := r.RadiusKm * 1000
	candidates, err := r.Repo.FindNearby(ctx, models.NearbyQuery{
		Center:       anchor.Location,
		MaxMeters:    maxMeters,
		Action:       anchor.Action,
		PropertyType: anchor.PropertyType,
		ExcludeID:    anchor.ID,
		Limit:        r.Limit,
	})
	if err != nil {
		log.Printf("Related listings for %s failed: %v", anchor.Slug, err)
		r.Metrics.IncRelatedFailures()
		return []models.Listing{}
	}
	return rankRelated(anchor, candidates, maxMeters, r.Limit)
}

// rankRelated keeps candidates that match the anchor, orders them by
// distance and caps the result.
func rankRelated(anchor *models.Listing, candidates []models.Listing, maxMeters float64, limit int) []models.Listing {
	type ranked struct {
		listing  models.Listing
		distance float64
	}
	var kept []ranked
	for _, c := range candidates {
		if c.ID == anchor.ID || c.Slug == anchor.Slug {
			continue
		}
		if c.Action != anchor.Action || c.PropertyType != anchor.PropertyType {
			continue
		}
		d := utils.HaversineMeters(anchor.Location, c.Location)
		if d > maxMeters {
			continue
		}
		kept = append(kept, ranked{listing: c, distance: d})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].distance < kept[j].distance })

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]models.Listing, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.listing)
	}
	return out
}
