package usecase

import "github.com/connecta/gig-scraper/internal/entity"

// DiffResult is the change set of one scrape against the backend's copy.
type DiffResult struct {
	// ToCreateOrUpdate holds every current gig; there is no content diff.
	ToCreateOrUpdate []entity.Gig
	// ToDelete holds stored gigs absent from the current scrape, once each.
	ToDelete []entity.GigKey
}

// DiffService compares a scrape against the previously stored gigs by natural key.
type DiffService struct{}

func NewDiffService() *DiffService { return &DiffService{} }

func (DiffService) Compare(current []entity.Gig, previous []entity.ExternalGig) DiffResult {
	seen := make(map[entity.GigKey]struct{}, len(current))
	for _, g := range current {
		seen[g.Key()] = struct{}{}
	}

	res := DiffResult{ToCreateOrUpdate: append([]entity.Gig(nil), current...)}
	queued := make(map[entity.GigKey]struct{})
	for _, p := range previous {
		k := p.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		if _, dup := queued[k]; dup {
			continue
		}
		queued[k] = struct{}{}
		res.ToDelete = append(res.ToDelete, k)
	}
	return res
}
