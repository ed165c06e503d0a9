package services

import (
	"context"
	"fmt"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/domain/models"
	"frontend/internal/utils"

	"golang.org/x/sync/errgroup"
)

// Profile is a user's public page: the account, their latest reviews and
// their registered vehicles.
type Profile struct {
	User          models.User      `json:"user"`
	Reviews       []models.Review  `json:"reviews"`
	ReviewPages   int              `json:"reviewPages"`
	AverageRating float64          `json:"averageRating"`
	Vehicles      []models.Vehicle `json:"vehicles"`
	Partial       bool             `json:"partial,omitempty"`
}

// ProfileService loads the three parts of a profile concurrently.
type ProfileService struct {
	Client    *apiclient.Client
	Token     string
	RequestID string
	PageSize  int
}

// Load fails only when the user itself cannot be loaded. Reviews and
// vehicles degrade to empty lists and mark the profile partial.
func (s ProfileService) Load(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, domain.ValidationError{Field: "id", Msg: "user id is required"}
	}
	size := s.PageSize
	if size < 1 {
		size = domain.DefaultPageSize
	}

	var (
		p        = Profile{Reviews: []models.Review{}, Vehicles: []models.Vehicle{}, ReviewPages: 1}
		reviews  apiclient.Result[domain.Page[models.Review]]
		vehicles apiclient.Result[domain.Page[models.Vehicle]]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := apiclient.Get[models.User](gctx, s.Client, s.Token, "users", userID)
		if !res.OK() {
			return res.Err
		}
		p.User = res.Value
		return nil
	})
	g.Go(func() error {
		reviews = apiclient.FetchPage[models.Review](gctx, s.Client, s.Token, "reviews", domain.PageQuery{
			PageNumber: 1, PageSize: size, Filters: map[string]string{"targetId": userID},
		})
		return nil
	})
	g.Go(func() error {
		vehicles = apiclient.FetchPage[models.Vehicle](gctx, s.Client, s.Token, "vehicles", domain.PageQuery{
			PageNumber: 1, PageSize: size, Filters: map[string]string{"ownerId": userID},
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return Profile{}, err
	}

	if reviews.OK() {
		p.Reviews = reviews.Value.Items
		p.ReviewPages = reviews.Value.EffectiveTotalPages()
	} else {
		p.Partial = true
	}
	if vehicles.OK() {
		p.Vehicles = vehicles.Value.Items
	} else {
		p.Partial = true
	}
	if n := len(p.Reviews); n > 0 {
		sum := 0
		for _, r := range p.Reviews {
			sum += r.Rating
		}
		p.AverageRating = float64(sum) / float64(n)
	}
	utils.LogEvent(s.RequestID, "profile", "load", fmt.Sprintf("user_id=%s partial=%v", userID, p.Partial))
	return p, nil
}
