package fnb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jrsteele09/fnb-console/apiclient"
	"github.com/jrsteele09/fnb-console/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Onboarding steps, in the order they run.
const (
	StepRestaurant   = "restaurant"
	StepSchedule     = "schedule"
	StepBlockedDays  = "blocked days"
	StepTableBooking = "table booking"
	StepOrderConfig  = "order config"
	StepCoverImage   = "cover image"
	StepMenuImage    = "menu image"
	StepGallery      = "gallery images"
	StepOtherFiles   = "other files"
)

// RestaurantDraft is everything entered on the add-restaurant form. Nil sections are skipped.
type RestaurantDraft struct {
	Restaurant    Restaurant
	Schedule      *Schedule
	BlockedDays   *BlockedDaysDraft
	TableBooking  *TableBookingDraft
	OrderConfig   *OrderConfig
	CoverImage    *apiclient.File
	MenuImage     *apiclient.File
	GalleryImages []apiclient.File
	OtherFiles    []apiclient.File
}

// BlockedDaysDraft blocks ordering and/or booking for a date range.
type BlockedDaysDraft struct {
	Orders    bool
	Bookings  bool
	StartDate string
	EndDate   string
}

// TableBookingDraft holds the table booking fields as typed. Blank or unparsable
// numbers take their defaults.
type TableBookingDraft struct {
	NumberOfTables          string // default 0
	MinimumPeople           string // default 1
	MaximumPeople           string // default and floor: MinimumPeople
	CanCancelBefore         string // see NormalizeDuration
	BookingNotAvailableText string
	NumberOfFloors          string // default 1
}

// StepError is the failure of one onboarding step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("error saving %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// OnboardResult reports what Onboard created and which steps failed.
type OnboardResult struct {
	RestaurantID int64
	ScheduleID   int64
	Failures     []*StepError
}

// OK reports whether every step succeeded.
func (r *OnboardResult) OK() bool {
	return len(r.Failures) == 0
}

// Err joins the step failures, or returns nil.
func (r *OnboardResult) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r *OnboardResult) fail(step string, err error) {
	r.Failures = append(r.Failures, &StepError{Step: step, Err: err})
}

// Onboard creates a restaurant and its settings one step at a time. A failed
// restaurant step aborts with an error; later failures are collected in the result
// and the remaining steps still run.
func (s *Service) Onboard(ctx context.Context, draft RestaurantDraft) (*OnboardResult, error) {
	result := &OnboardResult{}

	restaurant := draft.Restaurant
	if restaurant.AlternativeNumber == "" {
		restaurant.AlternativeNumber = restaurant.Number
	}
	if restaurant.LandlineNumber == "" {
		restaurant.LandlineNumber = restaurant.Number
	}
	if restaurant.Cuisines == nil {
		restaurant.Cuisines = []int64{}
	}
	created, err := s.Restaurants.Create(ctx, restaurant)
	if err == nil && created.ID == 0 {
		err = errors.New("no restaurant id in response")
	}
	if err != nil {
		result.fail(StepRestaurant, err)
		return result, result.Err()
	}
	result.RestaurantID = created.ID

	if draft.Schedule != nil {
		schedule := *draft.Schedule
		schedule.Restaurant = result.RestaurantID
		if sched, err := s.Schedules.Create(ctx, schedule); err != nil {
			result.fail(StepSchedule, err)
		} else {
			result.ScheduleID = sched.ID
		}
	}

	if draft.BlockedDays != nil && result.ScheduleID != 0 {
		if err := s.blockDays(ctx, result, draft.BlockedDays); err != nil {
			result.fail(StepBlockedDays, err)
		}
	}

	if draft.TableBooking != nil {
		if _, err := s.TableBookings.Create(ctx, s.tableBooking(result.RestaurantID, draft.TableBooking)); err != nil {
			result.fail(StepTableBooking, err)
		}
	}

	if draft.OrderConfig != nil {
		cfg := *draft.OrderConfig
		cfg.Restaurant = result.RestaurantID
		if _, err := s.OrderConfigs.Create(ctx, cfg); err != nil {
			result.fail(StepOrderConfig, err)
		}
	}

	uploads := []struct {
		step  string
		kind  MediaKind
		files []apiclient.File
	}{
		{StepCoverImage, CoverImage, single(draft.CoverImage)},
		{StepMenuImage, MenuImage, single(draft.MenuImage)},
		{StepGallery, GalleryImage, draft.GalleryImages},
		{StepOtherFiles, OtherFile, draft.OtherFiles},
	}
	for _, u := range uploads {
		if len(u.files) == 0 {
			continue
		}
		if _, err := s.Upload(ctx, u.kind, result.RestaurantID, u.files...); err != nil {
			result.fail(u.step, err)
		}
	}

	for _, f := range result.Failures {
		s.logger.Warn().Err(f.Err).Str("step", f.Step).Int64("restaurant", result.RestaurantID).Msg("onboarding step failed")
	}
	return result, nil
}

// blockDays creates the order and booking blocks in parallel.
func (s *Service) blockDays(ctx context.Context, result *OnboardResult, draft *BlockedDaysDraft) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, block := range []struct {
		enabled bool
		kind    string
	}{{draft.Orders, BlockOrder}, {draft.Bookings, BlockBooking}} {
		if !block.enabled {
			continue
		}
		day := BlockedDay{
			Restaurant: result.RestaurantID,
			Schedule:   result.ScheduleID,
			BlockType:  block.kind,
			StartDate:  utils.OptionalString(draft.StartDate),
			EndDate:    utils.OptionalString(draft.EndDate),
		}
		g.Go(func() error {
			_, err := s.BlockedDays.Create(gctx, day)
			return err
		})
	}
	return g.Wait()
}

func (s *Service) tableBooking(restaurantID int64, draft *TableBookingDraft) TableBooking {
	minPeople := atoiOr(draft.MinimumPeople, 1)
	maxPeople := max(atoiOr(draft.MaximumPeople, minPeople), minPeople)

	booking := TableBooking{
		Restaurant:              restaurantID,
		NoOfTables:              atoiOr(draft.NumberOfTables, 0),
		MinPeople:               minPeople,
		MaxPeople:               maxPeople,
		BookingNotAvailableText: draft.BookingNotAvailableText,
		NoOfFloors:              atoiOr(draft.NumberOfFloors, 1),
	}
	cancel, err := NormalizeDuration(draft.CanCancelBefore)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ignoring cancellation window")
	}
	booking.CanCancelBefore = utils.OptionalString(cancel)
	return booking
}

func atoiOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

func single(f *apiclient.File) []apiclient.File {
	if f == nil {
		return nil
	}
	return []apiclient.File{*f}
}
