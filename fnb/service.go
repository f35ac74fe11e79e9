package fnb

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/jrsteele09/fnb-console/apiclient"
	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Collection paths of the F&B service.
const (
	PathRestaurants        = "/restaurants/"
	PathSchedules          = "/restaurant-schedules/"
	PathSchedulesBulk      = "/restaurant-schedules/bulk/"
	PathBlockedDays        = "/blocked-days/"
	PathTableBookings      = "/table-bookings/"
	PathOrderConfigs       = "/order-configs/"
	PathCuisines           = "/cuisines/"
	PathMasterCuisines     = "/master-cuisines/"
	PathCategories         = "/categories/"
	PathItems              = "/items/"
	PathCustomers          = "/customers/"
	PathOrders             = "/orders/"
	PathSuppliers          = "/suppliers/"
	PathWarehouses         = "/warehouses/"
	PathInventoryItems     = "/inventory-items/"
	PathInventoryMovements = "/inventory-movements/"
	PathIngredients        = "/ingredients/"
	PathItemIngredients    = "/item-ingredients/"
	PathCoverImages        = "/cover-images/"
	PathMenuImages         = "/menu-images/"
	PathGalleryImages      = "/gallery-images/"
	PathOtherFiles         = "/other-files/"
)

// ResourceNames lists every collection by the name used on the command line.
var ResourceNames = map[string]string{
	"restaurants":          PathRestaurants,
	"restaurant-schedules": PathSchedules,
	"blocked-days":         PathBlockedDays,
	"table-bookings":       PathTableBookings,
	"order-configs":        PathOrderConfigs,
	"cuisines":             PathCuisines,
	"master-cuisines":      PathMasterCuisines,
	"categories":           PathCategories,
	"items":                PathItems,
	"customers":            PathCustomers,
	"orders":               PathOrders,
	"suppliers":            PathSuppliers,
	"warehouses":           PathWarehouses,
	"inventory-items":      PathInventoryItems,
	"inventory-movements":  PathInventoryMovements,
	"ingredients":          PathIngredients,
	"item-ingredients":     PathItemIngredients,
	"cover-images":         PathCoverImages,
	"menu-images":          PathMenuImages,
	"gallery-images":       PathGalleryImages,
	"other-files":          PathOtherFiles,
}

// MediaKind selects a media collection and the form field its files are sent in.
type MediaKind int

const (
	CoverImage MediaKind = iota
	MenuImage
	GalleryImage
	OtherFile
)

const (
	defaultLookupSize = 64
	defaultLookupTTL  = 5 * time.Minute
)

// Service exposes the F&B collections over one API client.
type Service struct {
	api    API
	logger zerolog.Logger

	lookupSize int
	lookupTTL  time.Duration

	Restaurants        *Resource[Restaurant]
	Schedules          *Resource[Schedule]
	BlockedDays        *Resource[BlockedDay]
	TableBookings      *Resource[TableBooking]
	OrderConfigs       *Resource[OrderConfig]
	Cuisines           *Resource[Cuisine]  // cached
	MasterCuisines     *Resource[Cuisine]  // cached
	Categories         *Resource[Category] // cached
	Items              *Resource[Item]
	Customers          *Resource[Record]
	Orders             *Resource[Record]
	Suppliers          *Resource[Record]
	Warehouses         *Resource[Record]
	InventoryItems     *Resource[Record]
	InventoryMovements *Resource[Record]
	Ingredients        *Resource[Record]
	ItemIngredients    *Resource[Record]
	CoverImages        *Resource[Media]
	MenuImages         *Resource[Media]
	GalleryImages      *Resource[Media]
	OtherFiles         *Resource[Media]
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLookupCache sizes the cache of the read-mostly lookup lists. A size of 0
// disables it.
func WithLookupCache(size int, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.lookupSize = size
		s.lookupTTL = ttl
	}
}

// NewService returns a Service sending its requests through api.
func NewService(api API, options ...ServiceOption) *Service {
	s := &Service{
		api:        api,
		logger:     log.Logger,
		lookupSize: defaultLookupSize,
		lookupTTL:  defaultLookupTTL,
	}
	for _, opt := range options {
		opt(s)
	}

	lookup := WithListCache(s.lookupSize, s.lookupTTL)
	s.Restaurants = NewResource[Restaurant](api, PathRestaurants)
	s.Schedules = NewResource[Schedule](api, PathSchedules)
	s.BlockedDays = NewResource[BlockedDay](api, PathBlockedDays)
	s.TableBookings = NewResource[TableBooking](api, PathTableBookings)
	s.OrderConfigs = NewResource[OrderConfig](api, PathOrderConfigs)
	s.Cuisines = NewResource[Cuisine](api, PathCuisines, lookup)
	s.MasterCuisines = NewResource[Cuisine](api, PathMasterCuisines, lookup)
	s.Categories = NewResource[Category](api, PathCategories, lookup)
	s.Items = NewResource[Item](api, PathItems)
	s.Customers = NewResource[Record](api, PathCustomers)
	s.Orders = NewResource[Record](api, PathOrders)
	s.Suppliers = NewResource[Record](api, PathSuppliers)
	s.Warehouses = NewResource[Record](api, PathWarehouses)
	s.InventoryItems = NewResource[Record](api, PathInventoryItems)
	s.InventoryMovements = NewResource[Record](api, PathInventoryMovements)
	s.Ingredients = NewResource[Record](api, PathIngredients)
	s.ItemIngredients = NewResource[Record](api, PathItemIngredients)
	s.CoverImages = NewResource[Media](api, PathCoverImages)
	s.MenuImages = NewResource[Media](api, PathMenuImages)
	s.GalleryImages = NewResource[Media](api, PathGalleryImages)
	s.OtherFiles = NewResource[Media](api, PathOtherFiles)
	return s
}

// Records returns an untyped view of the collection registered under name.
func (s *Service) Records(name string) (*Resource[Record], error) {
	path, ok := ResourceNames[name]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "[Service.Records] unknown resource %q", name)
	}
	return NewResource[Record](s.api, path), nil
}

// Names returns the registered resource names in order.
func Names() []string {
	names := make([]string, 0, len(ResourceNames))
	for name := range ResourceNames {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CreateSchedulesBulk creates several schedules in one call.
func (s *Service) CreateSchedulesBulk(ctx context.Context, schedules []Schedule) ([]Schedule, error) {
	req, err := apiclient.NewJSONRequest(http.MethodPost, PathSchedulesBulk, schedules)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateSchedulesBulk]")
	}
	resp, err := s.api.Do(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateSchedulesBulk]")
	}
	return apiclient.UnwrapList[Schedule](resp.Body)
}

// Upload sends files to the media collection of kind for restaurantID. Images go in
// the "image" field, other files in "file".
func (s *Service) Upload(ctx context.Context, kind MediaKind, restaurantID int64, files ...apiclient.File) (*Media, error) {
	if len(files) == 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "[Service.Upload] no files")
	}

	field := "image"
	var collection *Resource[Media]
	switch kind {
	case CoverImage:
		collection = s.CoverImages
	case MenuImage:
		collection = s.MenuImages
	case GalleryImage:
		collection = s.GalleryImages
	case OtherFile:
		collection, field = s.OtherFiles, "file"
	default:
		return nil, errors.Wrapf(apperrors.ErrInvalidRequest, "[Service.Upload] unknown media kind %d", kind)
	}

	parts := make([]apiclient.File, len(files))
	for i, f := range files {
		f.Field = field
		parts[i] = f
	}
	fields := map[string]string{}
	if restaurantID > 0 {
		fields["restaurant"] = strconv.FormatInt(restaurantID, 10)
	}
	return collection.Upload(ctx, fields, parts)
}
