package fnb

// Record is an untyped resource document, used for resources the console only lists.
type Record map[string]any

// ID returns the "id" field of the record, or 0.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

type Restaurant struct {
	ID                   int64   `json:"id,omitempty"`
	RestaurantName       string  `json:"restaurant_name"`
	Address              string  `json:"address"`
	Number               string  `json:"number"`
	AlternativeNumber    string  `json:"alternative_number"`
	LandlineNumber       string  `json:"landline_number"`
	DeliveryTime         string  `json:"delivery_time"` // The backend rejects null, send "" instead
	ServesAlcohol        bool    `json:"serves_alcohol"`
	WheelchairAccessible bool    `json:"wheelchair_accessible"`
	CashOnDelivery       bool    `json:"cash_on_delivery"`
	PureVeg              bool    `json:"pure_veg"`
	Cuisines             []int64 `json:"cuisines"`
	TermsAndConditions   string  `json:"terms_and_conditions"`
	ClosingMessage       string  `json:"closing_message"`
	CostForTwo           float64 `json:"cost_for_two"`
	IsActive             *bool   `json:"is_active,omitempty"`
}

// Schedule is the weekly opening plan of a restaurant. Times are "HH:MM:SS".
type Schedule struct {
	ID              int64    `json:"id,omitempty"`
	Restaurant      int64    `json:"restaurant"`
	OperationalDays []string `json:"operational_days"` // Day codes: "mon" ... "sun"
	StartTime       *string  `json:"start_time"`
	EndTime         *string  `json:"end_time"`
	BreakStartTime  *string  `json:"break_start_time"`
	BreakEndTime    *string  `json:"break_end_time"`
	BookingAllowed  bool     `json:"booking_allowed"`
	OrderAllowed    bool     `json:"order_allowed"`
	LastBookingTime *string  `json:"last_booking_time"`
}

// Block types of a BlockedDay.
const (
	BlockOrder   = "order"
	BlockBooking = "booking"
)

type BlockedDay struct {
	ID         int64   `json:"id,omitempty"`
	Restaurant int64   `json:"restaurant"`
	Schedule   int64   `json:"schedule,omitempty"`
	BlockType  string  `json:"block_type"`
	StartDate  *string `json:"start_date"` // "YYYY-MM-DD"
	EndDate    *string `json:"end_date"`
}

type TableBooking struct {
	ID                      int64   `json:"id,omitempty"`
	Restaurant              int64   `json:"restaurant"`
	NoOfTables              int     `json:"no_of_tables"`
	MinPeople               int     `json:"min_people"`
	MaxPeople               int     `json:"max_people"`
	CanCancelBefore         *string `json:"can_cancel_before"` // "HH:MM:SS"
	BookingNotAvailableText string  `json:"booking_not_available_text"`
	NoOfFloors              int     `json:"no_of_floors"`
}

type OrderConfig struct {
	ID                    int64   `json:"id,omitempty"`
	Restaurant            int64   `json:"restaurant"`
	GSTPercentage         float64 `json:"GST_percentage"`
	DeliveryCharge        float64 `json:"delivery_charge"`
	ServiceCharge         float64 `json:"service_charge"`
	MinimumOrder          int     `json:"minimum_order"`
	OrderNotAvailableText string  `json:"order_not_available_text"`
}

type Cuisine struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	Restaurant int64  `json:"restaurant,omitempty"`
}

type Category struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	Restaurant int64  `json:"restaurant,omitempty"`
	Cuisine    int64  `json:"cuisine,omitempty"`
	Timings    string `json:"timings,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

type Item struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Category    int64   `json:"category,omitempty"`
	SubCategory int64   `json:"sub_category,omitempty"`
	Price       float64 `json:"price"`
	MasterPrice float64 `json:"master_price,omitempty"`
	Discount    float64 `json:"discount,omitempty"`
	MenuType    string  `json:"menu_type,omitempty"`
	Status      string  `json:"status,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Media is an uploaded image or file.
type Media struct {
	ID         int64  `json:"id,omitempty"`
	Restaurant int64  `json:"restaurant,omitempty"`
	Image      string `json:"image,omitempty"`
	File       string `json:"file,omitempty"`
}
