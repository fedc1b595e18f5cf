package shipping

import (
	"strings"
)

// Service types accepted by the fee calculator.
const (
	ServiceStandard = "standard"
	ServiceExpress  = "express"
	ServiceSameDay  = "sameDay"
)

const sameDayDistrict = "Colombo"

// districtZones maps Sri Lankan districts to delivery zones. Districts
// not listed fall into the outermost zone.
var districtZones = map[string]int{
	"Colombo":      1,
	"Gampaha":      1,
	"Kalutara":     2,
	"Kandy":        2,
	"Galle":        2,
	"Matara":       2,
	"Kurunegala":   2,
	"Ratnapura":    3,
	"Kegalle":      3,
	"Matale":       3,
	"Nuwara Eliya": 3,
	"Hambantota":   3,
	"Puttalam":     3,
	"Anuradhapura": 3,
	"Badulla":      3,
	"Polonnaruwa":  4,
	"Monaragala":   4,
	"Ampara":       4,
	"Batticaloa":   4,
	"Trincomalee":  4,
	"Vavuniya":     4,
	"Mannar":       4,
	"Mullaitivu":   4,
	"Kilinochchi":  4,
	"Jaffna":       4,
}

// cityZones overrides the district zone for specific cities. Outlying
// towns inside an inner-zone district still pay the outer rate.
var cityZones = map[string]int{
	"Avissawella": 2,
	"Horana":      2,
	"Mirigama":    2,
	"Negombo":     1,
	"Moratuwa":    1,
	"Dehiwala":    1,
	"Deniyaya":    3,
	"Mawanella":   3,
}

const defaultZone = 4

// baseFees is the delivery fee per zone for each service type.
var baseFees = map[string]map[int]float64{
	ServiceStandard: {1: 300, 2: 400, 3: 500, 4: 650},
	ServiceExpress:  {1: 500, 2: 650, 3: 800, 4: 1000},
	ServiceSameDay:  {1: 800},
}

// freeDeliveryThresholds waives the fee when the order subtotal reaches
// the threshold for the service type.
var freeDeliveryThresholds = map[string]float64{
	ServiceStandard: 5000,
	ServiceExpress:  8000,
	ServiceSameDay:  15000,
}

// Quote is the result of a shipping fee calculation.
type Quote struct {
	District     string  `json:"district"`
	City         string  `json:"city,omitempty"`
	Zone         int     `json:"zone"`
	ServiceType  string  `json:"service_type"`
	Subtotal     float64 `json:"subtotal"`
	Fee          float64 `json:"fee"`
	FreeDelivery bool    `json:"free_delivery"`
}

// IsValidServiceType reports whether the service type is one the
// calculator knows.
func IsValidServiceType(serviceType string) bool {
	switch serviceType {
	case ServiceStandard, ServiceExpress, ServiceSameDay:
		return true
	}
	return false
}

// ZoneFor resolves a district and city to a delivery zone, case
// insensitively. A listed city overrides its district; unknown
// districts get the outermost zone.
func ZoneFor(district, city string) int {
	trimmedCity := strings.TrimSpace(city)
	for name, zone := range cityZones {
		if strings.EqualFold(name, trimmedCity) {
			return zone
		}
	}

	trimmedDistrict := strings.TrimSpace(district)
	for name, zone := range districtZones {
		if strings.EqualFold(name, trimmedDistrict) {
			return zone
		}
	}

	return defaultZone
}

// SameDayAvailable reports whether same-day delivery serves the
// district.
func SameDayAvailable(district string) bool {
	return strings.EqualFold(strings.TrimSpace(district), sameDayDistrict)
}

// CalculateFee quotes the delivery fee for an order subtotal shipped to
// a district and city with the given service type. ok is false when the
// service type is unknown or same-day is requested outside its
// coverage.
func CalculateFee(district, city string, subtotal float64, serviceType string) (Quote, bool) {
	if !IsValidServiceType(serviceType) {
		return Quote{}, false
	}
	if serviceType == ServiceSameDay && !SameDayAvailable(district) {
		return Quote{}, false
	}

	zone := ZoneFor(district, city)
	if serviceType == ServiceSameDay {
		// Same-day only runs inside the innermost zone
		zone = 1
	}

	quote := Quote{
		District:    strings.TrimSpace(district),
		City:        strings.TrimSpace(city),
		Zone:        zone,
		ServiceType: serviceType,
		Subtotal:    subtotal,
	}

	if subtotal >= freeDeliveryThresholds[serviceType] {
		quote.FreeDelivery = true
		return quote, true
	}

	fee, ok := baseFees[serviceType][zone]
	if !ok {
		return Quote{}, false
	}
	quote.Fee = fee

	return quote, true
}
