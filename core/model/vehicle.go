package model

import "fmt"

// Vehicle is one of the four toll categories: Car, Taxi, Bus or DeliveryTruck.
// The set is closed; the unexported marker keeps other packages from adding
// variants.
type Vehicle interface {
	Kind() Kind
	vehicle()
}

// Car is a private passenger car. Passengers excludes the driver.
type Car struct {
	Passengers uint `json:"passengers"`
}

// Taxi is a livery vehicle carrying paying fares.
type Taxi struct {
	Fares uint `json:"fares"`
}

// Bus is a commercial bus. Riders may exceed Capacity.
type Bus struct {
	Capacity uint `json:"capacity"`
	Riders   uint `json:"riders"`
}

// DeliveryTruck is a commercial truck; GrossWeightClass is in pounds.
type DeliveryTruck struct {
	GrossWeightClass uint `json:"gross_weight_class"`
}

func (Car) Kind() Kind           { return KindCar }
func (Taxi) Kind() Kind          { return KindTaxi }
func (Bus) Kind() Kind           { return KindBus }
func (DeliveryTruck) Kind() Kind { return KindDeliveryTruck }

func (Car) vehicle()           {}
func (Taxi) vehicle()          {}
func (Bus) vehicle()           {}
func (DeliveryTruck) vehicle() {}

// Kind identifies a vehicle category.
type Kind int

const (
	KindCar Kind = iota + 1
	KindTaxi
	KindBus
	KindDeliveryTruck
)

// Kinds lists every category in declaration order.
var Kinds = []Kind{KindCar, KindTaxi, KindBus, KindDeliveryTruck}

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCar:
		return "car"
	case KindTaxi:
		return "taxi"
	case KindBus:
		return "bus"
	case KindDeliveryTruck:
		return "delivery_truck"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown vehicle kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
