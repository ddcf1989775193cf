package toll

import (
	"fmt"
	"math/bits"

	"github.com/kilianp07/tolltag/core/model"
)

// Base prices per category.
var (
	CarBase   = model.Dollars(2, 0)
	TaxiBase  = model.Dollars(3, 50)
	BusBase   = model.Dollars(5, 0)
	TruckBase = model.Dollars(10, 0)
)

// Weight thresholds for delivery trucks, in pounds.
const (
	HeavyTruckPounds = 5000
	LightTruckPounds = 3000
)

// Rule names the guard that selected the adjustment.
type Rule string

const (
	RuleCarNoPassengers  Rule = "car:no-passengers"
	RuleCarOnePassenger  Rule = "car:one-passenger"
	RuleCarTwoPassengers Rule = "car:two-passengers"
	RuleCarPool          Rule = "car:pool"

	RuleTaxiEmpty      Rule = "taxi:empty"
	RuleTaxiSingleFare Rule = "taxi:single-fare"
	RuleTaxiDoubleFare Rule = "taxi:double-fare"
	RuleTaxiFull       Rule = "taxi:full"

	RuleBusLowOccupancy  Rule = "bus:low-occupancy"
	RuleBusHighOccupancy Rule = "bus:high-occupancy"
	RuleBusStandard      Rule = "bus:standard"

	RuleTruckHeavy    Rule = "truck:heavy"
	RuleTruckLight    Rule = "truck:light"
	RuleTruckStandard Rule = "truck:standard"
)

// Breakdown explains a toll: the category base, the single adjustment that
// applied and the resulting total.
type Breakdown struct {
	Kind       model.Kind
	Rule       Rule
	Base       model.Money
	Adjustment model.Money
	Total      model.Money
}

func breakdown(k model.Kind, r Rule, base, adj model.Money) Breakdown {
	return Breakdown{Kind: k, Rule: r, Base: base, Adjustment: adj, Total: base.Add(adj)}
}

// Calculate returns the toll for v.
func Calculate(v model.Vehicle) (model.Money, error) {
	b, err := Classify(v)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// CalculateAny prices an untyped value. nil yields ErrNullVehicle and any
// value that is not a model.Vehicle yields ErrUnrecognizedVehicleType.
func CalculateAny(v any) (model.Money, error) {
	b, err := ClassifyAny(v)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// ClassifyAny is the untyped counterpart of Classify.
func ClassifyAny(v any) (Breakdown, error) {
	switch veh := v.(type) {
	case nil:
		return Breakdown{}, ErrNullVehicle
	case model.Vehicle:
		return Classify(veh)
	default:
		return Breakdown{}, fmt.Errorf("%w: %T", ErrUnrecognizedVehicleType, v)
	}
}

// Classify selects the category of v, then the first matching guard within
// that category.
func Classify(v model.Vehicle) (Breakdown, error) {
	switch veh := v.(type) {
	case nil:
		return Breakdown{}, ErrNullVehicle
	case model.Car:
		return carToll(veh), nil
	case model.Taxi:
		return taxiToll(veh), nil
	case model.Bus:
		return busToll(veh), nil
	case model.DeliveryTruck:
		return truckToll(veh), nil
	case *model.Car:
		if veh == nil {
			return Breakdown{}, ErrNullVehicle
		}
		return carToll(*veh), nil
	case *model.Taxi:
		if veh == nil {
			return Breakdown{}, ErrNullVehicle
		}
		return taxiToll(*veh), nil
	case *model.Bus:
		if veh == nil {
			return Breakdown{}, ErrNullVehicle
		}
		return busToll(*veh), nil
	case *model.DeliveryTruck:
		if veh == nil {
			return Breakdown{}, ErrNullVehicle
		}
		return truckToll(*veh), nil
	default:
		return Breakdown{}, fmt.Errorf("%w: %T", ErrUnrecognizedVehicleType, v)
	}
}

func carToll(c model.Car) Breakdown {
	switch c.Passengers {
	case 0:
		return breakdown(model.KindCar, RuleCarNoPassengers, CarBase, model.Cents(50))
	case 1:
		return breakdown(model.KindCar, RuleCarOnePassenger, CarBase, 0)
	case 2:
		return breakdown(model.KindCar, RuleCarTwoPassengers, CarBase, model.Cents(-50))
	default:
		return breakdown(model.KindCar, RuleCarPool, CarBase, model.Cents(-100))
	}
}

func taxiToll(t model.Taxi) Breakdown {
	switch t.Fares {
	case 0:
		return breakdown(model.KindTaxi, RuleTaxiEmpty, TaxiBase, model.Cents(100))
	case 1:
		return breakdown(model.KindTaxi, RuleTaxiSingleFare, TaxiBase, 0)
	case 2:
		return breakdown(model.KindTaxi, RuleTaxiDoubleFare, TaxiBase, model.Cents(-50))
	default:
		return breakdown(model.KindTaxi, RuleTaxiFull, TaxiBase, model.Cents(-100))
	}
}

// busToll compares riders/capacity against 0.50 and 0.90 by cross
// multiplication, so both thresholds are exact. A bus without capacity has no
// defined ratio and is charged as under-occupied.
func busToll(b model.Bus) Breakdown {
	riders, capacity := uint64(b.Riders), uint64(b.Capacity)
	switch {
	case capacity == 0:
		return breakdown(model.KindBus, RuleBusLowOccupancy, BusBase, model.Cents(200))
	case compareScaled(2, riders, 1, capacity) < 0:
		return breakdown(model.KindBus, RuleBusLowOccupancy, BusBase, model.Cents(200))
	case compareScaled(10, riders, 9, capacity) > 0:
		return breakdown(model.KindBus, RuleBusHighOccupancy, BusBase, model.Cents(-100))
	default:
		return breakdown(model.KindBus, RuleBusStandard, BusBase, 0)
	}
}

func truckToll(t model.DeliveryTruck) Breakdown {
	switch {
	case t.GrossWeightClass > HeavyTruckPounds:
		return breakdown(model.KindDeliveryTruck, RuleTruckHeavy, TruckBase, model.Cents(500))
	case t.GrossWeightClass < LightTruckPounds:
		return breakdown(model.KindDeliveryTruck, RuleTruckLight, TruckBase, model.Cents(-200))
	default:
		return breakdown(model.KindDeliveryTruck, RuleTruckStandard, TruckBase, 0)
	}
}

// compareScaled compares a*x with b*y using 128-bit products.
func compareScaled(a, x, b, y uint64) int {
	xh, xl := bits.Mul64(a, x)
	yh, yl := bits.Mul64(b, y)
	switch {
	case xh != yh:
		if xh < yh {
			return -1
		}
		return 1
	case xl < yl:
		return -1
	case xl > yl:
		return 1
	default:
		return 0
	}
}
