package toll

import "errors"

var (
	// ErrNullVehicle is returned when no vehicle was supplied.
	ErrNullVehicle = errors.New("vehicle must not be null")
	// ErrUnrecognizedVehicleType is returned for input that is not one of the
	// known vehicle categories.
	ErrUnrecognizedVehicleType = errors.New("not a known vehicle type")
)

// ErrorKind returns a short label for a toll error, suitable for metrics and
// wire payloads. It returns "" for nil and "internal" for unrelated errors.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNullVehicle):
		return "null_vehicle"
	case errors.Is(err, ErrUnrecognizedVehicleType):
		return "unrecognized_vehicle_type"
	default:
		return "internal"
	}
}
