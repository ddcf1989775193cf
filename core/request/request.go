// Package request converts untyped toll requests (JSON or YAML documents,
// HTTP bodies, MQTT payloads, CLI flags) into model.Vehicle values. Anything
// that cannot be mapped onto one of the four categories is rejected with
// toll.ErrUnrecognizedVehicleType before it reaches the evaluator.
package request

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/tolltag/core/factory"
	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/toll"
)

// Request is the external, untyped description of a vehicle.
type Request struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

var decoders = factory.NewRegistry[model.Vehicle]()

func init() {
	_ = decoders.Register(model.KindCar.String(), decodeInto[model.Car])
	_ = decoders.Register(model.KindTaxi.String(), decodeInto[model.Taxi])
	_ = decoders.Register(model.KindBus.String(), decodeInto[model.Bus])
	_ = decoders.Register(model.KindDeliveryTruck.String(), decodeInto[model.DeliveryTruck])
}

func decodeInto[V model.Vehicle](attrs map[string]any) (model.Vehicle, error) {
	var v V
	if len(attrs) == 0 {
		return v, nil
	}
	if err := factory.DecodeStrict(attrs, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Types returns the accepted vehicle type names.
func Types() []string { return decoders.Names() }

// Decode maps req onto a vehicle. A nil request yields toll.ErrNullVehicle;
// an unknown type or malformed attributes yield toll.ErrUnrecognizedVehicleType.
func Decode(req *Request) (model.Vehicle, error) {
	if req == nil {
		return nil, toll.ErrNullVehicle
	}
	typ := normalizeType(req.Type)
	if typ == "" {
		return nil, fmt.Errorf("%w: missing type", toll.ErrUnrecognizedVehicleType)
	}
	v, err := decoders.Create(factory.ModuleConfig{Type: typ, Conf: req.Attributes})
	if err != nil {
		if errors.Is(err, factory.ErrUnknownType) {
			return nil, fmt.Errorf("%w: %q", toll.ErrUnrecognizedVehicleType, req.Type)
		}
		return nil, fmt.Errorf("%w: %s: %v", toll.ErrUnrecognizedVehicleType, typ, err)
	}
	return v, nil
}

// normalizeType accepts "DeliveryTruck", "delivery-truck" and "delivery_truck".
func normalizeType(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse reads one or more requests from a document. format is "json" or
// "yaml" ("yml" is accepted). The document is either a single vehicle with
// its attributes at the top level:
//
//	type: bus
//	capacity: 90
//	riders: 15
//
// or a list under "vehicles". An empty document yields toll.ErrNullVehicle.
func Parse(data []byte, format string) ([]*Request, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, toll.ErrNullVehicle
	}
	var parser koanf.Parser
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		parser = json.Parser()
	case "yaml", "yml":
		parser = yaml.Parser()
	default:
		return nil, fmt.Errorf("unsupported request format: %s", format)
	}
	raw, err := parser.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	if raw == nil {
		return nil, toll.ErrNullVehicle
	}
	if list, ok := raw["vehicles"]; ok {
		items, ok := list.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: vehicles must be a list", toll.ErrUnrecognizedVehicleType)
		}
		reqs := make([]*Request, 0, len(items))
		for i, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: vehicles[%d] is not an object", toll.ErrUnrecognizedVehicleType, i)
			}
			reqs = append(reqs, FromMap(m))
		}
		return reqs, nil
	}
	return []*Request{FromMap(raw)}, nil
}

// FromMap builds a Request from a flat map holding "type" and the attributes.
// A nested "attributes" object is merged in as well.
func FromMap(m map[string]any) *Request {
	req := &Request{Attributes: map[string]any{}}
	for k, v := range m {
		switch k {
		case "type":
			req.Type = fmt.Sprint(v)
		case "attributes":
			if nested, ok := v.(map[string]any); ok {
				for nk, nv := range nested {
					req.Attributes[nk] = nv
				}
			} else {
				req.Attributes[k] = v
			}
		default:
			req.Attributes[k] = v
		}
	}
	return req
}
