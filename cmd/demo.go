package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/toll"
)

type sample struct {
	label   string
	vehicle model.Vehicle
}

var (
	basicSamples = []sample{
		{"a car", model.Car{}},
		{"a taxi", model.Taxi{}},
		{"a bus", model.Bus{}},
		{"a truck", model.DeliveryTruck{}},
	}
	occupancySamples = []sample{
		{"a solo driver", model.Car{}},
		{"a two ride share", model.Car{Passengers: 1}},
		{"a three ride share", model.Car{Passengers: 2}},
		{"a full van", model.Car{Passengers: 5}},
		{"an empty taxi", model.Taxi{}},
		{"a single fare taxi", model.Taxi{Fares: 1}},
		{"a double fare taxi", model.Taxi{Fares: 2}},
		{"a full van taxi", model.Taxi{Fares: 5}},
		{"a low-occupant bus", model.Bus{Capacity: 90, Riders: 15}},
		{"a regular bus", model.Bus{Capacity: 90, Riders: 75}},
		{"a bus", model.Bus{Capacity: 90, Riders: 85}},
		{"a truck", model.DeliveryTruck{GrossWeightClass: 7500}},
		{"a truck", model.DeliveryTruck{GrossWeightClass: 4000}},
		{"a truck", model.DeliveryTruck{GrossWeightClass: 2500}},
	}
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Price the sample vehicles and the two rejected inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}
}

func runDemo(w io.Writer) error {
	fmt.Fprintln(w, "Welcome to TollTag, Dallas' Premier Toll System")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Part 1:")
	if err := printSamples(w, basicSamples); err != nil {
		return err
	}
	fmt.Fprintln(w, "-------")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Part 2:")
	return printSamples(w, occupancySamples)
}

func printSamples(w io.Writer, samples []sample) error {
	for _, s := range samples {
		amount, err := toll.Calculate(s.vehicle)
		if err != nil {
			return fmt.Errorf("%s: %w", s.label, err)
		}
		fmt.Fprintf(w, "The toll for %s is %s\n", s.label, amount)
	}
	if _, err := toll.CalculateAny("this will fail"); !errors.Is(err, toll.ErrUnrecognizedVehicleType) {
		return fmt.Errorf("wrong type accepted: %v", err)
	}
	fmt.Fprintln(w, "Caught an unrecognized vehicle type error when using the wrong type")
	if _, err := toll.CalculateAny(nil); !errors.Is(err, toll.ErrNullVehicle) {
		return fmt.Errorf("null vehicle accepted: %v", err)
	}
	fmt.Fprintln(w, "Caught a null vehicle error when using null")
	return nil
}
