package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tolltag/core/request"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/infra/logger"
	"github.com/kilianp07/tolltag/pkg/export"
)

type quoteOptions struct {
	vehicleType string
	passengers  uint
	fares       uint
	capacity    uint
	riders      uint
	weight      uint
	file        string
	format      string
	output      string
}

// attribute flags and the vehicle field each one sets
var attributeFlags = map[string]string{
	"passengers": "passengers",
	"fares":      "fares",
	"capacity":   "capacity",
	"riders":     "riders",
	"weight":     "gross_weight_class",
}

func newQuoteCmd() *cobra.Command {
	var o quoteOptions
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a vehicle given by flags or a request file",
		Example: `  tolltag quote --type bus --capacity 90 --riders 15
  tolltag quote --file vehicles.yaml --output csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(export.Formats, o.output) {
				return fmt.Errorf("unsupported output format: %s", o.output)
			}
			reqs, err := o.requests(cmd)
			if err != nil {
				return err
			}
			svc := toll.NewService(logger.New("quote"), nil)
			quotes := make([]toll.Quote, 0, len(reqs))
			for _, req := range reqs {
				q, err := quoteOne(cmd.Context(), svc, req)
				if err != nil {
					return err
				}
				quotes = append(quotes, q)
			}
			return export.Write(cmd.OutOrStdout(), o.output, quotes)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.vehicleType, "type", "t", "", "vehicle type: "+strings.Join(request.Types(), ", "))
	f.UintVar(&o.passengers, "passengers", 0, "car passengers, excluding the driver")
	f.UintVar(&o.fares, "fares", 0, "taxi fares")
	f.UintVar(&o.capacity, "capacity", 0, "bus capacity")
	f.UintVar(&o.riders, "riders", 0, "bus riders")
	f.UintVar(&o.weight, "weight", 0, "delivery truck gross weight class in pounds")
	f.StringVarP(&o.file, "file", "f", "", "yaml or json request file holding one vehicle or a vehicles list")
	f.StringVar(&o.format, "format", "", "request file format (default: from the file extension)")
	f.StringVarP(&o.output, "output", "o", "text", "output format: "+strings.Join(export.Formats, ", "))
	cmd.MarkFlagsMutuallyExclusive("type", "file")
	cmd.MarkFlagsOneRequired("type", "file")
	return cmd
}

func (o *quoteOptions) requests(cmd *cobra.Command) ([]*request.Request, error) {
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, fmt.Errorf("read request file: %w", err)
		}
		format := o.format
		if format == "" {
			format = filepath.Ext(o.file)
		}
		return request.Parse(data, format)
	}
	values := map[string]uint{
		"passengers": o.passengers,
		"fares":      o.fares,
		"capacity":   o.capacity,
		"riders":     o.riders,
		"weight":     o.weight,
	}
	req := &request.Request{Type: o.vehicleType, Attributes: map[string]any{}}
	for flag, field := range attributeFlags {
		if cmd.Flags().Changed(flag) {
			req.Attributes[field] = values[flag]
		}
	}
	return []*request.Request{req}, nil
}

func quoteOne(ctx context.Context, svc *toll.Service, req *request.Request) (toll.Quote, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	v, err := request.Decode(req)
	if err != nil {
		return toll.Quote{}, fmt.Errorf("vehicle %q: %w", req.Type, err)
	}
	return svc.Quote(ctx, "cli", v)
}
