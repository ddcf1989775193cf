package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient is a small helper around the official InfluxDB v2 client
// used by the E2E tests. It onboards a fresh instance and reads back the
// points written by the toll sinks.
type InfluxClient struct {
	url    string
	org    string
	bucket string
	token  string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient creates a new client for the given parameters. It assumes
// the server is already running and reachable.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		url:    url,
		org:    org,
		bucket: bucket,
		token:  token,
		client: c,
		query:  c.QueryAPI(org),
	}
}

// Onboard runs the initial setup of a fresh InfluxDB instance, creating the
// organisation, the bucket and an operator token equal to the client token.
func (c *InfluxClient) Onboard(ctx context.Context) error {
	if _, err := c.client.SetupWithToken(ctx, "e2e", "e2e-password", c.org, c.bucket, 0, c.token); err != nil {
		return fmt.Errorf("onboard influx: %w", err)
	}
	return nil
}

// SumField sums field over the measurement points written in the last hour.
func (c *InfluxClient) SumField(ctx context.Context, measurement, field string) (int64, int, error) {
	flux := fmt.Sprintf(`from(bucket:%q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q)`, c.bucket, measurement, field)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, 0, err
	}
	defer res.Close()
	var sum int64
	count := 0
	for res.Next() {
		if v, ok := res.Record().Value().(int64); ok {
			sum += v
		}
		count++
	}
	return sum, count, res.Err()
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
