package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementAttribute   = "equipment_attribute"
	measurementEnergyUsage = "energy_usage"
	measurementWaterUsage  = "water_usage"
)

// WriteAttributeMetric records the numeric value of one equipment
// capability after it changed.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceName, serialNumber: the entity key
//   - kind: equipment kind (e.g. "WH")
//   - attribute: capability key (e.g. "@SETPOINT")
//   - value: the new value
//
// Example:
//
//	client.WriteAttributeMetric("WH-1", "S-1", "WH", "@SETPOINT", 125)
func (c *Client) WriteAttributeMetric(deviceName, serialNumber, kind, attribute string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurementAttribute,
		map[string]string{
			"device_name":   deviceName,
			"serial_number": serialNumber,
			"kind":          kind,
			"attribute":     attribute,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEnergyUsage records a water heater's energy usage for the current
// report window.
//
// Parameters:
//   - deviceName, serialNumber: the entity key
//   - unit: the reported energy unit (e.g. "KWH", "KBTU")
//   - total: usage summed over the window
func (c *Client) WriteEnergyUsage(deviceName, serialNumber, unit string, total float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurementEnergyUsage,
		map[string]string{
			"device_name":   deviceName,
			"serial_number": serialNumber,
			"unit":          unit,
		},
		map[string]interface{}{
			"total": total,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteWaterUsage records a water heater's water usage for today.
func (c *Client) WriteWaterUsage(deviceName, serialNumber string, total float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurementWaterUsage,
		map[string]string{
			"device_name":   deviceName,
			"serial_number": serialNumber,
		},
		map[string]interface{}{
			"total": total,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
