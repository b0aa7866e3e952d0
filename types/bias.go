package types

// ---- Sense readings ----

// SenseReading is one averaged sample from a current/voltage sense chip.
type SenseReading struct {
	ShuntMillivolts  float64 `json:"shunt_mv"`
	BusVolts         float64 `json:"bus_v"`
	CurrentMilliamps float64 `json:"current_ma"`
}

// Quantity selects which part of a SenseReading a search converges on.
type Quantity string

const (
	QuantityCurrent Quantity = "current"
	QuantityVoltage Quantity = "voltage"
)

// Of returns the value of q in r.
func (q Quantity) Of(r SenseReading) float64 {
	if q == QuantityVoltage {
		return r.BusVolts
	}
	return r.CurrentMilliamps
}

// Unit is the display unit of q.
func (q Quantity) Unit() string {
	if q == QuantityVoltage {
		return "V"
	}
	return "mA"
}

// ---- Search outcome ----

// SearchResult is the actuator value and measurement where a search stopped.
// Cancelled is set when the operator interrupted the sweep; Value then holds
// the last value written.
type SearchResult struct {
	Value       uint8   `json:"value"`
	Measurement float64 `json:"measurement"`
	Steps       int     `json:"steps"`
	Cancelled   bool    `json:"cancelled,omitempty"`
}

// ---- Station snapshot ----

// StationStatus is a point-in-time view of the session's shadow state.
type StationStatus struct {
	Connected bool      `json:"connected"`
	Card      uint8     `json:"card"`
	Pins      uint16    `json:"pins"`
	Wipers    [][]uint8 `json:"wipers"`
	Sense     []int     `json:"sense"` // initialised bias channels
}
