package model

import "encoding/json"

// Fixed decimal places for display values. JSON renders these fields with
// exactly this many places, trailing zeros included.
const (
	EquityPlaces    int32 = 4 // BTC equity
	USDPlaces       int32 = 2 // USD equity and holding value
	TapeValuePlaces int32 = 4 // BTC tape value
	TPSPlaces       int32 = 1
)

// MarshalJSON renders equity and equityUSD at their fixed places.
func (p AddressProfile) MarshalJSON() ([]byte, error) {
	type plain AddressProfile
	return json.Marshal(struct {
		plain
		Equity    string `json:"equity"`
		EquityUSD string `json:"equityUSD"`
	}{
		plain:     plain(p),
		Equity:    p.Equity.StringFixed(EquityPlaces),
		EquityUSD: p.EquityUSD.StringFixed(USDPlaces),
	})
}

// MarshalJSON renders value at USDPlaces.
func (h TokenHolding) MarshalJSON() ([]byte, error) {
	type plain TokenHolding
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{
		plain: plain(h),
		Value: h.Value.StringFixed(USDPlaces),
	})
}

// MarshalJSON renders value at TapeValuePlaces.
func (e TxEvent) MarshalJSON() ([]byte, error) {
	type plain TxEvent
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{
		plain: plain(e),
		Value: e.Value.StringFixed(TapeValuePlaces),
	})
}

// MarshalJSON renders tps at TPSPlaces.
func (n NetworkStats) MarshalJSON() ([]byte, error) {
	type plain NetworkStats
	return json.Marshal(struct {
		plain
		TPS string `json:"tps"`
	}{
		plain: plain(n),
		TPS:   n.TPS.StringFixed(TPSPlaces),
	})
}
