package feed

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/midl-pulse/internal/entropy"
	"github.com/rickgao/midl-pulse/internal/model"
)

const (
	hashLength    = 13
	addressSuffix = 4
	addressPrefix = "bc1p..."
	maxValueBTC   = 2.5
)

// NewEvent generates one synthetic transaction drawn from src.
func NewEvent(src entropy.Source, seq uint64, at time.Time) model.TxEvent {
	return model.TxEvent{
		Seq:    seq,
		Hash:   entropy.Base36(src, hashLength),
		Type:   model.TxTypes[src.IntN(len(model.TxTypes))],
		Value:  decimal.NewFromFloat(src.Float64() * maxValueBTC).Round(model.TapeValuePlaces),
		Method: model.TxMethods[src.IntN(len(model.TxMethods))],
		Time:   at,
		From:   addressPrefix + entropy.Base36(src, addressSuffix),
		To:     addressPrefix + entropy.Base36(src, addressSuffix),
	}
}
