package blockchain

import (
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

// PayoutOpCode tags prize transfer message bodies.
const PayoutOpCode = 0x13370030

type PayoutMessage struct {
	Amount  tlb.Grams
	Address ton.AccountID
	QueryID uint64
}

// Body serializes op code, query id and recipient into a single cell.
func (m PayoutMessage) Body() (*boc.Cell, error) {
	cell := boc.NewCell()

	if err := cell.WriteUint(PayoutOpCode, 32); err != nil {
		return nil, err
	}

	if err := cell.WriteUint(m.QueryID, 64); err != nil {
		return nil, err
	}

	if err := tlb.Marshal(cell, m.Address.ToMsgAddress()); err != nil {
		return nil, err
	}

	return cell, nil
}
