package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OrderPayload is the wire shape of an order: big integers as decimal strings,
// addresses as 0x-hex. Used by the REST API and the sign-order tool.
type OrderPayload struct {
	IsBuySide        bool   `json:"isBuySide"`
	IsAuction        bool   `json:"isAuction"`
	Maker            string `json:"maker"`
	PaymentToken     string `json:"paymentToken"` // "" or zero address = native
	Value            string `json:"value"`
	RoyaltyRecipient string `json:"royaltyRecipient"`
	Royalty          string `json:"royalty"`
	Target           string `json:"target"`
	TokenID          string `json:"tokenId"`
	Start            string `json:"start"`
	End              string `json:"end"`
	Salt             string `json:"salt"`
}

func parseBig(field, s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", field, s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative %s: %s", field, s)
	}
	return v, nil
}

// ToOrder parses the payload into an engine order
func (p *OrderPayload) ToOrder() (*Order, error) {
	value, err := parseBig("value", p.Value)
	if err != nil {
		return nil, err
	}
	royalty, err := parseBig("royalty", p.Royalty)
	if err != nil {
		return nil, err
	}
	tokenID, err := parseBig("tokenId", p.TokenID)
	if err != nil {
		return nil, err
	}
	start, err := parseBig("start", p.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseBig("end", p.End)
	if err != nil {
		return nil, err
	}
	salt, err := parseBig("salt", p.Salt)
	if err != nil {
		return nil, err
	}

	if p.Maker == "" {
		return nil, fmt.Errorf("missing maker")
	}
	if p.Target == "" {
		return nil, fmt.Errorf("missing target")
	}

	return &Order{
		IsBuySide:        p.IsBuySide,
		IsAuction:        p.IsAuction,
		Maker:            common.HexToAddress(p.Maker),
		PaymentToken:     common.HexToAddress(p.PaymentToken),
		Value:            value,
		RoyaltyRecipient: common.HexToAddress(p.RoyaltyRecipient),
		Royalty:          royalty,
		Target:           common.HexToAddress(p.Target),
		TokenID:          tokenID,
		Start:            start,
		End:              end,
		Salt:             salt,
	}, nil
}

// FromOrder converts an engine order to its wire shape
func FromOrder(o *Order) *OrderPayload {
	return &OrderPayload{
		IsBuySide:        o.IsBuySide,
		IsAuction:        o.IsAuction,
		Maker:            o.Maker.Hex(),
		PaymentToken:     o.PaymentToken.Hex(),
		Value:            o.Value.String(),
		RoyaltyRecipient: o.RoyaltyRecipient.Hex(),
		Royalty:          o.Royalty.String(),
		Target:           o.Target.Hex(),
		TokenID:          o.TokenID.String(),
		Start:            o.Start.String(),
		End:              o.End.String(),
		Salt:             o.Salt.String(),
	}
}
