package crypto

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// EIP712Domain represents the domain separator for EIP-712 typed data
// This prevents replay attacks across different chains/deployments
type EIP712Domain struct {
	Name              string         // Protocol name (e.g., "CurioMatch")
	Version           string         // Protocol version (e.g., "1")
	ChainID           *big.Int       // Chain ID (1337 for local, 1 for mainnet)
	VerifyingContract common.Address // Settlement contract address (or zero for off-chain)
}

// Order712 represents an exchange order for EIP-712 signing
// This is the typed data structure makers sign in their wallets
type Order712 struct {
	IsBuySide        bool           // true = offers payment for the asset
	IsAuction        bool           // true = settled by the seller against a won bid
	Maker            common.Address // Order author; must equal the recovered signer
	PaymentToken     common.Address // Zero address = native currency
	Value            *big.Int       // Payment amount / asked price
	RoyaltyRecipient common.Address // Creator royalty payee
	Royalty          *big.Int       // Royalty in basis points (0-10000)
	Target           common.Address // Collectible registry the order concerns
	TokenID          *big.Int       // Specific collectible within the registry
	Start            *big.Int       // Validity window start (Unix seconds), 0 = unbounded
	End              *big.Int       // Validity window end (Unix seconds), 0 = unbounded
	Salt             *big.Int       // Disambiguates otherwise-identical orders
}

// orderTypes is the EIP-712 type table shared by hashing and wallet JSON export.
var orderTypes = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": []apitypes.Type{
		{Name: "isBuySide", Type: "bool"},
		{Name: "isAuction", Type: "bool"},
		{Name: "maker", Type: "address"},
		{Name: "paymentToken", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "royaltyRecipient", Type: "address"},
		{Name: "royalty", Type: "uint256"},
		{Name: "target", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "start", Type: "uint256"},
		{Name: "end", Type: "uint256"},
		{Name: "salt", Type: "uint256"},
	},
}

// OrderCodec computes canonical EIP-712 digests for orders under one domain
type OrderCodec struct {
	domain EIP712Domain
}

// NewOrderCodec creates an order codec bound to the given domain
func NewOrderCodec(domain EIP712Domain) *OrderCodec {
	return &OrderCodec{domain: domain}
}

// DefaultDomain returns the default EIP-712 domain for CurioMatch
func DefaultDomain() EIP712Domain {
	return EIP712Domain{
		Name:              "CurioMatch",
		Version:           "1",
		ChainID:           big.NewInt(1337), // Local dev chain
		VerifyingContract: common.Address{}, // Zero address for off-chain signing
	}
}

func (c *OrderCodec) message(order *Order712) apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"isBuySide":        order.IsBuySide,
		"isAuction":        order.IsAuction,
		"maker":            order.Maker.Hex(),
		"paymentToken":     order.PaymentToken.Hex(),
		"value":            order.Value.String(),
		"royaltyRecipient": order.RoyaltyRecipient.Hex(),
		"royalty":          order.Royalty.String(),
		"target":           order.Target.Hex(),
		"tokenId":          order.TokenID.String(),
		"start":            order.Start.String(),
		"end":              order.End.String(),
		"salt":             order.Salt.String(),
	}
}

// HashOrder hashes an order according to the EIP-712 spec
// Returns the 32-byte digest that should be signed
func (c *OrderCodec) HashOrder(order *Order712) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              c.domain.Name,
			Version:           c.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(c.domain.ChainID),
			VerifyingContract: c.domain.VerifyingContract.Hex(),
		},
		Message: c.message(order),
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	// Final digest: keccak256("\x19\x01" || domainSeparator || typedDataHash)
	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	digest := crypto.Keccak256Hash(rawData)

	return digest.Bytes(), nil
}

// SignOrder signs an order and returns the 65-byte signature
func (c *OrderCodec) SignOrder(signer *Signer, order *Order712) ([]byte, error) {
	hash, err := c.HashOrder(order)
	if err != nil {
		return nil, fmt.Errorf("failed to hash order: %w", err)
	}

	signature, err := signer.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order: %w", err)
	}

	return signature, nil
}

// VerifyOrderSignature verifies that an order signature is valid
// Returns true if the signature matches the order and the declared maker
func (c *OrderCodec) VerifyOrderSignature(order *Order712, signature []byte) (bool, error) {
	hash, err := c.HashOrder(order)
	if err != nil {
		return false, fmt.Errorf("failed to hash order: %w", err)
	}

	recoveredAddr, err := RecoverAddress(hash, signature)
	if err != nil {
		return false, fmt.Errorf("failed to recover address: %w", err)
	}

	return recoveredAddr == order.Maker, nil
}

// RecoverOrderSigner recovers the address that signed an order
// Useful for extracting the maker from a signature without prior knowledge
func (c *OrderCodec) RecoverOrderSigner(order *Order712, signature []byte) (common.Address, error) {
	hash, err := c.HashOrder(order)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash order: %w", err)
	}

	return RecoverAddress(hash, signature)
}

// OrderToJSON converts an order to JSON for frontend/wallet signing
// MetaMask and other wallets use this format for eth_signTypedData_v4
func (c *OrderCodec) OrderToJSON(order *Order712) (string, error) {
	typedData := map[string]interface{}{
		"types":       orderTypes,
		"primaryType": "Order",
		"domain": map[string]interface{}{
			"name":              c.domain.Name,
			"version":           c.domain.Version,
			"chainId":           c.domain.ChainID.String(),
			"verifyingContract": c.domain.VerifyingContract.Hex(),
		},
		"message": map[string]interface{}{
			"isBuySide":        order.IsBuySide,
			"isAuction":        order.IsAuction,
			"maker":            order.Maker.Hex(),
			"paymentToken":     order.PaymentToken.Hex(),
			"value":            order.Value.String(),
			"royaltyRecipient": order.RoyaltyRecipient.Hex(),
			"royalty":          order.Royalty.String(),
			"target":           order.Target.Hex(),
			"tokenId":          order.TokenID.String(),
			"start":            order.Start.String(),
			"end":              order.End.String(),
			"salt":             order.Salt.String(),
		},
	}

	jsonBytes, err := json.MarshalIndent(typedData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(jsonBytes), nil
}
