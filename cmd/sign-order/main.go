// Command sign-order authors a complementary buy/sell order pair for one
// collectible, signs both sides (EIP-712) plus the buyer's match-request
// digest, and prints the ready-to-POST /api/v1/match payload.
package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	ethCrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/jwpark-dev/curiomatch/pkg/api"
	"github.com/jwpark-dev/curiomatch/pkg/crypto"
	"github.com/jwpark-dev/curiomatch/pkg/exchange"
)

func main() {
	// Step 1: Generate keypairs for both sides
	fmt.Println("Generating keypairs...")
	seller, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	buyer, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seller: %s\n", seller.Address().Hex())
	fmt.Printf("Seller Key: %s (KEEP SECRET!)\n", seller.PrivateKeyHex())
	fmt.Printf("Buyer:  %s\n", buyer.Address().Hex())
	fmt.Printf("Buyer Key:  %s (KEEP SECRET!)\n\n", buyer.PrivateKeyHex())

	// Step 2: Author the pair
	collection := common.HexToAddress("0x00000000000000000000000000000000c0011ec7")
	price := big.NewInt(1_000_000)

	sellSalt, _ := crypto.GenerateSalt()
	sellOrder := &exchange.Order{
		IsBuySide:        false,
		Maker:            seller.Address(),
		PaymentToken:     common.Address{}, // native
		Value:            price,
		RoyaltyRecipient: seller.Address(),
		Royalty:          big.NewInt(500), // 5%
		Target:           collection,
		TokenID:          big.NewInt(1),
		Start:            big.NewInt(0),
		End:              big.NewInt(0),
		Salt:             sellSalt,
	}

	buySalt, _ := crypto.GenerateSalt()
	buyOrder := &exchange.Order{
		IsBuySide:        true,
		Maker:            buyer.Address(),
		PaymentToken:     common.Address{},
		Value:            price,
		RoyaltyRecipient: sellOrder.RoyaltyRecipient,
		Royalty:          sellOrder.Royalty,
		Target:           collection,
		TokenID:          big.NewInt(1),
		Start:            big.NewInt(0),
		End:              big.NewInt(0),
		Salt:             buySalt,
	}

	fmt.Println("Pair Details:")
	fmt.Printf("  Collection: %s\n", collection.Hex())
	fmt.Printf("  Token ID: %s\n", sellOrder.TokenID)
	fmt.Printf("  Price: %s (native)\n", price)
	fmt.Printf("  Royalty: %s bps -> %s\n\n", sellOrder.Royalty, sellOrder.RoyaltyRecipient.Hex())

	// Step 3: Sign both orders with EIP-712
	codec := crypto.NewOrderCodec(crypto.DefaultDomain())
	sellSig, err := codec.SignOrder(seller, sellOrder.Typed())
	if err != nil {
		fmt.Printf("Error signing sell order: %v\n", err)
		os.Exit(1)
	}
	buySig, err := codec.SignOrder(buyer, buyOrder.Typed())
	if err != nil {
		fmt.Printf("Error signing buy order: %v\n", err)
		os.Exit(1)
	}

	buyHash, _ := codec.HashOrder(buyOrder.Typed())
	sellHash, _ := codec.HashOrder(sellOrder.Typed())

	// Step 4: Sign the match-request digest as the buyer (fixed-price pairs
	// are executed by the buy side)
	digest := fmt.Sprintf("MATCH:%s:%s:%s",
		common.BytesToHash(buyHash).Hex(),
		common.BytesToHash(sellHash).Hex(),
		buyer.Address().Hex())
	callerSig, err := buyer.Sign(ethCrypto.Keccak256([]byte(digest)))
	if err != nil {
		fmt.Printf("Error signing request: %v\n", err)
		os.Exit(1)
	}

	// Step 5: Assemble and print the match request
	request := &api.MatchRequest{
		BuyOrder:        exchange.FromOrder(buyOrder),
		BuySignature:    fmt.Sprintf("0x%x", buySig),
		SellOrder:       exchange.FromOrder(sellOrder),
		SellSignature:   fmt.Sprintf("0x%x", sellSig),
		AttachedPayment: price.String(),
		Caller:          buyer.Address().Hex(),
		CallerSignature: fmt.Sprintf("0x%x", callerSig),
	}

	reqJSON, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Match Request (POST /api/v1/match):")
	fmt.Println(string(reqJSON))
	fmt.Println()

	// Step 6: Verify both signatures before handing the payload out
	fmt.Println("Verifying signatures...")
	for _, check := range []struct {
		name  string
		order *exchange.Order
		sig   []byte
	}{
		{"sell", sellOrder, sellSig},
		{"buy", buyOrder, buySig},
	} {
		valid, err := codec.VerifyOrderSignature(check.order.Typed(), check.sig)
		if err != nil || !valid {
			fmt.Printf("  %s order signature INVALID (err=%v)\n", check.name, err)
			os.Exit(1)
		}
		fmt.Printf("  %s order signature ok\n", check.name)
	}
}
