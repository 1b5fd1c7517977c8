package copier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/alanyoungcy/whalecopybot/internal/crypto"
	"github.com/alanyoungcy/whalecopybot/internal/domain"
	"github.com/alanyoungcy/whalecopybot/internal/platform/polymarket"
)

// usdcDecimals is the scaling factor for on-chain USDC and outcome-token
// amounts (6 decimal places).
const usdcDecimals = 1_000_000

// ClobGateway is the live OrderGateway. It prices each order against the
// current book and submits a signed fill-or-kill order to the CLOB.
type ClobGateway struct {
	client        *polymarket.ClobClient
	signer        *crypto.Signer
	funder        string
	signatureType int
	log           *slog.Logger
}

// NewClobGateway creates the live gateway. funder is the address that holds
// the collateral: the Safe address for proxy wallets, or the EOA itself.
func NewClobGateway(client *polymarket.ClobClient, signer *crypto.Signer, funder string, signatureType int, log *slog.Logger) *ClobGateway {
	if funder == "" {
		funder = signer.Address().Hex()
	}
	return &ClobGateway{
		client:        client,
		signer:        signer,
		funder:        funder,
		signatureType: signatureType,
		log:           log.With("component", "gateway", "mode", "live"),
	}
}

// Initialize derives the HMAC API credentials needed for order submission.
// Preconfigured credentials are kept as-is.
func (g *ClobGateway) Initialize(ctx context.Context) error {
	if g.client.HasCredentials() {
		g.log.Info("using configured api credentials")
		return nil
	}
	if err := g.client.DeriveAPIKey(ctx); err != nil {
		return fmt.Errorf("copier: initialize gateway: %w", err)
	}
	g.log.Info("api credentials derived", "address", g.signer.Address().Hex())
	return nil
}

// Buy spends amountUSD on tokenID at the current ask.
func (g *ClobGateway) Buy(ctx context.Context, tokenID string, amountUSD float64) error {
	price, err := g.client.GetPrice(ctx, tokenID, "buy")
	if err != nil {
		return fmt.Errorf("copier: buy %s: %w", tokenID, err)
	}
	if price <= 0 || price >= 1 {
		return fmt.Errorf("copier: buy %s: %w: price %v out of range", tokenID, domain.ErrInvalidOrder, price)
	}

	// Buying: maker gives USDC, taker side is outcome tokens.
	makerAmount := toUnits(amountUSD)
	takerAmount := toUnits(amountUSD / price)

	result, err := g.submit(ctx, tokenID, domain.OrderBuy, makerAmount, takerAmount, price)
	if err != nil {
		return err
	}
	g.log.Info("buy filled",
		"token_id", tokenID,
		"amount_usd", amountUSD,
		"price", price,
		"order_id", result.OrderID,
		"status", result.Status)
	return nil
}

// Sell disposes of amountUSD worth of tokenID at the current bid.
func (g *ClobGateway) Sell(ctx context.Context, tokenID string, amountUSD float64) error {
	price, err := g.client.GetPrice(ctx, tokenID, "sell")
	if err != nil {
		return fmt.Errorf("copier: sell %s: %w", tokenID, err)
	}
	if price <= 0 || price >= 1 {
		return fmt.Errorf("copier: sell %s: %w: price %v out of range", tokenID, domain.ErrInvalidOrder, price)
	}

	// Selling: maker gives outcome tokens, taker side is USDC.
	makerAmount := toUnits(amountUSD / price)
	takerAmount := toUnits(amountUSD)

	result, err := g.submit(ctx, tokenID, domain.OrderSell, makerAmount, takerAmount, price)
	if err != nil {
		return err
	}
	g.log.Info("sell filled",
		"token_id", tokenID,
		"amount_usd", amountUSD,
		"price", price,
		"order_id", result.OrderID,
		"status", result.Status)
	return nil
}

func (g *ClobGateway) Close() error { return nil }

// submit signs and posts a fill-or-kill order.
func (g *ClobGateway) submit(ctx context.Context, tokenID string, side domain.OrderSide, makerAmount, takerAmount *big.Int, price float64) (domain.OrderResult, error) {
	salt, err := crypto.NewSalt()
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("copier: submit order: %w", err)
	}

	sideInt := 0
	if side == domain.OrderSell {
		sideInt = 1
	}

	// The maker holds the collateral; the signer is always the EOA behind
	// the signature, even when a proxy or Safe funds the order.
	signerAddr := g.signer.Address().Hex()
	payload := crypto.OrderPayload{
		Salt:          salt,
		Maker:         g.funder,
		Signer:        signerAddr,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       tokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          sideInt,
		SignatureType: g.signatureType,
	}

	signature, err := g.signer.SignOrder(payload)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("copier: submit order: %w: %v", domain.ErrSigningFailed, err)
	}

	order := domain.Order{
		TokenID:       tokenID,
		Side:          side,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Price:         price,
		Type:          domain.OrderTypeFOK,
		Salt:          salt,
		Wallet:        g.funder,
		Signer:        signerAddr,
		Signature:     signature,
		SignatureType: g.signatureType,
	}

	result, err := g.client.PostOrder(ctx, order)
	if err != nil {
		return result, fmt.Errorf("copier: submit order: %w", err)
	}
	return result, nil
}

// toUnits converts a float dollar or share amount to 6-decimal integer units.
func toUnits(amount float64) *big.Int {
	return big.NewInt(int64(math.Round(amount * usdcDecimals)))
}
