package domain

import "math/big"

// OrderSide is the exchange-level order direction.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// OrderType controls how the CLOB treats an order. Mirrored trades are
// always FOK: either the whole notional fills immediately or nothing does.
type OrderType string

const OrderTypeFOK OrderType = "FOK"

// Order is a signed CLOB order ready for submission. Amounts are in the
// exchange's 6-decimal fixed-point representation. Wallet is the funding
// (maker) address; Signer is the EOA that produced the signature. For plain
// EOA wallets the two are the same address.
type Order struct {
	TokenID       string
	Side          OrderSide
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Price         float64
	Type          OrderType
	Salt          string
	Wallet        string
	Signer        string
	Signature     string
	SignatureType int
}

// OrderResult is the CLOB's response to an order submission.
type OrderResult struct {
	Success bool
	OrderID string
	Status  string
	Message string
}
