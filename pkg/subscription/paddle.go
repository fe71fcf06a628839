package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle payment processor.
type PaddleConfig struct {
	APIKey      string `env:"PADDLE_API_KEY,required"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`

	// ChargePriceID is the catalog price used for engine-computed charges
	// (prorations, seat changes). The computed amount and description ride
	// along as transaction custom data for invoice reconciliation.
	ChargePriceID string `env:"PADDLE_CHARGE_PRICE_ID,required"`
}

// PaddleProcessor implements PaymentProcessor on top of Paddle one-off
// transactions.
type PaddleProcessor struct {
	client *paddle.SDK
	config PaddleConfig
}

// NewPaddleProcessor creates a Paddle-backed payment processor.
func NewPaddleProcessor(config PaddleConfig) (*PaddleProcessor, error) {
	if config.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if config.ChargePriceID == "" {
		return nil, errors.New("paddle charge price ID is required")
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProcessor{client: client, config: config}, nil
}

// ChargeNow creates an immediate transaction against the company's stored
// payment method. A declined transaction is a failed charge, not an error:
// the caller distinguishes the two through ChargeResult.Status.
func (p *PaddleProcessor) ChargeNow(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  p.config.ChargePriceID,
		Quantity: 1,
	})

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"company_id":  req.CompanyID.String(),
			"description": req.Description,
			"amount":      req.Amount.StringFixed(2),
			"currency":    req.Currency,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	result := &ChargeResult{
		TransactionID: transaction.ID,
		Status:        ChargeCompleted,
	}
	if string(transaction.Status) == "declined" {
		result.Status = ChargeDeclined
	}
	return result, nil
}

// CreateProrationItem records a prorated line on the company's next invoice
// as a draft transaction that Paddle folds into the upcoming billing run.
func (p *PaddleProcessor) CreateProrationItem(ctx context.Context, item ProrationItem) error {
	txnItem := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  p.config.ChargePriceID,
		Quantity: 1,
	})

	_, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*txnItem},
		CustomData: paddle.CustomData{
			"company_id":   item.CompanyID.String(),
			"description":  item.Description,
			"amount":       item.Amount.StringFixed(2),
			"currency":     item.Currency,
			"period_start": item.PeriodStart.Format("2006-01-02"),
			"period_end":   item.PeriodEnd.Format("2006-01-02"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create paddle proration item: %w", err)
	}
	return nil
}

var _ PaymentProcessor = (*PaddleProcessor)(nil)
