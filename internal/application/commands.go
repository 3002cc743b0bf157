package application

import "github.com/bnema/lumiere-ledger/internal/domain"

type MintCommand struct {
	Specialty string
	Owner     string
	Tenant    domain.TenantID
}

// ListCommand lists a resource for sale. An empty Tenant skips the tenant check.
type ListCommand struct {
	Specialty string
	Seller    string
	Tenant    domain.TenantID
	Price     float64
}

type BuyCommand struct {
	Specialty  string
	Buyer      string
	Tenant     domain.TenantID
	SellerHint string
}

type RentCommand struct {
	Specialty string
	Renter    string
	Tenant    domain.TenantID
	Hours     int
}

type TrainCommand struct {
	Specialty string
	Actor     string
	Signal    int
}

type InteractionCommand struct {
	Specialty string
	Actor     string
	MessageID string
	Question  string
	Answer    string
	Signal    int
}

type RateCommand struct {
	MessageID string
	Specialty string
	Actor     string
	Value     int
}
