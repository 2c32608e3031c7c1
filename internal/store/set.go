package store

// Set bundles the stores owned by one gateway session.
type Set struct {
	MarketData *MarketData
	Orders     *Orders
	Positions  *Positions
	Portfolio  *Portfolio
	Account    *Account
	History    *History
	Session    *Session
}

// NewSet creates empty stores. accountKeys overrides the account allow-list.
func NewSet(accountKeys ...string) *Set {
	return &Set{
		MarketData: NewMarketData(),
		Orders:     NewOrders(),
		Positions:  NewPositions(),
		Portfolio:  NewPortfolio(),
		Account:    NewAccount(accountKeys...),
		History:    NewHistory(),
		Session:    NewSession(),
	}
}
