// Package credits talks to the AutoVid credit service that meters renders
// and exports.
package credits

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Action names a billable operation as the credit service knows it.
type Action string

const (
	ActionRenderVideo       Action = "render_video"
	ActionExportHighQuality Action = "export_high_quality"
)

// Credit kinds. S-CRD is the free allowance, E-CRD the paid one.
const (
	KindStandard = "S-CRD"
	KindExtra    = "E-CRD"
)

// Cost is what one unit of an action charges, per credit kind.
type Cost struct {
	Standard int
	Extra    int
}

var costs = map[Action]Cost{
	ActionRenderVideo:       {Standard: 2},
	ActionExportHighQuality: {Extra: 1},
}

// CostOf returns the per-unit cost of action and whether it is known.
func CostOf(action Action) (Cost, bool) {
	c, ok := costs[action]
	return c, ok
}

// Plus returns the cost of c and o together.
func (c Cost) Plus(o Cost) Cost {
	return Cost{Standard: c.Standard + o.Standard, Extra: c.Extra + o.Extra}
}

func (c Cost) String() string {
	return fmt.Sprintf("%d %s + %d %s", c.Standard, KindStandard, c.Extra, KindExtra)
}

// CostOfAll sums the per-unit cost of actions. It fails on an action the
// price list does not know.
func CostOfAll(actions ...Action) (Cost, error) {
	var total Cost
	for _, a := range actions {
		c, ok := CostOf(a)
		if !ok {
			return Cost{}, fmt.Errorf("no price for action %q", a)
		}
		total = total.Plus(c)
	}
	return total, nil
}

type Balance struct {
	Standard int `json:"S-CRD"`
	Extra    int `json:"E-CRD"`
	Total    int `json:"total"`
}

// Covers reports whether b holds enough of each credit kind to pay c.
// Kinds are not interchangeable.
func (b *Balance) Covers(c Cost) bool {
	return b.Standard >= c.Standard && b.Extra >= c.Extra
}

type SpendRequest struct {
	UserID   string         `json:"userId"`
	Action   Action         `json:"action"`
	Quantity int            `json:"quantity"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Transaction struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Type        string `json:"type"`
	Amount      int    `json:"amount"`
	CreditType  string `json:"creditType"`
	Description string `json:"description"`
	Balance     int    `json:"balance"`
}

type SpendResult struct {
	Transaction      Transaction `json:"transaction"`
	RemainingBalance int         `json:"remainingBalance"`
}

type Client interface {
	Balance(ctx context.Context, userID string) (*Balance, error)
	Spend(ctx context.Context, req SpendRequest) (*SpendResult, error)
}

// stubAllowance is the balance StubClient reports in each credit kind.
const stubAllowance = 1_000_000

// StubClient approves every charge. It is used when no credit service URL is
// configured.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) Balance(ctx context.Context, userID string) (*Balance, error) {
	c.logger.Info("credits stub: balance requested", "user_id", userID)
	return &Balance{Standard: stubAllowance, Extra: stubAllowance, Total: 2 * stubAllowance}, nil
}

func (c *StubClient) Spend(ctx context.Context, req SpendRequest) (*SpendResult, error) {
	c.logger.Info("credits stub: spend approved",
		"user_id", req.UserID,
		"action", req.Action,
		"quantity", req.Quantity,
	)
	return &SpendResult{
		Transaction: Transaction{
			ID:     "stub-" + uuid.NewString(),
			UserID: req.UserID,
			Type:   "spend",
		},
	}, nil
}
