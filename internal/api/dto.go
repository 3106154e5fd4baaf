package api

import "ajopot/internal/models"

// JSON views of the domain models. The API never exposes password
// hashes or invite codes to non-members.

type userView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type groupView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	OwnerID      string   `json:"owner_id"`
	Contribution float64  `json:"contribution"`
	Interval     string   `json:"interval"`
	MaxMembers   int      `json:"max_members"`
	InviteCode   string   `json:"invite_code,omitempty"`
	Started      bool     `json:"started"`
	Members      []string `json:"members,omitempty"`
	CreatedAt    int64    `json:"created_at"`
}

type roundView struct {
	ID             string   `json:"id"`
	GroupID        string   `json:"group_id"`
	CycleNumber    int      `json:"cycle_number"`
	StartDate      int64    `json:"start_date"`
	MemberOrder    []string `json:"member_order"`
	RecipientID    string   `json:"recipient_id"`
	Completed      bool     `json:"completed"`
	RecipientAcked bool     `json:"recipient_acked"`
}

type paymentView struct {
	ID        string  `json:"id"`
	GroupID   string  `json:"group_id"`
	RoundID   string  `json:"round_id"`
	PayerID   string  `json:"payer_id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	PaidAt    int64   `json:"paid_at,omitempty"`
	ReceiptAt int64   `json:"receipt_at,omitempty"`
}

type walletView struct {
	GroupID   string  `json:"group_id"`
	MemberID  string  `json:"member_id"`
	Balance   float64 `json:"balance"`
	UpdatedAt int64   `json:"updated_at"`
}

type summaryView struct {
	RoundID      string `json:"round_id"`
	CycleNumber  int    `json:"cycle_number"`
	StartDate    int64  `json:"start_date"`
	Completed    bool   `json:"completed"`
	RecipientID  string `json:"recipient_id"`
	TotalPayers  int    `json:"total_payers"`
	PaidCount    int    `json:"paid_count"`
	ReceiptCount int    `json:"receipt_count"`
}

func toUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toGroupView(g *models.Group, members []models.Membership, includeInvite bool) groupView {
	view := groupView{
		ID:           g.ID,
		Name:         g.Name,
		OwnerID:      g.OwnerID,
		Contribution: g.Contribution,
		Interval:     string(g.Interval),
		MaxMembers:   g.MaxMembers,
		Started:      g.Started,
		CreatedAt:    g.CreatedAt,
	}
	if includeInvite {
		view.InviteCode = g.InviteCode
	}
	for _, m := range members {
		view.Members = append(view.Members, m.UserID)
	}
	return view
}

func toRoundView(r *models.Round) roundView {
	return roundView{
		ID:             r.ID,
		GroupID:        r.GroupID,
		CycleNumber:    r.CycleNumber,
		StartDate:      r.StartDate,
		MemberOrder:    r.MemberOrder,
		RecipientID:    r.RecipientID,
		Completed:      r.Completed,
		RecipientAcked: r.RecipientAcked,
	}
}

func toPaymentViews(payments []*models.Payment) []paymentView {
	views := make([]paymentView, len(payments))
	for i, p := range payments {
		views[i] = paymentView{
			ID:        p.ID,
			GroupID:   p.GroupID,
			RoundID:   p.RoundID,
			PayerID:   p.PayerID,
			Amount:    p.Amount,
			Status:    string(p.Status),
			PaidAt:    p.PaidAt,
			ReceiptAt: p.ReceiptAt,
		}
	}
	return views
}

func toWalletViews(wallets []*models.Wallet) []walletView {
	views := make([]walletView, len(wallets))
	for i, w := range wallets {
		views[i] = walletView{
			GroupID:   w.GroupID,
			MemberID:  w.MemberID,
			Balance:   w.Balance,
			UpdatedAt: w.UpdatedAt,
		}
	}
	return views
}
