package expense

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adonis32/expenses-app/internal/common"
	"github.com/adonis32/expenses-app/internal/events"
	"github.com/adonis32/expenses-app/internal/obs"
	"github.com/adonis32/expenses-app/internal/repo"
	"github.com/adonis32/expenses-app/internal/settle"
	"github.com/adonis32/expenses-app/internal/snapshot"
)

// Store defines the persistence operations the expense service needs.
type Store interface {
	InsertExpense(ctx context.Context, listID string, e settle.Expense) (repo.ExpenseRecord, error)
	ListExpenses(ctx context.Context, listID string) ([]repo.ExpenseRecord, error)
	Members(ctx context.Context, listID string) ([]string, error)
}

// Membership gates list-scoped access.
type Membership interface {
	RequireMembership(ctx context.Context, listID, userID string) (repo.List, error)
}

// Service records expenses and computes settlements over them.
type Service struct {
	Store    Store
	Lists    Membership
	Cache    *snapshot.Cache
	Bus      *events.Bus
	Validate *validator.Validate
}

// CreateRequest is the payload for recording an expense. Version 1 splits
// the amount evenly across the list's members; version 2 carries explicit
// fractional shares per participant.
type CreateRequest struct {
	PayerID    string             `json:"payer_id" validate:"omitempty,uuid4"`
	Amount     string             `json:"amount" validate:"required"`
	Version    int                `json:"version" validate:"required,oneof=1 2"`
	Shares     map[string]float64 `json:"shares" validate:"omitempty,dive,keys,uuid4,endkeys,min=0,max=1"`
	RecordedAt *time.Time         `json:"recorded_at" validate:"omitempty"`
}

// Expense is the client-facing expense representation.
type Expense struct {
	ID         string             `json:"id"`
	ListID     string             `json:"list_id"`
	PayerID    string             `json:"payer_id"`
	Amount     settle.Money       `json:"amount"`
	Version    int                `json:"version"`
	Shares     map[string]float64 `json:"shares,omitempty"`
	RecordedAt time.Time          `json:"recorded_at"`
	CreatedAt  time.Time          `json:"created_at"`
}

// PairBalanceResponse reports the net position between the caller and one
// other member.
type PairBalanceResponse struct {
	ListID  string       `json:"list_id"`
	UserID  string       `json:"user_id"`
	OtherID string       `json:"other_id"`
	Net     settle.Money `json:"net"`
}

// SettlementResponse reports the caller's aggregate position on a list.
type SettlementResponse struct {
	ListID          string                  `json:"list_id"`
	UserID          string                  `json:"user_id"`
	TotalPaid       settle.Money            `json:"total_paid"`
	TotalOwed       settle.Money            `json:"total_owed"`
	TotalOwedToUser settle.Money            `json:"total_owed_to_user"`
	PerUser         map[string]settle.Money `json:"per_user"`
}

// Create records a new expense on a list the user belongs to.
func (s *Service) Create(ctx context.Context, listID, userID string, req CreateRequest) (Expense, error) {
	l, err := s.Lists.RequireMembership(ctx, listID, userID)
	if err != nil {
		return Expense{}, err
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(req); err != nil {
			return Expense{}, common.NewAppError("VALIDATION_ERROR", "invalid expense payload", http.StatusBadRequest, err)
		}
	}

	amount, err := settle.ParseAmount(req.Amount, l.Currency)
	if err != nil {
		return Expense{}, common.ErrInvalidArgument("amount must be a positive decimal, e.g. \"12.50\"")
	}
	if amount.AmountMinor <= 0 {
		return Expense{}, common.ErrInvalidArgument("amount must be positive")
	}

	payerID := req.PayerID
	if payerID == "" {
		payerID = userID
	}
	members, err := s.Store.Members(ctx, listID)
	if err != nil {
		return Expense{}, fmt.Errorf("list members: %w", err)
	}
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}
	if !memberSet[payerID] {
		return Expense{}, common.ErrInvalidArgument("payer is not a member of the list")
	}

	e := settle.Expense{
		PayerID: payerID,
		Amount:  amount,
	}
	switch req.Version {
	case 1:
		e.Format = settle.FormatLegacy
		if len(req.Shares) > 0 {
			return Expense{}, common.ErrInvalidArgument("version 1 expenses do not carry shares")
		}
	case 2:
		e.Format = settle.FormatWeighted
		if len(req.Shares) == 0 {
			return Expense{}, common.ErrInvalidArgument("version 2 expenses require shares")
		}
		var total float64
		for id, share := range req.Shares {
			if !memberSet[id] {
				return Expense{}, common.ErrInvalidArgument("share references a non-member")
			}
			total += share
		}
		if math.Abs(total-1) > 1e-9 {
			return Expense{}, common.ErrUnprocessable("shares must sum to 1", nil)
		}
		e.Shares = req.Shares
	default:
		return Expense{}, common.ErrInvalidArgument("version must be 1 or 2")
	}

	if req.RecordedAt != nil {
		e.RecordedAt = req.RecordedAt.UTC()
	} else {
		e.RecordedAt = time.Now().UTC()
	}

	record, err := s.Store.InsertExpense(ctx, listID, e)
	if err != nil {
		return Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	if obs.ExpenseCreatedTotal != nil {
		obs.ExpenseCreatedTotal.With(prometheus.Labels{"format": e.Format.String()}).Inc()
	}
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicExpenseCreated, listID, map[string]any{
			"expense_id": record.ID,
			"payer_id":   payerID,
		})
	}
	return convertRecord(record), nil
}

// List returns a list's expenses in recorded order.
func (s *Service) List(ctx context.Context, listID, userID string) ([]Expense, error) {
	if _, err := s.Lists.RequireMembership(ctx, listID, userID); err != nil {
		return nil, err
	}
	records, err := s.Store.ListExpenses(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]Expense, 0, len(records))
	for _, r := range records {
		out = append(out, convertRecord(r))
	}
	return out, nil
}

// Settle computes the caller's aggregate position across the whole list.
func (s *Service) Settle(ctx context.Context, listID, userID string) (SettlementResponse, error) {
	start := time.Now()
	snap, err := s.loadSnapshot(ctx, listID, userID)
	if err != nil {
		observeSettlement("aggregate", "error", start)
		return SettlementResponse{}, err
	}
	result, err := settle.SettleUser(userID, snap.Participants, snap.Expenses, snap.Currency)
	if err != nil {
		observeSettlement("aggregate", "error", start)
		return SettlementResponse{}, common.ErrUnprocessable("settlement failed", err)
	}
	observeSettlement("aggregate", "ok", start)

	perUser := make(map[string]settle.Money, len(result.PerUser))
	for id, pb := range result.PerUser {
		perUser[id] = pb.Net
	}
	return SettlementResponse{
		ListID:          listID,
		UserID:          userID,
		TotalPaid:       result.TotalPaid,
		TotalOwed:       result.TotalOwed,
		TotalOwedToUser: result.TotalOwedToUser,
		PerUser:         perUser,
	}, nil
}

// Balance computes the caller's net position against one other member.
func (s *Service) Balance(ctx context.Context, listID, userID, otherID string) (PairBalanceResponse, error) {
	start := time.Now()
	snap, err := s.loadSnapshot(ctx, listID, userID)
	if err != nil {
		observeSettlement("pairwise", "error", start)
		return PairBalanceResponse{}, err
	}
	found := false
	for _, p := range snap.Participants {
		if p == otherID {
			found = true
			break
		}
	}
	if !found {
		observeSettlement("pairwise", "error", start)
		return PairBalanceResponse{}, common.ErrNotFound("member not found")
	}

	distinct := len(snap.Participants)
	if distinct < 1 {
		distinct = 1
	}
	evenSplit := 1 / float64(distinct)
	pb, err := settle.BalanceBetween(userID, otherID, snap.Expenses, evenSplit, snap.Currency)
	if err != nil {
		observeSettlement("pairwise", "error", start)
		return PairBalanceResponse{}, common.ErrUnprocessable("settlement failed", err)
	}
	observeSettlement("pairwise", "ok", start)
	return PairBalanceResponse{
		ListID:  listID,
		UserID:  userID,
		OtherID: otherID,
		Net:     pb.Net,
	}, nil
}

// loadSnapshot returns the settlement input for a list, using the cache
// when warm and rebuilding it from storage otherwise.
func (s *Service) loadSnapshot(ctx context.Context, listID, userID string) (snapshot.Snapshot, error) {
	l, err := s.Lists.RequireMembership(ctx, listID, userID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	snap, hit, err := s.Cache.Get(ctx, listID)
	if err == nil && hit {
		observeCache("hit")
		return snap, nil
	}
	if err != nil {
		observeCache("error")
	} else {
		observeCache("miss")
	}

	members, err := s.Store.Members(ctx, listID)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("list members: %w", err)
	}
	records, err := s.Store.ListExpenses(ctx, listID)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("list expenses: %w", err)
	}
	expenses := make([]settle.Expense, 0, len(records))
	for _, r := range records {
		expenses = append(expenses, r.Expense)
	}
	snap = snapshot.Snapshot{
		ListID:       listID,
		Currency:     l.Currency,
		Participants: members,
		Expenses:     expenses,
	}
	if err := s.Cache.Set(ctx, snap); err != nil {
		// a stale cache write failure is not fatal to the computation
		return snap, nil
	}
	return snap, nil
}

func observeSettlement(kind, result string, start time.Time) {
	if obs.SettlementComputeTotal != nil {
		obs.SettlementComputeTotal.With(prometheus.Labels{"kind": kind, "result": result}).Inc()
	}
	if obs.SettlementComputeDuration != nil {
		obs.SettlementComputeDuration.With(prometheus.Labels{"kind": kind}).Observe(obs.DurationMillis(time.Since(start)))
	}
}

func observeCache(result string) {
	if obs.SnapshotCacheTotal != nil {
		obs.SnapshotCacheTotal.With(prometheus.Labels{"result": result}).Inc()
	}
}

func convertRecord(r repo.ExpenseRecord) Expense {
	return Expense{
		ID:         r.ID,
		ListID:     r.ListID,
		PayerID:    r.Expense.PayerID,
		Amount:     r.Expense.Amount,
		Version:    int(r.Expense.Format),
		Shares:     r.Expense.Shares,
		RecordedAt: r.Expense.RecordedAt,
		CreatedAt:  r.CreatedAt,
	}
}
