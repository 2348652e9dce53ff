package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/budget"
	"expense-manager/internal/model"
	"expense-manager/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func notFoundErr(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

// memDB хранит состояние всех фейковых хранилищ
type memDB struct {
	mu           sync.Mutex
	users        map[uuid.UUID]model.User
	accounts     map[uuid.UUID]model.Account
	transactions map[uuid.UUID]model.Transaction
	categories   map[uuid.UUID]model.TransactionCategory
	services     map[uuid.UUID]model.TransactionService
	locked       []uuid.UUID
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[uuid.UUID]model.User{},
		accounts:     map[uuid.UUID]model.Account{},
		transactions: map[uuid.UUID]model.Transaction{},
		categories:   map[uuid.UUID]model.TransactionCategory{},
		services:     map[uuid.UUID]model.TransactionService{},
	}
}

type fakeTx struct{}

func (fakeTx) Conn() repository.Querier { return nil }

func (fakeTx) WithinTx(_ context.Context, fn func(q repository.Querier) error) error {
	return fn(nil)
}

// failingCommitTx выполняет fn, но фиксация транзакции завершается ошибкой
type failingCommitTx struct{}

func (failingCommitTx) Conn() repository.Querier { return nil }

func (failingCommitTx) WithinTx(_ context.Context, fn func(q repository.Querier) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return errors.New("commit failed")
}

// accounts

type fakeAccounts struct{ db *memDB }

func (f fakeAccounts) Create(_ context.Context, _ repository.Querier, a *model.Account) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.accounts {
		if other.UserID != a.UserID {
			continue
		}
		if a.IsDefault && other.IsDefault {
			return fmt.Errorf("create: %w", repository.ErrDuplicate)
		}
		if m, y, ok := a.Period(); ok {
			if om, oy, ook := other.Period(); ook && om == m && oy == y {
				return fmt.Errorf("create: %w", repository.ErrDuplicate)
			}
		}
	}
	f.db.accounts[a.ID] = *a
	return nil
}

func (f fakeAccounts) GetByID(_ context.Context, _ repository.Querier, id uuid.UUID) (*model.Account, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.accounts[id]
	if !ok {
		return nil, notFoundErr("get account")
	}
	return &a, nil
}

func (f fakeAccounts) GetByIDForUser(ctx context.Context, q repository.Querier, id, userID uuid.UUID) (*model.Account, error) {
	a, err := f.GetByID(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, notFoundErr("get account")
	}
	return a, nil
}

func (f fakeAccounts) GetByIDForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Account, error) {
	f.db.mu.Lock()
	f.db.locked = append(f.db.locked, id)
	f.db.mu.Unlock()
	return f.GetByID(ctx, q, id)
}

func (f fakeAccounts) FindByPeriod(_ context.Context, _ repository.Querier, userID uuid.UUID, month model.Month, year int) (*model.Account, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range f.db.accounts {
		if m, y, ok := a.Period(); ok && a.UserID == userID && m == month && y == year {
			return &a, nil
		}
	}
	return nil, notFoundErr("find by period")
}

func (f fakeAccounts) GetDefault(_ context.Context, _ repository.Querier, userID uuid.UUID) (*model.Account, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range f.db.accounts {
		if a.UserID == userID && a.IsDefault {
			return &a, nil
		}
	}
	return nil, notFoundErr("get default")
}

func (f fakeAccounts) GetLatest(_ context.Context, _ repository.Querier, userID uuid.UUID) (*model.Account, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var latest *model.Account
	for _, a := range f.db.accounts {
		if a.UserID != userID || !a.IsMonthly {
			continue
		}
		if latest == nil || a.Date.After(latest.Date) {
			a := a
			latest = &a
		}
	}
	if latest == nil {
		return nil, notFoundErr("get latest")
	}
	return latest, nil
}

func (f fakeAccounts) byUser(userID uuid.UUID) []model.Account {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Account
	for _, a := range f.db.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (f fakeAccounts) CountByUser(_ context.Context, _ repository.Querier, userID uuid.UUID) (int, error) {
	return len(f.byUser(userID)), nil
}

func (f fakeAccounts) List(_ context.Context, _ repository.Querier, userID uuid.UUID, filter model.AccountFilter) ([]model.Account, int, error) {
	var out []model.Account
	for _, a := range f.byUser(userID) {
		if filter.Month != nil && (a.Month == nil || *a.Month != *filter.Month) {
			continue
		}
		if filter.Year != nil && (a.Year == nil || *a.Year != *filter.Year) {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f fakeAccounts) ListByPeriod(_ context.Context, _ repository.Querier, userID uuid.UUID, month model.Month, year int) ([]model.Account, error) {
	var out []model.Account
	for _, a := range f.byUser(userID) {
		m, y, ok := a.Period()
		if !ok || (m == month && y == year) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeAccounts) ListForRefresh(_ context.Context, _ repository.Querier, now time.Time) ([]uuid.UUID, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var ids []uuid.UUID
	for _, a := range f.db.accounts {
		m, y, ok := a.Period()
		if !ok || (m == model.MonthOf(now.Month()) && y == now.Year()) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (f fakeAccounts) Update(_ context.Context, _ repository.Querier, a *model.Account) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cur, ok := f.db.accounts[a.ID]
	if !ok {
		return notFoundErr("update account")
	}
	cur.Description, cur.IsMonthly, cur.Month, cur.Year, cur.Date = a.Description, a.IsMonthly, a.Month, a.Year, a.Date
	cur.Currency, cur.Amount, cur.Color, cur.IdealDailyExpenditure = a.Currency, a.Amount, a.Color, a.IdealDailyExpenditure
	f.db.accounts[a.ID] = cur
	return nil
}

func (f fakeAccounts) UpdateMetrics(_ context.Context, _ repository.Querier, id uuid.UUID, m model.AccountMetrics) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cur, ok := f.db.accounts[id]
	if !ok {
		return notFoundErr("update metrics")
	}
	cur.AccountMetrics = m
	f.db.accounts[id] = cur
	return nil
}

func (f fakeAccounts) SetDefault(_ context.Context, _ repository.Querier, id uuid.UUID, isDefault bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cur, ok := f.db.accounts[id]
	if !ok {
		return notFoundErr("set default")
	}
	if isDefault {
		for _, other := range f.db.accounts {
			if other.UserID == cur.UserID && other.ID != id && other.IsDefault {
				return fmt.Errorf("set default: %w", repository.ErrDuplicate)
			}
		}
	}
	cur.IsDefault = isDefault
	f.db.accounts[id] = cur
	return nil
}

func (f fakeAccounts) Delete(_ context.Context, _ repository.Querier, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.accounts[id]; !ok {
		return notFoundErr("delete account")
	}
	delete(f.db.accounts, id)
	return nil
}

// transactions

type fakeTransactions struct{ db *memDB }

func (f fakeTransactions) Create(_ context.Context, _ repository.Querier, t *model.Transaction) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.transactions[t.ID] = *t
	return nil
}

func (f fakeTransactions) GetByIDForUser(_ context.Context, _ repository.Querier, id, userID uuid.UUID) (*model.Transaction, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.transactions[id]
	if !ok || t.UserID != userID || t.DeletedAt != nil {
		return nil, notFoundErr("get transaction")
	}
	return &t, nil
}

func (f fakeTransactions) active(keep func(model.Transaction) bool) []model.Transaction {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Transaction
	for _, t := range f.db.transactions {
		if t.DeletedAt == nil && keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f fakeTransactions) ListByAccount(_ context.Context, _ repository.Querier, accountID, excludeID uuid.UUID) ([]model.Transaction, error) {
	return f.active(func(t model.Transaction) bool {
		return t.AccountID == accountID && t.ID != excludeID
	}), nil
}

func (f fakeTransactions) List(_ context.Context, _ repository.Querier, userID uuid.UUID, filter model.TransactionFilter) ([]model.Transaction, int, error) {
	out := f.active(func(t model.Transaction) bool {
		if t.UserID != userID {
			return false
		}
		if filter.AccountID != nil && t.AccountID != *filter.AccountID {
			return false
		}
		return filter.Search == "" || strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Search))
	})
	return out, len(out), nil
}

func (f fakeTransactions) Update(_ context.Context, _ repository.Querier, t *model.Transaction) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if cur, ok := f.db.transactions[t.ID]; !ok || cur.DeletedAt != nil {
		return notFoundErr("update transaction")
	}
	f.db.transactions[t.ID] = *t
	return nil
}

func (f fakeTransactions) SoftDelete(_ context.Context, _ repository.Querier, id uuid.UUID, at time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cur, ok := f.db.transactions[id]
	if !ok || cur.DeletedAt != nil {
		return notFoundErr("delete transaction")
	}
	cur.DeletedAt = &at
	f.db.transactions[id] = cur
	return nil
}

func (f fakeTransactions) CountByAccount(_ context.Context, _ repository.Querier, accountID uuid.UUID) (int, error) {
	return len(f.active(func(t model.Transaction) bool { return t.AccountID == accountID })), nil
}

func (f fakeTransactions) ListUnpaidDebtLoans(_ context.Context, _ repository.Querier, userID uuid.UUID) ([]model.Transaction, error) {
	return f.active(func(t model.Transaction) bool {
		return t.UserID == userID && t.IsDebtLoan && !t.IsPaid
	}), nil
}

func (f fakeTransactions) StatsByCategory(_ context.Context, _ repository.Querier, accountID uuid.UUID, start, end time.Time) ([]model.CategoryTotal, error) {
	end = end.Add(24 * time.Hour)
	type key struct {
		category string
		typ      model.TransactionType
	}
	totals := map[key]*model.CategoryTotal{}
	var keys []key
	for _, t := range f.active(func(t model.Transaction) bool {
		return t.AccountID == accountID && !t.IsDebtLoan && !t.Date.Before(start) && t.Date.Before(end)
	}) {
		k := key{t.CategoryName, t.Type}
		if totals[k] == nil {
			totals[k] = &model.CategoryTotal{Category: t.CategoryName, Type: t.Type}
			keys = append(keys, k)
		}
		totals[k].Amount += t.Amount
		totals[k].Count++
	}
	out := make([]model.CategoryTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *totals[k])
	}
	return out, nil
}

// categories and services

type fakeCategories struct{ db *memDB }

func (f fakeCategories) Create(_ context.Context, _ repository.Querier, c *model.TransactionCategory) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.categories {
		if other.UserID == c.UserID && other.Name == c.Name {
			return fmt.Errorf("create category: %w", repository.ErrDuplicate)
		}
	}
	f.db.categories[c.ID] = *c
	return nil
}

func (f fakeCategories) GetByIDForUser(_ context.Context, _ repository.Querier, id, userID uuid.UUID) (*model.TransactionCategory, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.categories[id]
	if !ok || c.UserID != userID {
		return nil, notFoundErr("get category")
	}
	return &c, nil
}

func (f fakeCategories) ListByUser(_ context.Context, _ repository.Querier, userID uuid.UUID) ([]model.TransactionCategory, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.TransactionCategory
	for _, c := range f.db.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeCategories) Update(_ context.Context, _ repository.Querier, c *model.TransactionCategory) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.categories[c.ID]; !ok {
		return notFoundErr("update category")
	}
	f.db.categories[c.ID] = *c
	return nil
}

func (f fakeCategories) Delete(_ context.Context, _ repository.Querier, id, userID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.categories[id]
	if !ok || c.UserID != userID {
		return notFoundErr("delete category")
	}
	delete(f.db.categories, id)
	return nil
}

type fakeServices struct{ db *memDB }

func (f fakeServices) Create(_ context.Context, _ repository.Querier, s *model.TransactionService) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.services[s.ID] = *s
	return nil
}

func (f fakeServices) GetVisible(_ context.Context, _ repository.Querier, id, userID uuid.UUID) (*model.TransactionService, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.services[id]
	if !ok || (s.UserID != nil && *s.UserID != userID) {
		return nil, notFoundErr("get service")
	}
	return &s, nil
}

func (f fakeServices) ListVisible(_ context.Context, _ repository.Querier, userID uuid.UUID) ([]model.TransactionService, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.TransactionService
	for _, s := range f.db.services {
		if s.UserID == nil || *s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeServices) Update(_ context.Context, _ repository.Querier, s *model.TransactionService) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.services[s.ID] = *s
	return nil
}

func (f fakeServices) Delete(_ context.Context, _ repository.Querier, id, userID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.services[id]
	if !ok || s.UserID == nil || *s.UserID != userID {
		return notFoundErr("delete service")
	}
	delete(f.db.services, id)
	return nil
}

// users

type fakeUsers struct{ db *memDB }

func (f fakeUsers) Create(_ context.Context, _ repository.Querier, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.users {
		if other.Alias == u.Alias {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	f.db.users[u.ID] = *u
	return nil
}

func (f fakeUsers) FindByAlias(_ context.Context, _ repository.Querier, alias string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Alias == alias {
			return &u, nil
		}
	}
	return nil, notFoundErr("find user")
}

func (f fakeUsers) ExistsByAlias(ctx context.Context, q repository.Querier, alias string) (bool, error) {
	_, err := f.FindByAlias(ctx, q, alias)
	return err == nil, nil
}

func (f fakeUsers) GetByID(_ context.Context, _ repository.Querier, id uuid.UUID) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, notFoundErr("get user")
	}
	return &u, nil
}

// notifier

type fakeNotifier struct {
	alerts      chan model.Account
	settlements chan model.Transaction
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		alerts:      make(chan model.Account, 16),
		settlements: make(chan model.Transaction, 16),
	}
}

func (n *fakeNotifier) SendOverspendAlert(_ string, account *model.Account) error {
	n.alerts <- *account
	return nil
}

func (n *fakeNotifier) SendSettlementNotice(_ string, _, settlement *model.Transaction) error {
	n.settlements <- *settlement
	return nil
}

// fixture собирает сервисы поверх общего memDB
type fixture struct {
	db       *memDB
	now      time.Time
	notifier *fakeNotifier

	recalculator *AccountRecalculator
	accounts     *AccountService
	transactions *TransactionService
	settlements  *SettlementService
	tags         *TagService

	user     model.User
	category model.TransactionCategory
}

func newFixture(now time.Time) *fixture {
	db := newMemDB()
	logger := testLogger()
	clock := fixedClock(now)
	notifier := newFakeNotifier()

	accounts := fakeAccounts{db}
	transactions := fakeTransactions{db}
	categories := fakeCategories{db}
	services := fakeServices{db}
	users := fakeUsers{db}

	recalculator := NewAccountRecalculator(accounts, transactions, users, notifier, clock, logger)

	email := "owner@example.com"
	user := model.User{ID: uuid.New(), Alias: "owner", Email: &email, IsActive: true}
	db.users[user.ID] = user
	category := model.TransactionCategory{ID: uuid.New(), UserID: user.ID, Name: "Food and Drinks"}
	db.categories[category.ID] = category

	return &fixture{
		db:           db,
		now:          now,
		notifier:     notifier,
		recalculator: recalculator,
		accounts:     NewAccountService(fakeTx{}, accounts, transactions, recalculator, clock, logger),
		transactions: NewTransactionService(fakeTx{}, accounts, transactions, categories, services, recalculator, clock, logger),
		settlements:  NewSettlementService(fakeTx{}, transactions, services, users, recalculator, notifier, clock, logger),
		tags:         NewTagService(fakeTx{}, categories, services, clock, logger),
		user:         user,
		category:     category,
	}
}

func (fx *fixture) account(id uuid.UUID) model.Account {
	fx.db.mu.Lock()
	defer fx.db.mu.Unlock()
	return fx.db.accounts[id]
}

func (fx *fixture) transaction(id uuid.UUID) model.Transaction {
	fx.db.mu.Lock()
	defer fx.db.mu.Unlock()
	return fx.db.transactions[id]
}

func (fx *fixture) createAccount(ctx context.Context, month model.Month, year int, amount float64, currency model.Currency) (*model.Account, error) {
	return fx.accounts.Create(ctx, fx.user.ID, model.CreateAccountRequest{
		Month:    &month,
		Year:     &year,
		Currency: currency,
		Amount:   amount,
	})
}

func (fx *fixture) txRequest(accountID uuid.UUID, amount float64, typ model.TransactionType, date time.Time) model.CreateTransactionRequest {
	return model.CreateTransactionRequest{
		Name:          "purchase",
		Amount:        amount,
		Currency:      model.CurrencyUSD,
		Type:          typ,
		Date:          &date,
		PaymentMethod: model.PaymentMethodCash,
		CategoryID:    fx.category.ID,
		AccountID:     accountID,
	}
}

// directMetrics пересчитывает счет напрямую из текущего набора транзакций
func (fx *fixture) directMetrics(id uuid.UUID) model.AccountMetrics {
	acc := fx.account(id)
	txs, _ := fakeTransactions{fx.db}.ListByAccount(context.Background(), nil, id, uuid.Nil)
	m, err := budget.Recompute(&acc, txs, budget.None, fx.now)
	if err != nil {
		panic(err)
	}
	return m
}
