package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/util"
	"github.com/moremoney/moremoney-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users          map[int32]*domain.User
	RecoveryTokens map[int32]RecoveryToken
	nextID         int32
}

// RecoveryToken is a stored recovery token hash and its expiry
type RecoveryToken struct {
	Hash      string
	ExpiresAt time.Time
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:          make(map[int32]*domain.User),
		RecoveryTokens: make(map[int32]RecoveryToken),
		nextID:         1,
	}
}

// AddUser adds a user directly to the mock
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.ID] = user
	if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
}

func (m *MockUserRepository) active(id int32) (*domain.User, bool) {
	u, ok := m.Users[id]
	if !ok || u.DeletedAt != nil {
		return nil, false
	}
	return u, true
}

func (m *MockUserRepository) emailTaken(email string, except int32) bool {
	for _, u := range m.Users {
		if u.DeletedAt == nil && u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	if u, ok := m.active(id); ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.Users {
		if u.DeletedAt == nil && u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	result := make([]*domain.User, 0)
	for _, u := range m.Users {
		if u.DeletedAt == nil {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if m.emailTaken(user.Email, 0) {
		return nil, domain.ErrEmailTaken
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.Users[user.ID] = user
	return user, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id int32, patch domain.UserPatch) (*domain.User, error) {
	u, ok := m.active(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Email != nil && m.emailTaken(*patch.Email, id) {
		return nil, domain.ErrEmailTaken
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.ClearCompany {
		u.CompanyID = nil
	} else if patch.CompanyID != nil {
		companyID := *patch.CompanyID
		u.CompanyID = &companyID
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, id int32) error {
	u, ok := m.active(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (m *MockUserRepository) SetRecoveryToken(ctx context.Context, id int32, tokenHash string, expiresAt time.Time) error {
	if _, ok := m.active(id); !ok {
		return domain.ErrUserNotFound
	}
	m.RecoveryTokens[id] = RecoveryToken{Hash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (m *MockUserRepository) GetByRecoveryToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	for id, token := range m.RecoveryTokens {
		if token.Hash == tokenHash && token.ExpiresAt.After(now) {
			if u, ok := m.active(id); ok {
				return u, nil
			}
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) ResetPassword(ctx context.Context, id int32, passwordHash string) error {
	u, ok := m.active(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	delete(m.RecoveryTokens, id)
	return nil
}

// MockCompanyRepository is a mock implementation of domain.CompanyRepository
type MockCompanyRepository struct {
	Companies map[int32]*domain.Company
	nextID    int32
}

// NewMockCompanyRepository creates a new MockCompanyRepository
func NewMockCompanyRepository() *MockCompanyRepository {
	return &MockCompanyRepository{Companies: make(map[int32]*domain.Company), nextID: 1}
}

// AddCompany adds a company directly to the mock
func (m *MockCompanyRepository) AddCompany(company *domain.Company) {
	m.Companies[company.ID] = company
	if company.ID >= m.nextID {
		m.nextID = company.ID + 1
	}
}

func (m *MockCompanyRepository) taxIDTaken(taxID string, except int32) bool {
	for _, c := range m.Companies {
		if c.DeletedAt == nil && c.TaxID == taxID && c.ID != except {
			return true
		}
	}
	return false
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id int32) (*domain.Company, error) {
	if c, ok := m.Companies[id]; ok && c.DeletedAt == nil {
		return c, nil
	}
	return nil, domain.ErrCompanyNotFound
}

func (m *MockCompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	result := make([]*domain.Company, 0)
	for _, c := range m.Companies {
		if c.DeletedAt == nil {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *domain.Company) (*domain.Company, error) {
	if m.taxIDTaken(company.TaxID, 0) {
		return nil, domain.ErrAlreadyExists
	}
	company.ID = m.nextID
	m.nextID++
	company.CreatedAt = time.Now()
	company.UpdatedAt = company.CreatedAt
	m.Companies[company.ID] = company
	return company, nil
}

func (m *MockCompanyRepository) Update(ctx context.Context, id int32, patch domain.CompanyPatch) (*domain.Company, error) {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.TaxID != nil && m.taxIDTaken(*patch.TaxID, id) {
		return nil, domain.ErrAlreadyExists
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.TaxID != nil {
		c.TaxID = *patch.TaxID
	}
	c.UpdatedAt = time.Now()
	return c, nil
}

func (m *MockCompanyRepository) SoftDelete(ctx context.Context, id int32) error {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	nextID     int32
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{Categories: make(map[int32]*domain.Category), nextID: 1}
}

// AddCategory adds a category directly to the mock
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
	if category.ID >= m.nextID {
		m.nextID = category.ID + 1
	}
}

func (m *MockCategoryRepository) owned(userID, id int32) (*domain.Category, bool) {
	c, ok := m.Categories[id]
	if !ok || c.UserID == nil || *c.UserID != userID {
		return nil, false
	}
	return c, true
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, userID int32, id int32) (*domain.Category, error) {
	if c, ok := m.owned(userID, id); ok {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) List(ctx context.Context, userID int32, filters domain.CategoryFilters) ([]*domain.Category, error) {
	result := make([]*domain.Category, 0)
	for _, c := range m.Categories {
		if c.UserID == nil || *c.UserID != userID {
			continue
		}
		if filters.Kind != nil && c.Kind != *filters.Kind {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.ID = m.nextID
	m.nextID++
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.Categories[category.ID] = category
	return category, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, userID int32, id int32, patch domain.CategoryPatch) (*domain.Category, error) {
	c, ok := m.owned(userID, id)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Kind != nil {
		c.Kind = *patch.Kind
	}
	c.UpdatedAt = time.Now()
	return c, nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, userID int32, id int32) error {
	if _, ok := m.owned(userID, id); !ok {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository.
// When Categories is set, category names are resolved like the SQL join does.
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	Categories   *MockCategoryRepository
	nextID       int32
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{Transactions: make(map[int32]*domain.Transaction), nextID: 1}
}

// AddTransaction adds a transaction directly to the mock
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	m.Transactions[transaction.ID] = transaction
	if transaction.ID >= m.nextID {
		m.nextID = transaction.ID + 1
	}
}

func (m *MockTransactionRepository) withCategoryName(t *domain.Transaction) *domain.Transaction {
	t.CategoryName = nil
	if m.Categories != nil && t.CategoryID != nil {
		if c, ok := m.Categories.Categories[*t.CategoryID]; ok {
			name := c.Name
			t.CategoryName = &name
		}
	}
	return t
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	transaction.ID = m.nextID
	m.nextID++
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt
	m.Transactions[transaction.ID] = transaction
	return m.withCategoryName(transaction), nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, userID int32, id int32) (*domain.Transaction, error) {
	t, ok := m.Transactions[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return m.withCategoryName(t), nil
}

func (m *MockTransactionRepository) List(ctx context.Context, userID int32, filters domain.TransactionFilters) ([]*domain.Transaction, error) {
	result := make([]*domain.Transaction, 0)
	for _, t := range m.owned(userID) {
		if !filters.Period.Contains(t.Date) {
			continue
		}
		if filters.Kind != nil && t.Kind != *filters.Kind {
			continue
		}
		if filters.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filters.CategoryID) {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(filters.Search)) {
			continue
		}
		result = append(result, m.withCategoryName(t))
	}
	return result, nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, userID int32, id int32, patch domain.TransactionPatch) (*domain.Transaction, error) {
	t, ok := m.Transactions[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Kind != nil {
		t.Kind = *patch.Kind
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.ClearCategory {
		t.CategoryID = nil
	} else if patch.CategoryID != nil {
		categoryID := *patch.CategoryID
		t.CategoryID = &categoryID
	}
	if patch.ClearStatus {
		t.Status = nil
	} else if patch.Status != nil {
		status := *patch.Status
		t.Status = &status
	}
	t.UpdatedAt = time.Now()
	return m.withCategoryName(t), nil
}

func (m *MockTransactionRepository) Delete(ctx context.Context, userID int32, id int32) error {
	t, ok := m.Transactions[id]
	if !ok || t.UserID != userID {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// owned returns userID's transactions ordered by date desc, id desc
func (m *MockTransactionRepository) owned(userID int32) []*domain.Transaction {
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// MockDashboardRepository computes dashboard aggregates in memory over a
// MockTransactionRepository. Monthly buckets come back newest first and
// category totals in first-seen order, so callers must impose their own order.
type MockDashboardRepository struct {
	Transactions *MockTransactionRepository
	Categories   *MockCategoryRepository

	SumErr      error
	MonthlyErr  error
	CategoryErr error
	RecentErr   error

	mu           sync.Mutex
	RecentPeriod domain.Period
	RecentLimit  int
}

// NewMockDashboardRepository creates a dashboard mock over the given stores
func NewMockDashboardRepository(transactions *MockTransactionRepository, categories *MockCategoryRepository) *MockDashboardRepository {
	return &MockDashboardRepository{Transactions: transactions, Categories: categories}
}

func (m *MockDashboardRepository) inPeriod(userID int32, period domain.Period) []*domain.Transaction {
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions.owned(userID) {
		if period.Contains(t.Date) {
			result = append(result, t)
		}
	}
	return result
}

func (m *MockDashboardRepository) SumByKind(ctx context.Context, userID int32, period domain.Period) (domain.KindTotals, error) {
	if m.SumErr != nil {
		return domain.KindTotals{}, m.SumErr
	}
	totals := domain.KindTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range m.inPeriod(userID, period) {
		switch t.Kind {
		case domain.KindIncome:
			totals.Income = totals.Income.Add(t.Amount)
		case domain.KindExpense:
			totals.Expense = totals.Expense.Add(t.Amount)
		}
	}
	return totals, nil
}

func (m *MockDashboardRepository) MonthlyBuckets(ctx context.Context, userID int32, period domain.Period) ([]domain.MonthBucket, error) {
	if m.MonthlyErr != nil {
		return nil, m.MonthlyErr
	}
	byMonth := make(map[time.Time]*domain.MonthBucket)
	for _, t := range m.inPeriod(userID, period) {
		start := util.FirstOfMonth(t.Date.Year(), int(t.Date.Month()))
		b, ok := byMonth[start]
		if !ok {
			b = &domain.MonthBucket{MonthStart: start, FirstDate: t.Date, Income: decimal.Zero, Expense: decimal.Zero}
			byMonth[start] = b
		}
		if t.Date.Before(b.FirstDate) {
			b.FirstDate = t.Date
		}
		switch t.Kind {
		case domain.KindIncome:
			b.Income = b.Income.Add(t.Amount)
		case domain.KindExpense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	buckets := make([]domain.MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].FirstDate.After(buckets[j].FirstDate) })
	return buckets, nil
}

func (m *MockDashboardRepository) CategoryTotals(ctx context.Context, userID int32, kind domain.Kind, period domain.Period) ([]domain.CategoryTotal, error) {
	if m.CategoryErr != nil {
		return nil, m.CategoryErr
	}

	rows := m.inPeriod(userID, period)
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	index := make(map[string]int)
	totals := make([]domain.CategoryTotal, 0)
	for _, t := range rows {
		if t.Kind != kind || t.CategoryID == nil || m.Categories == nil {
			continue
		}
		c, ok := m.Categories.Categories[*t.CategoryID]
		if !ok {
			continue
		}
		i, seen := index[c.Name]
		if !seen {
			i = len(totals)
			index[c.Name] = i
			totals = append(totals, domain.CategoryTotal{Category: c.Name, Total: decimal.Zero})
		}
		totals[i].Count++
		totals[i].Total = totals[i].Total.Add(t.Amount)
	}
	return totals, nil
}

func (m *MockDashboardRepository) RecentTransactions(ctx context.Context, userID int32, period domain.Period, limit int) ([]domain.RecentTransaction, error) {
	m.mu.Lock()
	m.RecentPeriod = period
	m.RecentLimit = limit
	m.mu.Unlock()

	if m.RecentErr != nil {
		return nil, m.RecentErr
	}

	recent := make([]domain.RecentTransaction, 0, limit)
	for _, t := range m.inPeriod(userID, period) {
		if len(recent) == limit {
			break
		}
		recent = append(recent, domain.RecentTransaction{
			ID:          t.ID,
			Description: t.Description,
			Kind:        t.Kind,
			Amount:      t.Amount,
			Date:        t.Date,
			CreatedAt:   t.CreatedAt,
		})
	}
	return recent, nil
}

// MockMailPublisher records published mail jobs
type MockMailPublisher struct {
	Sent []domain.PasswordResetMail
	Err  error
}

func (m *MockMailPublisher) PublishPasswordReset(ctx context.Context, mail domain.PasswordResetMail) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, mail)
	return nil
}

// MockEventPublisher records published websocket events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	UserID int32
	Event  websocket.Event
}

func (m *MockEventPublisher) Publish(userID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{UserID: userID, Event: event})
}

// Types returns the event types in publish order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.Type)
	}
	return types
}
