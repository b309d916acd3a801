package service

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/walt-tipbot/internal/errors"
	"github.com/walt-tipbot/internal/models"
	"github.com/walt-tipbot/internal/types"
)

const testTokenAddress = "0x1e018ac547796185f978af6aefa9b1e88d1bc0b1"

// mockUserStore is an in-memory UserStore for service tests.
type mockUserStore struct {
	users map[string]*models.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*models.User)}
}

func (m *mockUserStore) addUser(telegramID, username, wallet string) {
	m.users[telegramID] = &models.User{
		TelegramID:    telegramID,
		Username:      username,
		WalletAddress: wallet,
		CreatedAt:     time.Now().UTC(),
	}
}

func (m *mockUserStore) Upsert(ctx context.Context, user *models.User) error {
	m.users[user.TelegramID] = user
	return nil
}

func (m *mockUserStore) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	user, ok := m.users[telegramID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user", telegramID)
	}
	return user, nil
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user", username)
}

func (m *mockUserStore) SetWallet(ctx context.Context, telegramID, wallet string) error {
	user, ok := m.users[telegramID]
	if !ok {
		return apperrors.NewNotFoundError("user", telegramID)
	}
	user.WalletAddress = types.NormalizeAddress(wallet)
	return nil
}

func (m *mockUserStore) SetPermit2Approved(ctx context.Context, telegramID string, approved bool) error {
	user, ok := m.users[telegramID]
	if !ok {
		return apperrors.NewNotFoundError("user", telegramID)
	}
	user.Permit2Approved = approved
	return nil
}

func (m *mockUserStore) ResolveWallet(ctx context.Context, telegramID string) (string, error) {
	user, ok := m.users[telegramID]
	if !ok {
		return "", nil
	}
	return user.WalletAddress, nil
}

// mockTipStore is an in-memory TipStore with monotonically increasing ids.
type mockTipStore struct {
	tips   map[int64]*models.Tip
	nextID int64

	createErr error
}

func newMockTipStore() *mockTipStore {
	return &mockTipStore{tips: make(map[int64]*models.Tip), nextID: 1}
}

func (m *mockTipStore) Create(ctx context.Context, tip *models.Tip) error {
	if m.createErr != nil {
		return m.createErr
	}
	tip.ID = m.nextID
	m.nextID++
	tip.Status = types.TipStatusPending
	tip.CreatedAt = time.Now().UTC()
	stored := *tip
	m.tips[tip.ID] = &stored
	return nil
}

func (m *mockTipStore) GetByID(ctx context.Context, id int64) (*models.Tip, error) {
	tip, ok := m.tips[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("tip", big.NewInt(id).String())
	}
	copied := *tip
	return &copied, nil
}

func (m *mockTipStore) Complete(ctx context.Context, id int64, txHash string, completedAt time.Time) (*models.Tip, error) {
	tip, ok := m.tips[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("tip", big.NewInt(id).String())
	}
	tip.Status = types.TipStatusCompleted
	tip.TxHash = txHash
	tip.CompletedAt = &completedAt
	copied := *tip
	return &copied, nil
}

func (m *mockTipStore) CompleteIfPending(ctx context.Context, id int64, txHash string, completedAt time.Time) (bool, error) {
	tip, ok := m.tips[id]
	if !ok {
		return false, apperrors.NewNotFoundError("tip", big.NewInt(id).String())
	}
	if tip.Status != types.TipStatusPending {
		return false, nil
	}
	tip.Status = types.TipStatusCompleted
	tip.TxHash = txHash
	tip.CompletedAt = &completedAt
	return true, nil
}

func (m *mockTipStore) ListForUser(ctx context.Context, telegramID string, limit int) ([]*models.Tip, error) {
	var result []*models.Tip
	for id := m.nextID - 1; id >= 1 && len(result) < limit; id-- {
		tip, ok := m.tips[id]
		if !ok {
			continue
		}
		if tip.SenderTelegramID == telegramID || tip.ReceiverTelegramID == telegramID {
			copied := *tip
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockTipStore) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Tip, error) {
	var result []*models.Tip
	for id := int64(1); id < m.nextID; id++ {
		tip, ok := m.tips[id]
		if !ok || tip.Status != types.TipStatusCompleted {
			continue
		}
		// The stores window on creation time, not completion time.
		if !tip.CreatedAt.Before(since) {
			copied := *tip
			result = append(result, &copied)
		}
	}
	return result, nil
}

// mockNotifier records delivery attempts and optionally fails them.
type mockNotifier struct {
	notifications []*TipNotification
	err           error
}

func (m *mockNotifier) TipCompleted(ctx context.Context, n *TipNotification) error {
	m.notifications = append(m.notifications, n)
	return m.err
}

func setupTipService() (*TipService, *mockUserStore, *mockTipStore, *mockNotifier) {
	users := newMockUserStore()
	tips := newMockTipStore()
	notifier := &mockNotifier{}
	svc := NewTipService(users, tips, notifier, testTokenAddress)
	return svc, users, tips, notifier
}

func linkedUsers(users *mockUserStore) {
	users.addUser("1001", "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	users.addUser("1002", "bob", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
}

func wei(tokens int64) *big.Int {
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(types.TokenDecimals), nil)
	return new(big.Int).Mul(big.NewInt(tokens), one)
}

func TestCreateTip(t *testing.T) {
	ctx := context.Background()

	t.Run("records pending tip with increasing ids", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		linkedUsers(users)

		first, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(100),
			Message:          "great post",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, types.TipStatusPending, first.Status)
		assert.Equal(t, "1001", first.SenderTelegramID)
		assert.Equal(t, "1002", first.ReceiverTelegramID)
		assert.Equal(t, wei(100).String(), first.AmountWei)
		assert.Empty(t, first.TxHash)

		second, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(50),
		})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("recipient lookup is case-insensitive", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		linkedUsers(users)

		tip, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "BOB",
			AmountWei:        wei(10),
		})
		require.NoError(t, err)
		assert.Equal(t, "1002", tip.ReceiverTelegramID)
	})

	t.Run("rejects zero and negative amounts", func(t *testing.T) {
		svc, users, tips, _ := setupTipService()
		linkedUsers(users)

		for _, amount := range []*big.Int{big.NewInt(0), big.NewInt(-5), nil} {
			_, err := svc.CreateTip(ctx, &CreateTipInput{
				SenderTelegramID: "1001",
				ReceiverUsername: "bob",
				AmountWei:        amount,
			})
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		}
		assert.Empty(t, tips.tips)
	})

	t.Run("rejects sender without linked wallet", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		users.addUser("1001", "alice", "")
		users.addUser("1002", "bob", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

		_, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(10),
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsUnlinkedWallet(err))
	})

	t.Run("rejects receiver without linked wallet", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		users.addUser("1001", "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		users.addUser("1002", "bob", "")

		_, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(10),
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsUnlinkedWallet(err))
	})

	t.Run("rejects unknown recipient", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		users.addUser("1001", "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

		_, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "nobody",
			AmountWei:        wei(10),
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "nobody")
	})

	t.Run("failed create does not consume an id", func(t *testing.T) {
		svc, users, tips, _ := setupTipService()
		linkedUsers(users)

		tips.createErr = errors.New("disk full")
		_, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(10),
		})
		require.Error(t, err)

		tips.createErr = nil
		tip, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(10),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), tip.ID)
	})
}

func TestGetTip(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves wallets and computes expiry", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		linkedUsers(users)

		created, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(100),
			Message:          "thanks",
		})
		require.NoError(t, err)

		before := time.Now().UTC()
		detail, err := svc.GetTip(ctx, created.ID)
		require.NoError(t, err)

		assert.Equal(t, created.ID, detail.ID)
		assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", detail.SenderWallet)
		assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", detail.ReceiverWallet)
		assert.Equal(t, wei(100).String(), detail.Amount)
		assert.Equal(t, "100", detail.AmountHuman)
		assert.Equal(t, testTokenAddress, detail.TokenAddress)
		assert.Equal(t, "thanks", detail.Message)
		assert.Equal(t, types.TipStatusPending, detail.Status)

		// Expiry is one hour out from the lookup, not from creation.
		assert.WithinDuration(t, before.Add(time.Hour), detail.ExpiresAt, 5*time.Second)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		linkedUsers(users)

		_, err := svc.GetTip(ctx, 42)
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestCompleteTip(t *testing.T) {
	ctx := context.Background()

	createTip := func(t *testing.T, svc *TipService) *models.Tip {
		t.Helper()
		tip, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(100),
			Message:          "gg",
		})
		require.NoError(t, err)
		return tip
	}

	t.Run("transitions to completed and notifies once", func(t *testing.T) {
		svc, users, _, notifier := setupTipService()
		linkedUsers(users)
		tip := createTip(t, svc)

		completed, err := svc.CompleteTip(ctx, tip.ID, "0xdeadbeef")
		require.NoError(t, err)
		assert.Equal(t, types.TipStatusCompleted, completed.Status)
		assert.Equal(t, "0xdeadbeef", completed.TxHash)
		require.NotNil(t, completed.CompletedAt)

		require.Len(t, notifier.notifications, 1)
		n := notifier.notifications[0]
		assert.Equal(t, "1002", n.ReceiverTelegramID)
		assert.Equal(t, "alice", n.SenderUsername)
		assert.Equal(t, "100", n.Amount)
		assert.Equal(t, "gg", n.Message)
		assert.Equal(t, "0xdeadbeef", n.TxHash)
	})

	t.Run("repeat completion overwrites without error", func(t *testing.T) {
		svc, users, _, notifier := setupTipService()
		linkedUsers(users)
		tip := createTip(t, svc)

		_, err := svc.CompleteTip(ctx, tip.ID, "0xaaa111")
		require.NoError(t, err)

		again, err := svc.CompleteTip(ctx, tip.ID, "0xbbb222")
		require.NoError(t, err)
		assert.Equal(t, "0xbbb222", again.TxHash)
		assert.Equal(t, types.TipStatusCompleted, again.Status)

		// Each completion makes its own delivery attempt.
		assert.Len(t, notifier.notifications, 2)
	})

	t.Run("notifier failure does not fail the completion", func(t *testing.T) {
		svc, users, _, notifier := setupTipService()
		linkedUsers(users)
		tip := createTip(t, svc)

		notifier.err = errors.New("telegram down")
		completed, err := svc.CompleteTip(ctx, tip.ID, "0xdeadbeef")
		require.NoError(t, err)
		assert.Equal(t, types.TipStatusCompleted, completed.Status)
		assert.Len(t, notifier.notifications, 1)
	})

	t.Run("unknown id returns not found and creates nothing", func(t *testing.T) {
		svc, users, tips, notifier := setupTipService()
		linkedUsers(users)

		_, err := svc.CompleteTip(ctx, 7, "0xdeadbeef")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Empty(t, tips.tips)
		assert.Empty(t, notifier.notifications)
	})

	t.Run("empty tx hash is rejected", func(t *testing.T) {
		svc, users, _, _ := setupTipService()
		linkedUsers(users)
		tip := createTip(t, svc)

		_, err := svc.CompleteTip(ctx, tip.ID, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		stored, err := svc.GetTip(ctx, tip.ID)
		require.NoError(t, err)
		assert.Equal(t, types.TipStatusPending, stored.Status)
	})

	t.Run("sender without username falls back to Someone", func(t *testing.T) {
		svc, users, _, notifier := setupTipService()
		users.addUser("1001", "", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		users.addUser("1002", "bob", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
		tip := createTip(t, svc)

		_, err := svc.CompleteTip(ctx, tip.ID, "0xdeadbeef")
		require.NoError(t, err)
		require.Len(t, notifier.notifications, 1)
		assert.Equal(t, "Someone", notifier.notifications[0].SenderUsername)
	})
}

func TestTipLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, users, _, notifier := setupTipService()
	linkedUsers(users)

	tip, err := svc.CreateTip(ctx, &CreateTipInput{
		SenderTelegramID: "1001",
		ReceiverUsername: "bob",
		AmountWei:        wei(100),
		Message:          "first tip",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tip.ID)

	detail, err := svc.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TipStatusPending, detail.Status)
	assert.Equal(t, "100", detail.AmountHuman)

	completed, err := svc.CompleteTip(ctx, tip.ID, "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, types.TipStatusCompleted, completed.Status)
	assert.Equal(t, "0xdeadbeef", completed.TxHash)
	assert.Len(t, notifier.notifications, 1)

	history, err := svc.ListTipsForUser(ctx, "1001", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, tip.ID, history[0].ID)
}

func TestListTipsForUser(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := setupTipService()
	linkedUsers(users)

	for i := 0; i < 15; i++ {
		_, err := svc.CreateTip(ctx, &CreateTipInput{
			SenderTelegramID: "1001",
			ReceiverUsername: "bob",
			AmountWei:        wei(int64(i + 1)),
		})
		require.NoError(t, err)
	}

	// Default limit is 10, most recent first.
	history, err := svc.ListTipsForUser(ctx, "1001", 0)
	require.NoError(t, err)
	require.Len(t, history, 10)
	assert.Equal(t, int64(15), history[0].ID)
	assert.Equal(t, int64(6), history[9].ID)
}
