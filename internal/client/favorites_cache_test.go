package client

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// --- モック定義 ---

// mockFavoritesAPI はFavoritesAPIのモック実装。呼び出しを記録する。
type mockFavoritesAPI struct {
	mu       sync.Mutex
	calls    []string
	listFn   func(ctx context.Context, token string) Result[[]int64]
	addFn    func(ctx context.Context, token string, productID int64) Result[Favorite]
	removeFn func(ctx context.Context, token string, productID int64) Result[struct{}]
}

func (m *mockFavoritesAPI) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockFavoritesAPI) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockFavoritesAPI) ListFavorites(ctx context.Context, token string) Result[[]int64] {
	m.record("list")
	if m.listFn != nil {
		return m.listFn(ctx, token)
	}
	return Ok([]int64{}, "")
}

func (m *mockFavoritesAPI) AddFavorite(ctx context.Context, token string, productID int64) Result[Favorite] {
	m.record("add")
	if m.addFn != nil {
		return m.addFn(ctx, token, productID)
	}
	return Ok(Favorite{ProductID: productID}, "added")
}

func (m *mockFavoritesAPI) RemoveFavorite(ctx context.Context, token string, productID int64) Result[struct{}] {
	m.record("remove")
	if m.removeFn != nil {
		return m.removeFn(ctx, token, productID)
	}
	return Ok(struct{}{}, "removed")
}

// recordingNotifier は通知を記録する。
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

// recordingNavigator はログイン画面への誘導回数を記録する。
type recordingNavigator struct {
	redirects int
}

func (n *recordingNavigator) RedirectToLogin() {
	n.redirects++
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Load / Reset ---

func TestFavoritesCache_InitialStateIsUnloaded(t *testing.T) {
	c := NewFavoritesCache(&mockFavoritesAPI{}, nil, nil)
	if c.State() != Unloaded {
		t.Errorf("State() = %v, want %v", c.State(), Unloaded)
	}
}

func TestFavoritesCache_LoadWithoutTokenIsEmptyAndOffline(t *testing.T) {
	api := &mockFavoritesAPI{}
	c := NewFavoritesCache(api, nil, nil)

	if err := c.Load(context.Background(), ""); err != nil {
		t.Fatalf("Load err = %v", err)
	}
	if c.State() != Loaded {
		t.Errorf("State() = %v, want %v", c.State(), Loaded)
	}
	if len(c.IDs()) != 0 {
		t.Errorf("IDs() = %v, want []", c.IDs())
	}
	if api.callCount() != 0 {
		t.Errorf("API呼び出し回数 = %d, want 0", api.callCount())
	}
}

func TestFavoritesCache_LoadReplacesWholesale(t *testing.T) {
	lists := [][]int64{{1, 2, 3}, {9}}
	n := 0
	api := &mockFavoritesAPI{
		listFn: func(ctx context.Context, token string) Result[[]int64] {
			res := Ok(lists[n], "")
			n++
			return res
		},
	}
	c := NewFavoritesCache(api, nil, nil)

	c.Load(context.Background(), "tok")
	if !equalIDs(c.IDs(), []int64{1, 2, 3}) {
		t.Errorf("IDs() = %v, want [1 2 3]", c.IDs())
	}

	c.Load(context.Background(), "tok-other-user")
	if !equalIDs(c.IDs(), []int64{9}) {
		t.Errorf("IDs() = %v, want [9]", c.IDs())
	}
	if c.State() != Loaded {
		t.Errorf("State() = %v, want %v", c.State(), Loaded)
	}
}

func TestFavoritesCache_ReloadingWhileListInFlight(t *testing.T) {
	var c *FavoritesCache
	var during CacheState
	api := &mockFavoritesAPI{
		listFn: func(ctx context.Context, token string) Result[[]int64] {
			during = c.State()
			return Ok([]int64{4}, "")
		},
	}
	c = NewFavoritesCache(api, nil, nil)

	c.Load(context.Background(), "tok")
	if during != Reloading {
		t.Errorf("取得中のState = %v, want %v", during, Reloading)
	}
}

func TestFavoritesCache_LoadFailureKeepsPreviousState(t *testing.T) {
	fail := false
	api := &mockFavoritesAPI{
		listFn: func(ctx context.Context, token string) Result[[]int64] {
			if fail {
				return Err[[]int64](&Error{Kind: KindInternal, Message: "boom"})
			}
			return Ok([]int64{5}, "")
		},
	}
	notifier := &recordingNotifier{}
	c := NewFavoritesCache(api, notifier, nil)
	c.Load(context.Background(), "tok")

	fail = true
	err := c.Load(context.Background(), "tok")
	if !IsKind(err, KindInternal) {
		t.Errorf("err = %v, want internal", err)
	}
	if c.State() != Loaded || !equalIDs(c.IDs(), []int64{5}) {
		t.Errorf("State() = %v IDs() = %v, want loaded [5]", c.State(), c.IDs())
	}
	if len(notifier.errors) != 1 || notifier.errors[0] != "boom" {
		t.Errorf("errors = %v", notifier.errors)
	}
}

func TestFavoritesCache_StaleLoadIsDiscardedAfterReset(t *testing.T) {
	var c *FavoritesCache
	api := &mockFavoritesAPI{
		listFn: func(ctx context.Context, token string) Result[[]int64] {
			// 取得中にログアウトされた
			c.Reset()
			return Ok([]int64{1, 2}, "")
		},
	}
	c = NewFavoritesCache(api, nil, nil)

	if err := c.Load(context.Background(), "tok"); err != nil {
		t.Fatalf("Load err = %v", err)
	}
	if len(c.IDs()) != 0 {
		t.Errorf("ログアウト後に古い一覧で上書きされた: %v", c.IDs())
	}
}

// --- Toggle ---

func TestFavoritesCache_ToggleAnonymousRedirectsWithoutNetwork(t *testing.T) {
	api := &mockFavoritesAPI{}
	navigator := &recordingNavigator{}
	notifier := &recordingNotifier{}
	c := NewFavoritesCache(api, notifier, navigator)
	c.Load(context.Background(), "")

	fav, err := c.Toggle(context.Background(), "", 7)
	if !errors.Is(err, ErrLoginRequired) {
		t.Errorf("err = %v, want ErrLoginRequired", err)
	}
	if fav {
		t.Error("未ログインで反転してはならない")
	}
	if navigator.redirects != 1 {
		t.Errorf("redirects = %d, want 1", navigator.redirects)
	}
	if api.callCount() != 0 {
		t.Errorf("API呼び出し回数 = %d, want 0", api.callCount())
	}
	if c.Contains(7) {
		t.Error("Contains(7) = true, want false")
	}
}

func TestFavoritesCache_ToggleAddsThenRemoves(t *testing.T) {
	api := &mockFavoritesAPI{}
	notifier := &recordingNotifier{}
	c := NewFavoritesCache(api, notifier, nil)
	c.Load(context.Background(), "tok")

	fav, err := c.Toggle(context.Background(), "tok", 7)
	if err != nil || !fav || !c.Contains(7) {
		t.Fatalf("1回目: fav=%v err=%v contains=%v", fav, err, c.Contains(7))
	}

	fav, err = c.Toggle(context.Background(), "tok", 7)
	if err != nil || fav || c.Contains(7) {
		t.Fatalf("2回目: fav=%v err=%v contains=%v", fav, err, c.Contains(7))
	}

	want := []string{"list", "add", "remove"}
	if len(api.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", api.calls, want)
	}
	for i := range want {
		if api.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, api.calls[i], want[i])
		}
	}
	if len(notifier.successes) != 2 || notifier.successes[0] != "added" || notifier.successes[1] != "removed" {
		t.Errorf("successes = %v", notifier.successes)
	}
}

func TestFavoritesCache_ToggleIsOptimistic(t *testing.T) {
	var c *FavoritesCache
	var containsDuringCall bool
	api := &mockFavoritesAPI{
		addFn: func(ctx context.Context, token string, productID int64) Result[Favorite] {
			containsDuringCall = c.Contains(productID)
			return Ok(Favorite{ProductID: productID}, "")
		},
	}
	c = NewFavoritesCache(api, nil, nil)
	c.Load(context.Background(), "tok")

	c.Toggle(context.Background(), "tok", 3)
	if !containsDuringCall {
		t.Error("サーバー応答前にローカルへ反映されていない")
	}
}

func TestFavoritesCache_ToggleFailureReverts(t *testing.T) {
	tests := []struct {
		name    string
		initial []int64
		api     *mockFavoritesAPI
		want    bool
	}{
		{
			name:    "追加失敗",
			initial: []int64{},
			api: &mockFavoritesAPI{
				addFn: func(ctx context.Context, token string, productID int64) Result[Favorite] {
					return Err[Favorite](&Error{Kind: KindNotFound, Message: "商品が見つかりません"})
				},
			},
			want: false,
		},
		{
			name:    "解除失敗（通信エラー）",
			initial: []int64{7},
			api: &mockFavoritesAPI{
				removeFn: func(ctx context.Context, token string, productID int64) Result[struct{}] {
					return Err[struct{}](&Error{Kind: KindTransport, Message: "サーバーに接続できませんでした。"})
				},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initial := tt.initial
			tt.api.listFn = func(ctx context.Context, token string) Result[[]int64] {
				return Ok(initial, "")
			}
			notifier := &recordingNotifier{}
			c := NewFavoritesCache(tt.api, notifier, nil)
			c.Load(context.Background(), "tok")

			fav, err := c.Toggle(context.Background(), "tok", 7)
			if err == nil {
				t.Fatal("err = nil, want error")
			}
			if fav != tt.want {
				t.Errorf("返り値 = %v, want %v", fav, tt.want)
			}
			if c.Contains(7) != tt.want {
				t.Errorf("Contains(7) = %v, want %v（元に戻すべき）", c.Contains(7), tt.want)
			}
			if len(notifier.errors) != 1 {
				t.Errorf("errors = %v, want 1件", notifier.errors)
			}
		})
	}
}

func TestFavoritesCache_FilterKeepsCatalogOrder(t *testing.T) {
	api := &mockFavoritesAPI{
		listFn: func(ctx context.Context, token string) Result[[]int64] {
			return Ok([]int64{3, 1}, "")
		},
	}
	c := NewFavoritesCache(api, nil, nil)
	c.Load(context.Background(), "tok")

	catalog := []Product{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}
	got := c.Filter(catalog)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Filter() = %+v, want ids [1 3]", got)
	}
}

func TestFavoritesCache_ToggleDuringReloadSurvivesLoad(t *testing.T) {
	tests := []struct {
		name    string
		listed  []int64 // 一覧の取得時点のサーバー状態
		initial []int64
		fail    bool
		want    bool
	}{
		{name: "追加が一覧に反映されていない", listed: []int64{}, want: true},
		{name: "解除が一覧に反映されていない", initial: []int64{7}, listed: []int64{7}, want: false},
		{name: "追加が失敗した", listed: []int64{}, fail: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c *FavoritesCache
			reloading := false
			api := &mockFavoritesAPI{}
			api.addFn = func(ctx context.Context, token string, productID int64) Result[Favorite] {
				if tt.fail {
					return Err[Favorite](&Error{Kind: KindInternal, Message: "boom"})
				}
				return Ok(Favorite{ProductID: productID}, "")
			}
			api.listFn = func(ctx context.Context, token string) Result[[]int64] {
				if !reloading {
					return Ok(tt.initial, "")
				}
				// 一覧の応答より先に、利用者がハートを押した
				c.Toggle(ctx, token, 7)
				return Ok(tt.listed, "")
			}
			c = NewFavoritesCache(api, nil, nil)
			c.Load(context.Background(), "tok")

			reloading = true
			if err := c.Load(context.Background(), "tok"); err != nil {
				t.Fatalf("Load err = %v", err)
			}
			if c.Contains(7) != tt.want {
				t.Errorf("Contains(7) = %v, want %v", c.Contains(7), tt.want)
			}
			if c.State() != Loaded {
				t.Errorf("State() = %v, want %v", c.State(), Loaded)
			}
		})
	}
}

func TestFavoritesCache_CompletedFlipNotReappliedByLaterLoad(t *testing.T) {
	var c *FavoritesCache
	lists := [][]int64{{}, {}, {3}}
	n := 0
	api := &mockFavoritesAPI{
		listFn: func(ctx context.Context, token string) Result[[]int64] {
			if n == 1 {
				c.Toggle(ctx, token, 7)
			}
			res := Ok(lists[n], "")
			n++
			return res
		},
	}
	c = NewFavoritesCache(api, nil, nil)
	c.Load(context.Background(), "tok")
	c.Load(context.Background(), "tok")

	// 次の一覧はサーバーの状態をそのまま表す
	c.Load(context.Background(), "tok")
	if !equalIDs(c.IDs(), []int64{3}) {
		t.Errorf("IDs() = %v, want [3]", c.IDs())
	}
}

func TestFavoritesCache_ResetDropsInFlightFlip(t *testing.T) {
	var c *FavoritesCache
	api := &mockFavoritesAPI{}
	api.addFn = func(ctx context.Context, token string, productID int64) Result[Favorite] {
		// 応答待ちの間にログアウトされた
		c.Reset()
		return Err[Favorite](&Error{Kind: KindTransport, Message: "offline"})
	}
	c = NewFavoritesCache(api, nil, nil)
	c.Load(context.Background(), "tok")

	c.Toggle(context.Background(), "tok", 7)
	if c.Contains(7) || len(c.IDs()) != 0 {
		t.Errorf("IDs() = %v, want []", c.IDs())
	}
}
