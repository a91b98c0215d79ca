package client

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrLoginRequired は未ログイン状態でお気に入りを操作しようとした場合のエラー。
var ErrLoginRequired = errors.New("client: login required")

// CacheState はFavoritesCacheの状態。
type CacheState int

const (
	// Unloaded は初期状態。まだ一度も読み込んでいない。
	Unloaded CacheState = iota
	// Loaded はサーバーの一覧（未ログイン時は空集合）を保持している状態。
	Loaded
	// Reloading は認証状態の変化に伴う再読み込み中の状態。
	Reloading
)

func (s CacheState) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Reloading:
		return "reloading"
	default:
		return "unloaded"
	}
}

// FavoritesAPI はFavoritesCacheが使うAPI呼び出し。*APIClientが満たす。
type FavoritesAPI interface {
	ListFavorites(ctx context.Context, token string) Result[[]int64]
	AddFavorite(ctx context.Context, token string, productID int64) Result[Favorite]
	RemoveFavorite(ctx context.Context, token string, productID int64) Result[struct{}]
}

// Notifier は利用者への通知（トースト）を表示する。
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator は画面遷移を行う。
type Navigator interface {
	RedirectToLogin()
}

// FavoritesCache はログインユーザーのお気に入り商品IDのクライアント側の写し。
// 商品一覧のハートアイコンとお気に入り画面がこれを参照する。
//
// Toggleは楽観的に反映し、サーバーが失敗を返した場合は元に戻して通知する。
// ネットワーク呼び出しの間はロックを保持しない。
type FavoritesCache struct {
	api       FavoritesAPI
	notifier  Notifier
	navigator Navigator

	mu    sync.Mutex
	state CacheState
	ids   []int64 // 登録順
	// generation はLoad/Resetごとに進み、古い応答による上書きを防ぐ
	generation uint64
	// pending は応答待ち、または再読み込み中に完了した反転。商品ID -> 反転後の状態
	pending map[int64]*pendingFlip
	seq     uint64
}

// pendingFlip はToggleによるローカルの反転。
// 再読み込みで集合が置き換わっても、Loadの完了時に適用し直す。
type pendingFlip struct {
	seq      uint64
	favorite bool
	done     bool // サーバーが成功を返した
}

// NewFavoritesCache はUnloaded状態のFavoritesCacheを生成する。
func NewFavoritesCache(api FavoritesAPI, notifier Notifier, navigator Navigator) *FavoritesCache {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if navigator == nil {
		navigator = nopNavigator{}
	}
	return &FavoritesCache{
		api:       api,
		notifier:  notifier,
		navigator: navigator,
		state:     Unloaded,
		pending:   make(map[int64]*pendingFlip),
	}
}

// Load はサーバーから一覧を取得し、保持する集合を丸ごと置き換える。
// tokenが空の場合は通信せずに空集合でLoadedとなる。
// 取得に失敗した場合は直前の状態に戻し、通知したうえでエラーを返す。
func (c *FavoritesCache) Load(ctx context.Context, token string) error {
	if token == "" {
		c.Reset()
		return nil
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	prevState := c.state
	c.state = Reloading
	c.mu.Unlock()

	res := c.api.ListFavorites(ctx, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// 取得中にログアウトや別の読み込みが行われた
		return nil
	}
	if !res.IsOk() {
		c.state = prevState
		c.dropDoneLocked()
		c.notifier.Error(res.Message())
		return res.Error()
	}
	c.ids = slices.Clone(res.Value())
	// 一覧の取得と並行したToggleは、一覧に反映されているとは限らない
	for productID, flip := range c.pending {
		c.setLocked(productID, flip.favorite)
	}
	c.dropDoneLocked()
	c.state = Loaded
	return nil
}

func (c *FavoritesCache) dropDoneLocked() {
	for productID, flip := range c.pending {
		if flip.done {
			delete(c.pending, productID)
		}
	}
}

// Reset はログアウト時に呼び、空集合のLoaded状態にする。
func (c *FavoritesCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.ids = nil
	clear(c.pending)
	c.state = Loaded
}

// Toggle は商品Pのお気に入り状態を反転し、反転後の状態を返す。
//
// tokenが空の場合は通信せずにログイン画面へ誘導し、ErrLoginRequiredを返す。
// それ以外は先にローカルの集合を反転してから、直前の状態に応じてAddまたはRemoveを呼ぶ。
// 失敗時はローカルの反転を取り消し、通知してエラーを返す。
// 再読み込み中に呼ばれた反転は、一覧の取得完了後も保持される。
func (c *FavoritesCache) Toggle(ctx context.Context, token string, productID int64) (bool, error) {
	if token == "" {
		c.navigator.RedirectToLogin()
		c.notifier.Error("お気に入りに保存するにはログインが必要です。")
		return false, ErrLoginRequired
	}

	c.mu.Lock()
	wasFavorite := slices.Contains(c.ids, productID)
	c.setLocked(productID, !wasFavorite)
	c.seq++
	flip := &pendingFlip{seq: c.seq, favorite: !wasFavorite}
	c.pending[productID] = flip
	c.mu.Unlock()

	var failure *Error
	var message string
	if wasFavorite {
		res := c.api.RemoveFavorite(ctx, token, productID)
		failure, message = res.Error(), res.Message()
	} else {
		res := c.api.AddFavorite(ctx, token, productID)
		failure, message = res.Error(), res.Message()
	}

	c.mu.Lock()
	// ログアウトや同じ商品への後続の操作で置き換わっていれば触れない
	current := c.pending[productID] == flip
	if failure != nil {
		if current {
			delete(c.pending, productID)
			c.setLocked(productID, wasFavorite)
		}
		c.mu.Unlock()
		c.notifier.Error(message)
		return wasFavorite, failure
	}
	if current {
		if c.state == Reloading {
			flip.done = true
		} else {
			delete(c.pending, productID)
		}
	}
	c.mu.Unlock()

	c.notifier.Success(message)
	return !wasFavorite, nil
}

func (c *FavoritesCache) setLocked(productID int64, favorite bool) {
	idx := slices.Index(c.ids, productID)
	switch {
	case favorite && idx < 0:
		c.ids = append(c.ids, productID)
	case !favorite && idx >= 0:
		c.ids = slices.Delete(c.ids, idx, idx+1)
	}
}

// Contains は商品がお気に入りに含まれるかを返す。
func (c *FavoritesCache) Contains(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.ids, productID)
}

// IDs はお気に入り商品IDのコピーを登録順で返す。
func (c *FavoritesCache) IDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.ids)
}

// State は現在の状態を返す。
func (c *FavoritesCache) State() CacheState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Filter は商品カタログからお気に入りの商品だけをカタログの順序で返す。
func (c *FavoritesCache) Filter(catalog []Product) []Product {
	c.mu.Lock()
	set := make(map[int64]struct{}, len(c.ids))
	for _, id := range c.ids {
		set[id] = struct{}{}
	}
	c.mu.Unlock()

	out := make([]Product, 0, len(set))
	for _, p := range catalog {
		if _, ok := set[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

type nopNavigator struct{}

func (nopNavigator) RedirectToLogin() {}
