package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultTimeout はhttpClient未指定時のリクエストタイムアウト。
	defaultTimeout = 10 * time.Second
	// maxResponseBytes は読み取るレスポンスボディの上限。
	maxResponseBytes = 4 << 20
)

// APIClient はストアAPIのクライアント。
// すべてのメソッドはエンベロープをデコードしたResultを返し、errorは返さない。
type APIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewAPIClient はAPIClientを生成する。httpClientとloggerはnilの場合デフォルトを使う。
func NewAPIClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APIClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ListFavorites はログインユーザーのお気に入り商品IDを返す。
func (c *APIClient) ListFavorites(ctx context.Context, token string) Result[[]int64] {
	res := call[[]int64](ctx, c, http.MethodGet, "/favorites", token, nil)
	if res.IsOk() && res.value == nil {
		res.value = []int64{}
	}
	return res
}

// AddFavorite は商品をお気に入りに追加する。登録済みの場合も成功を返す。
func (c *APIClient) AddFavorite(ctx context.Context, token string, productID int64) Result[Favorite] {
	return call[Favorite](ctx, c, http.MethodPost, favoritePath(productID), token, nil)
}

// RemoveFavorite は商品をお気に入りから解除する。
func (c *APIClient) RemoveFavorite(ctx context.Context, token string, productID int64) Result[struct{}] {
	return call[struct{}](ctx, c, http.MethodDelete, favoritePath(productID), token, nil)
}

// CheckToken はトークンの有効性を確認し、ユーザー情報を返す。
func (c *APIClient) CheckToken(ctx context.Context, token string) Result[User] {
	return call[User](ctx, c, http.MethodGet, "/auth/check", token, nil)
}

// Login はメールアドレスとパスワードでログインする。
func (c *APIClient) Login(ctx context.Context, email, password string) Result[Session] {
	body := map[string]string{"email": email, "password": password}
	return call[Session](ctx, c, http.MethodPost, "/auth/login", "", body)
}

// Register はユーザーを登録する。
func (c *APIClient) Register(ctx context.Context, email, password, name string) Result[Session] {
	body := map[string]string{"email": email, "password": password, "name": name}
	return call[Session](ctx, c, http.MethodPost, "/auth/register", "", body)
}

// ListProducts は商品一覧を返す。categoryが空の場合は全カテゴリ。
func (c *APIClient) ListProducts(ctx context.Context, category string) Result[[]Product] {
	path := "/products"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	res := call[[]Product](ctx, c, http.MethodGet, path, "", nil)
	if res.IsOk() && res.value == nil {
		res.value = []Product{}
	}
	return res
}

func favoritePath(productID int64) string {
	return "/favorites/" + strconv.FormatInt(productID, 10)
}

// call はリクエストを送信し、応答のエンベロープをResult[T]にデコードする。
func call[T any](ctx context.Context, c *APIClient, method, path, token string, body any) Result[T] {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Err[T](&Error{Kind: KindInternal, Message: fmt.Sprintf("リクエストの生成に失敗しました: %v", err)})
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Err[T](&Error{Kind: KindInternal, Message: fmt.Sprintf("リクエストの生成に失敗しました: %v", err)})
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("APIの呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return Err[T](&Error{Kind: KindTransport, Message: "サーバーに接続できませんでした。"})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Err[T](&Error{Kind: KindTransport, Status: resp.StatusCode, Message: "レスポンスの読み取りに失敗しました。"})
	}

	return decodeEnvelope[T](raw, resp.StatusCode)
}

// decodeEnvelope はエンベロープを明示的に解釈する。
// successを持たない応答やdataの型が合わない応答はKindTransportとする。
func decodeEnvelope[T any](raw []byte, status int) Result[T] {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
		return Err[T](&Error{
			Kind:    KindTransport,
			Status:  status,
			Message: fmt.Sprintf("予期しない応答です（HTTP %d）", status),
		})
	}

	if !*env.Success {
		var detail errorDetail
		if len(env.Data) > 0 {
			// dataが想定外の形でもメッセージとステータスで分類できるため無視する
			_ = json.Unmarshal(env.Data, &detail)
		}
		return Err[T](&Error{
			Kind:    kindFromCode(detail.Code, status),
			Code:    detail.Code,
			Message: env.Message,
			Status:  status,
		})
	}

	var value T
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &value); err != nil {
			return Err[T](&Error{
				Kind:    KindTransport,
				Status:  status,
				Message: "応答データの形式が不正です。",
			})
		}
	}
	return Ok(value, env.Message)
}

// IsKind はerrがResultの失敗で、指定の分類かどうかを返す。
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
