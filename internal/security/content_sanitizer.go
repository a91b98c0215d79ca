// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は管理者が入力する商品情報のテキストをサニタイズし、
// ストアフロントでのXSSを防ぐ。bluemondayの許可リストポリシーを使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は商品テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// PlainText は全てのタグを除去し、前後の空白を取り除いたテキストを返す。
	// 商品名・カテゴリに使用する。
	PlainText(raw string) string

	// RichText は簡単な書式タグ（p, br, ul, ol, li, strong, em）のみを残したHTMLを返す。
	// 商品説明に使用する。script, iframe, styleタグおよびon*属性は除去される。
	RichText(raw string) string
}

// contentSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type contentSanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

// NewContentSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewContentSanitizer() TextSanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	return &contentSanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   rich,
	}
}

// PlainText はタグを除去したプレーンテキストを返す。
// bluemondayがエスケープした実体参照は元の文字に戻す。
func (s *contentSanitizer) PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}

// RichText は許可タグのみを残したHTMLを返す。
func (s *contentSanitizer) RichText(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}
