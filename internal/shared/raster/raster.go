// Package raster は画像処理バックエンドに依存しない、デコード済み画像の抽象を定義します。
package raster

import "image"

// Image はリクエスト単位で所有されるデコード済みBGR画像です。
// 利用者は処理完了後に必ずCloseを呼び出します。
type Image interface {
	Bounds() image.Rectangle
	Close() error
}
