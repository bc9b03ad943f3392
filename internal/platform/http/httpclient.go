package http

import (
	"net"
	"net/http"
	"time"
)

// maxIdleConnsPerHost は分類サービスなど単一ホストへの同時接続で再利用するアイドル接続数です。
const maxIdleConnsPerHost = 16

// NewHTTPClient は外部の推論サービス呼び出し用に設定されたHTTPクライアントを作成します。
//
// 接続先は通常DeepFaceなど単一ホストのため、ホスト単位のアイドル接続数を
// デフォルトの2から引き上げています。timeoutはリクエスト全体の上限で、
// 0以下の場合はタイムアウトなしになります。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if timeout < 0 {
		timeout = 0
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
