package screenclient

import (
	"encoding/json"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tkoskin/praisecast/internal/domain"
)

// DialViewer returns the default AttachFunc: dial the server's
// websocket endpoint and join the resolved room as a viewer. The first
// message the server enqueues is the full snapshot, so the screen
// renders immediately.
func DialViewer(baseURL string, onEvent func([]byte)) AttachFunc {
	return func(pin domain.PIN) (ViewerConn, error) {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, err
		}
		scheme := "ws"
		if base.Scheme == "https" {
			scheme = "wss"
		}
		wsURL := url.URL{Scheme: scheme, Host: base.Host, Path: "/api/ws"}

		conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
		if err != nil {
			return nil, err
		}

		join, err := json.Marshal(map[string]string{
			"type": "viewer:join",
			"pin":  string(pin),
		})
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
			_ = conn.Close()
			return nil, err
		}

		v := &wsViewer{conn: conn}
		go v.readLoop(onEvent)
		return v, nil
	}
}

type wsViewer struct {
	conn *websocket.Conn
	once sync.Once
}

func (v *wsViewer) Close() error {
	v.once.Do(func() { _ = v.conn.Close() })
	return nil
}

func (v *wsViewer) readLoop(onEvent func([]byte)) {
	defer v.Close()
	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			return
		}
		if onEvent != nil {
			onEvent(data)
		}
	}
}
