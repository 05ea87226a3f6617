package server

import (
	"context"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/gin-gonic/gin"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// serveWS upgrades the request and serves JSON-RPC over it until the client
// goes away. The connection receives every push notification meanwhile.
func (s *HTTPServer) serveWS(c *gin.Context) {
	conn, err := cws.Accept(c.Writer, c.Request, &cws.AcceptOptions{
		// Origins were already checked by the cors middleware.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warning("WebSocket upgrade failed: %v", err)
		return
	}

	srv := jrpc2.NewServer(s.rpc.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(&wsChannel{conn: conn, ctx: c.Request.Context()})
	s.notifier.Register(srv)
	defer s.notifier.Unregister(srv)

	s.log.Info("WebSocket client connected from %s", c.ClientIP())
	if err := srv.Wait(); err != nil && cws.CloseStatus(err) != cws.StatusNormalClosure {
		s.log.Info("WebSocket client %s disconnected: %v", c.ClientIP(), err)
	}
}
