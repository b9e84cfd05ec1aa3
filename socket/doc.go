// Package socket authenticates websocket connections once, at handshake time.
//
// A Server runs its middleware over the handshake before upgrading. The
// Authenticate middleware resolves the credential found in the handshake
// header or query and hangs the identity off Socket.Req for the lifetime of
// the connection:
//
//	srv := socket.NewServer(socket.WithLogger(log))
//	srv.Use(socket.Authenticate(m.Resolver(), []string{"adminToken", "userToken"}, socket.Required()))
//	srv.OnConnect(func(s *socket.Socket) {
//	    id, _ := s.Identity()
//	    ...
//	})
//	router.GET("/ws", gin.WrapH(srv))
//
// A middleware error rejects the handshake with a 401 envelope whose message
// is the error text; no connection is established.
package socket
