package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/authmaster/auth"
	"github.com/kbukum/authmaster/errors"
	"github.com/kbukum/authmaster/logger"
	"github.com/kbukum/authmaster/server"
	"github.com/kbukum/authmaster/server/middleware"
	"github.com/kbukum/authmaster/socket"
	"github.com/kbukum/authmaster/validation"
)

// issue handles POST /v1/tokens.
func (a *API) issue(c *gin.Context) {
	var req auth.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("invalid request body").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.Respond(c, a.master.Create(req))
}

// verify handles POST /v1/tokens/verify.
func (a *API) verify(c *gin.Context) {
	var req auth.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("invalid request body").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.Respond(c, a.master.Checker(req.Token, req.KeyName))
}

// parseBasic handles GET /v1/basic. It decodes the Authorization header
// without checking the password.
func (a *API) parseBasic(c *gin.Context) {
	server.Respond(c, a.master.Basic(c.GetHeader("Authorization")))
}

// anonymous is reported by me when no adapter attached an identity.
type anonymous struct {
	Authenticated bool `json:"authenticated"`
}

// me reports the identity attached by the adapter in front of it, or an
// anonymous marker.
func (a *API) me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		server.RespondOK(c, anonymous{})
		return
	}
	server.RespondOK(c, id)
}

// echoReply is sent back for every message a socket receives.
type echoReply struct {
	ID       string          `json:"id"`
	Identity *socket.Request `json:"identity"`
	Message  any             `json:"message"`
}

// echo serves one socket, answering each JSON message with the connection
// identity until the client goes away.
func (a *API) echo(s *socket.Socket) {
	for {
		var msg any
		if err := s.ReadJSON(&msg); err != nil {
			a.log.Debug("socket read ended", logger.Fields(
				logger.FieldSocketID, s.ID,
				logger.FieldError, err.Error(),
			))
			return
		}
		if err := s.WriteJSON(echoReply{ID: s.ID, Identity: s.Req, Message: msg}); err != nil {
			a.log.Warn("socket write failed", logger.Fields(
				logger.FieldSocketID, s.ID,
				logger.FieldError, err.Error(),
			))
			return
		}
	}
}
