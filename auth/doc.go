// Package auth is the credential verification facade.
//
// A Master owns an isolated secret registry, a token codec over it and a
// first-match-wins resolver. The subpackages carry the pieces:
//
//   - auth/keys      named secret registry with atomic replacement
//   - auth/token     HS256 issue/verify returning result envelopes
//   - auth/basic     Basic header parsing and optional bcrypt verification
//   - auth/extract   credential lookup in header, cookie and query
//   - auth/resolver  ordered multi-key resolution
//   - auth/authctx   resolved identity and its context propagation
//   - auth/envelope  the {data, success, message, code} result shape
//
// Transport adapters live in server/middleware (gin) and socket (websocket).
//
//	m := auth.New()
//	m.SetKeys(map[string]string{"adminToken": "s3cret", "userToken": "other"})
//	tok := m.Create(auth.IssueRequest{Data: user, KeyName: "userToken", ExpiresIn: token.MustParseExpiry("1h")})
//	res := m.Checker(tok.Data, "userToken")
//
// Config follows the usual Config/ApplyDefaults/Validate pattern so it can be
// loaded from YAML or env:
//
//	auth:
//	  enabled: true
//	  default_expires_in: "1h"
//	  keys:
//	    - name: adminToken
//	      secret: "..."
//	  bearer_keys: [adminToken, userToken]
package auth
