// server.go - JSON-RPC-over-HTTP mirror surface for the privacy pool.
//
// The indexer mirrors public pool records. Methods are exposed twice: through
// a single JSON-RPC 2.0 endpoint and through a parallel REST surface where
// every method name is also a POST path. Unknown methods answer the JSON-RPC
// method-not-found code -32601 on both surfaces.

package indexer

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/styxlabs/shieldpool/internal/pool"
	"github.com/styxlabs/shieldpool/internal/shield"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Privacy-extension method names. Each is also a POST path on the REST
// surface.
const (
	MethodNotesByOwner    = "getShieldedNotesByOwner"
	MethodNullifierStatus = "getNullifierStatus"
	MethodPoolStats       = "getPrivacyPoolStats"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// Server serves the indexer mirror for one pool.
type Server struct {
	pool   *pool.Pool
	log    zerolog.Logger
	engine *gin.Engine
}

// NewServer builds the gin engine with the RPC endpoint, the REST mirror
// paths and any extra middleware (rate limiting, auth) from the caller.
func NewServer(p *pool.Pool, log zerolog.Logger, middleware ...gin.HandlerFunc) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		pool: p,
		log:  log.With().Str("component", "indexer").Logger(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.Use(middleware...)

	engine.POST("/rpc", s.handleRPC)
	for _, method := range []string{MethodNotesByOwner, MethodNullifierStatus, MethodPoolStats} {
		engine.POST("/"+method, s.handleREST(method))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeMethodNotFound, Message: "method not found"},
		})
	})

	s.engine = engine
	return s
}

// Handler exposes the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requestLogger tags every request with a uuid and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.New().String()
		c.Set("request_id", reqID)
		c.Header("X-Request-Id", reqID)
		c.Next()
		s.log.Debug().
			Str("request_id", reqID).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request served")
	}
}

// handleRPC is the JSON-RPC 2.0 endpoint.
func (s *Server) handleRPC(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: codeInvalidRequest, Message: "invalid request"},
		})
		return
	}
	result, rpcErr := s.dispatch(req.Method, req.Params)
	c.JSON(http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

// handleREST serves one method as a plain POST path; the body is the params
// object of the equivalent RPC call.
func (s *Server) handleREST(method string) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, rpcError{Code: codeParseError, Message: "parse error"})
			return
		}
		result, rpcErr := s.dispatch(method, params)
		if rpcErr != nil {
			c.JSON(http.StatusBadRequest, rpcErr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// dispatch routes one method call. Unknown methods get -32601.
func (s *Server) dispatch(method string, params json.RawMessage) (interface{}, *rpcError) {
	switch method {
	case MethodNotesByOwner:
		return s.notesByOwner(params)
	case MethodNullifierStatus:
		return s.nullifierStatus(params)
	case MethodPoolStats:
		return statsView(s.pool.Stats()), nil
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found: " + method}
	}
}

func (s *Server) notesByOwner(params json.RawMessage) (interface{}, *rpcError) {
	var p struct {
		Owner string `json:"owner"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params"}
	}
	owner, err := parseBytes32("owner", p.Owner)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	tag := shield.OwnerTag(owner)
	views := make([]NoteView, 0)
	for _, rec := range s.pool.Notes() {
		if rec.Owner == tag {
			views = append(views, noteView(rec))
		}
	}
	return views, nil
}

// nullifierStatus answers both a single lookup {"nullifier": ...} and a
// batched lookup {"nullifiers": [...]}.
func (s *Server) nullifierStatus(params json.RawMessage) (interface{}, *rpcError) {
	var p struct {
		Nullifier  string   `json:"nullifier"`
		Nullifiers []string `json:"nullifiers"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params"}
	}
	switch {
	case p.Nullifier != "":
		nf, err := parseBytes32("nullifier", p.Nullifier)
		if err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		return NullifierView{
			Nullifier: p.Nullifier,
			Spent:     s.pool.NullifierSpent(shield.Nullifier(nf)),
		}, nil
	case len(p.Nullifiers) > 0:
		views := make([]NullifierView, 0, len(p.Nullifiers))
		for _, raw := range p.Nullifiers {
			nf, err := parseBytes32("nullifiers", raw)
			if err != nil {
				return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
			}
			views = append(views, NullifierView{
				Nullifier: raw,
				Spent:     s.pool.NullifierSpent(shield.Nullifier(nf)),
			})
		}
		return views, nil
	default:
		return nil, &rpcError{Code: codeInvalidParams, Message: "nullifier or nullifiers required"}
	}
}
