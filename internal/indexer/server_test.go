package indexer

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/styxlabs/shieldpool/internal/pool"
	"github.com/styxlabs/shieldpool/internal/prover"
	"github.com/styxlabs/shieldpool/internal/shield"
)

type fixture struct {
	pool   *pool.Pool
	server *Server
	owner  shield.OwnerTag
	spent  shield.Nullifier
	fresh  shield.Nullifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := pool.New(pool.Config{}, prover.AcceptAll{}, zerolog.Nop())

	var owner shield.OwnerTag
	owner[0] = 0xA1
	var asset shield.AssetID
	asset[0] = 0x01

	r1, err := p.Deposit(asset, 1000, owner)
	require.NoError(t, err)
	r2, err := p.Deposit(asset, 2000, owner)
	require.NoError(t, err)

	var other shield.OwnerTag
	other[0] = 0xB2
	_, err = p.Deposit(asset, 3000, other)
	require.NoError(t, err)

	_, err = p.Withdraw(pool.WithdrawRequest{Note: r1.Note})
	require.NoError(t, err)

	return &fixture{
		pool:   p,
		server: NewServer(p, zerolog.Nop()),
		owner:  owner,
		spent:  r1.Note.Nullifier(),
		fresh:  r2.Note.Nullifier(),
	}
}

func (f *fixture) rpc(t *testing.T, method string, params interface{}) rpcResponse {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

func TestNotesByOwner(t *testing.T) {
	f := newFixture(t)
	resp := f.rpc(t, MethodNotesByOwner, map[string]string{
		"owner": hex.EncodeToString(f.owner[:]),
	})
	require.Nil(t, resp.Error)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var views []NoteView
	require.NoError(t, json.Unmarshal(raw, &views))

	require.Len(t, views, 2, "only the queried owner's notes are returned")
	assert.Equal(t, int64(0), views[0].LeafIndex)
	assert.Equal(t, int64(1), views[1].LeafIndex)
	assert.Equal(t, hex.EncodeToString(f.owner[:]), views[0].Owner)
}

func TestNotesByOwnerUnknownOwnerEmpty(t *testing.T) {
	f := newFixture(t)
	unknown := bytes.Repeat([]byte{0xEE}, 32)
	resp := f.rpc(t, MethodNotesByOwner, map[string]string{
		"owner": hex.EncodeToString(unknown),
	})
	require.Nil(t, resp.Error)

	raw, _ := json.Marshal(resp.Result)
	var views []NoteView
	require.NoError(t, json.Unmarshal(raw, &views))
	require.Empty(t, views)
}

func TestNotesByOwnerInvalidParams(t *testing.T) {
	f := newFixture(t)
	resp := f.rpc(t, MethodNotesByOwner, map[string]string{"owner": "zzzz"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestNullifierStatusSingle(t *testing.T) {
	f := newFixture(t)

	resp := f.rpc(t, MethodNullifierStatus, map[string]string{
		"nullifier": hex.EncodeToString(f.spent[:]),
	})
	require.Nil(t, resp.Error)
	raw, _ := json.Marshal(resp.Result)
	var view NullifierView
	require.NoError(t, json.Unmarshal(raw, &view))
	require.True(t, view.Spent)

	resp = f.rpc(t, MethodNullifierStatus, map[string]string{
		"nullifier": hex.EncodeToString(f.fresh[:]),
	})
	require.Nil(t, resp.Error)
	raw, _ = json.Marshal(resp.Result)
	require.NoError(t, json.Unmarshal(raw, &view))
	require.False(t, view.Spent)
}

func TestNullifierStatusBatched(t *testing.T) {
	f := newFixture(t)
	resp := f.rpc(t, MethodNullifierStatus, map[string][]string{
		"nullifiers": {
			hex.EncodeToString(f.spent[:]),
			hex.EncodeToString(f.fresh[:]),
		},
	})
	require.Nil(t, resp.Error)

	raw, _ := json.Marshal(resp.Result)
	var views []NullifierView
	require.NoError(t, json.Unmarshal(raw, &views))
	require.Len(t, views, 2)
	assert.True(t, views[0].Spent)
	assert.False(t, views[1].Spent)
}

func TestNullifierStatusMissingParams(t *testing.T) {
	f := newFixture(t)
	resp := f.rpc(t, MethodNullifierStatus, map[string]string{})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestPoolStats(t *testing.T) {
	f := newFixture(t)
	resp := f.rpc(t, MethodPoolStats, nil)
	require.Nil(t, resp.Error)

	raw, _ := json.Marshal(resp.Result)
	var view StatsView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.Equal(t, 3, view.LeafCount)
	assert.Equal(t, 2, view.TreeHeight)
	assert.Equal(t, 1, view.SpentCount)
	assert.Equal(t, uint64(3), view.Deposits)
	assert.Equal(t, uint64(1), view.Withdrawals)
	root := f.pool.Root()
	assert.Equal(t, hex.EncodeToString(root[:]), view.Root)
}

func TestUnknownMethod(t *testing.T) {
	f := newFixture(t)
	resp := f.rpc(t, "getBlockHeight", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestParseError(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte("{not json")))
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeParseError, resp.Error.Code)
}

func TestInvalidRequestVersion(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	body := fmt.Sprintf(`{"jsonrpc":"1.0","id":1,"method":%q}`, MethodPoolStats)
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte(body)))
	f.server.Handler().ServeHTTP(rec, req)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)
}

func TestRESTSurface(t *testing.T) {
	f := newFixture(t)

	body := fmt.Sprintf(`{"nullifier":%q}`, hex.EncodeToString(f.spent[:]))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/"+MethodNullifierStatus, bytes.NewReader([]byte(body)))
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view NullifierView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.True(t, view.Spent)

	// Invalid params surface as HTTP 400 on the REST paths.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/"+MethodNullifierStatus, bytes.NewReader([]byte(`{}`)))
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownPathMethodNotFound(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/getBlockHeight", nil)
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/"+MethodPoolStats, bytes.NewReader([]byte(`{}`)))
	f.server.Handler().ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
