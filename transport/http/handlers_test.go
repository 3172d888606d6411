package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/chirpnet/chirp-auth/adapters/store"
	"github.com/chirpnet/chirp-auth/adapters/tokenizer"
	"github.com/chirpnet/chirp-auth/adapters/verifier"
	"github.com/chirpnet/chirp-auth/internal/rate"
	"github.com/chirpnet/chirp-auth/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
}

func newTestServer(t *testing.T, opts ...service.Option) *testServer {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	mem := store.NewMemoryStore(0)
	svc := service.NewWalletAuthService(
		mem, mem, mem,
		tokenizer.NewJWTTokenizer(key),
		verifier.New(),
		opts...,
	)
	return &testServer{router: SetupRouter(svc), store: mem}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func signNonce(t *testing.T, key *ecdsa.PrivateKey, nonce string) string {
	t.Helper()
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(nonce), nonce)
	sig, err := ethcrypto.Sign(ethcrypto.Keccak256([]byte(msg)), key)
	require.NoError(t, err)
	return hexutil.Encode(sig)
}

// connect walks the full flow and returns the issued bearer token.
func (ts *testServer) connect(t *testing.T, key *ecdsa.PrivateKey) string {
	t.Helper()
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	rec := ts.do(t, http.MethodPost, "/auth/wallet/request-nonce", "", gin.H{"address": address})
	require.Equal(t, http.StatusOK, rec.Code)

	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nonceResp))
	require.NotEmpty(t, nonceResp.Nonce)

	rec = ts.do(t, http.MethodPost, "/auth/wallet/connect", "", gin.H{
		"address":   address,
		"signature": signNonce(t, key, nonceResp.Nonce),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var connectResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &connectResp))
	require.NotEmpty(t, connectResp.Token)
	return connectResp.Token
}

func TestFullWalletFlow(t *testing.T) {
	ts := newTestServer(t)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	token := ts.connect(t, key)

	rec := ts.do(t, http.MethodGet, "/auth/wallet/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var statusResp struct {
		Status string `json:"status"`
		Data   struct {
			Connected bool     `json:"connected"`
			Addresses []string `json:"addresses"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusResp))
	require.Equal(t, "success", statusResp.Status)
	require.True(t, statusResp.Data.Connected)
	require.Equal(t, []string{address}, statusResp.Data.Addresses)

	rec = ts.do(t, http.MethodPost, "/auth/wallet/disconnect", token, gin.H{"address": address})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.Bytes())

	rec = ts.do(t, http.MethodGet, "/auth/wallet/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusResp))
	require.False(t, statusResp.Data.Connected)
	require.Empty(t, statusResp.Data.Addresses)
}

func TestConnectWithPairSignature(t *testing.T) {
	ts := newTestServer(t)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	rec := ts.do(t, http.MethodPost, "/auth/wallet/request-nonce", "", gin.H{"address": address})
	require.Equal(t, http.StatusOK, rec.Code)

	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nonceResp))

	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(nonceResp.Nonce), nonceResp.Nonce)
	sig, err := ethcrypto.Sign(ethcrypto.Keccak256([]byte(msg)), key)
	require.NoError(t, err)

	rec = ts.do(t, http.MethodPost, "/auth/wallet/connect", "", gin.H{
		"address":   address,
		"signature": [2]string{hexutil.Encode(sig[:32]), hexutil.Encode(sig[32:64])},
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestConnectWithoutNonce(t *testing.T) {
	ts := newTestServer(t)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	rec := ts.do(t, http.MethodPost, "/auth/wallet/connect", "", gin.H{
		"address":   address,
		"signature": signNonce(t, key, "never-issued"),
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "No valid nonce")
}

func TestConnectBadSignature(t *testing.T) {
	ts := newTestServer(t)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	intruder, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	rec := ts.do(t, http.MethodPost, "/auth/wallet/request-nonce", "", gin.H{"address": address})
	require.Equal(t, http.StatusOK, rec.Code)

	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nonceResp))

	rec = ts.do(t, http.MethodPost, "/auth/wallet/connect", "", gin.H{
		"address":   address,
		"signature": signNonce(t, intruder, nonceResp.Nonce),
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid signature")
}

func TestRequestNonceBadBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/auth/wallet/request-nonce", "", gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestNonceRateLimited(t *testing.T) {
	ts := newTestServer(t, service.WithLimiter(rate.NewMemory(1, time.Minute)))

	rec := ts.do(t, http.MethodPost, "/auth/wallet/request-nonce", "", gin.H{"address": "0xA1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/auth/wallet/request-nonce", "", gin.H{"address": "0xA1"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGuardedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/auth/wallet/disconnect"},
		{http.MethodGet, "/auth/wallet/status"},
		{http.MethodGet, "/auth/me"},
	} {
		rec := ts.do(t, route.method, route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestRevokedTokenRejected(t *testing.T) {
	ts := newTestServer(t)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	token := ts.connect(t, key)

	require.NoError(t, ts.store.Revoke(t.Context(), token, "whoever"))

	rec := ts.do(t, http.MethodGet, "/auth/wallet/status", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Token revoked")
}

func TestMeEndpoint(t *testing.T) {
	ts := newTestServer(t)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	token := ts.connect(t, key)

	rec := ts.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var meResp struct {
		ID       string   `json:"id"`
		Username string   `json:"username"`
		Wallets  []string `json:"wallets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meResp))
	require.Equal(t, address, meResp.Username)
	require.Equal(t, []string{address}, meResp.Wallets)
}
