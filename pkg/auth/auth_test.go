package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testProject = "chefconnect-test"

// ---------- Helpers ----------

type signer struct {
	key  *rsa.PrivateKey
	kid  string
	cert string
}

func newSigner(t *testing.T, kid string) *signer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.system.gserviceaccount.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return &signer{key: key, kid: kid, cert: string(certPEM)}
}

func (s *signer) token(t *testing.T, claims firebaseClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.kid
	signed, err := tok.SignedString(s.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() firebaseClaims {
	now := time.Now()
	return firebaseClaims{
		PhoneNumber: "+15550100",
		AuthTime:    now.Add(-time.Minute).Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "firebase-uid-1",
			Issuer:    "https://securetoken.google.com/" + testProject,
			Audience:  []string{testProject},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func certServer(t *testing.T, signers ...*signer) (*httptest.Server, *int32) {
	t.Helper()

	var hits int32
	certs := map[string]string{}
	for _, s := range signers {
		certs[s.kid] = s.cert
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		json.NewEncoder(w).Encode(certs)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// ---------- Dev verifier ----------

func TestDevVerifier_RoundTrip(t *testing.T) {
	token, err := NewDevToken("uid-42", "+15550142", "secret", time.Minute)
	if err != nil {
		t.Fatalf("NewDevToken failed: %v", err)
	}

	id, err := NewDevVerifier("secret").Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.Subject != "uid-42" || id.PhoneNumber != "+15550142" {
		t.Fatalf("Unexpected identity: %+v", id)
	}
}

func TestDevVerifier_RejectsBadTokens(t *testing.T) {
	expired, _ := NewDevToken("uid-42", "", "secret", -time.Minute)
	forged, _ := NewDevToken("uid-42", "", "other-secret", time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"wrong secret", forged},
	}

	v := NewDevVerifier("secret")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			if !errors.Is(err, ErrInvalidCredential) {
				t.Fatalf("Expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

// ---------- Firebase verifier ----------

func TestFirebaseVerifier_ValidToken(t *testing.T) {
	s := newSigner(t, "kid-1")
	srv, hits := certServer(t, s)
	v := NewFirebaseVerifier(testProject, WithCertsURL(srv.URL, srv.Client()))

	for i := 0; i < 2; i++ {
		id, err := v.Verify(context.Background(), s.token(t, validClaims()))
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if id.Subject != "firebase-uid-1" || id.PhoneNumber != "+15550100" {
			t.Fatalf("Unexpected identity: %+v", id)
		}
	}

	if got := atomic.LoadInt32(hits); got != 1 {
		t.Fatalf("Expected certificates to be fetched once, got %d", got)
	}
}

func TestFirebaseVerifier_RejectsBadTokens(t *testing.T) {
	s := newSigner(t, "kid-1")
	stranger := newSigner(t, "kid-1")
	unknown := newSigner(t, "kid-unknown")
	srv, _ := certServer(t, s)
	v := NewFirebaseVerifier(testProject, WithCertsURL(srv.URL, srv.Client()))

	wrongAud := validClaims()
	wrongAud.Audience = []string{"another-project"}

	wrongIss := validClaims()
	wrongIss.Issuer = "https://securetoken.google.com/another-project"

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	hs256, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"wrong audience", s.token(t, wrongAud)},
		{"wrong issuer", s.token(t, wrongIss)},
		{"expired", s.token(t, expired)},
		{"empty subject", s.token(t, noSubject)},
		{"forged signature", stranger.token(t, validClaims())},
		{"unknown kid", unknown.token(t, validClaims())},
		{"wrong algorithm", hs256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			if !errors.Is(err, ErrInvalidCredential) {
				t.Fatalf("Expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

func TestFirebaseVerifier_KeyOutageIsNotAnInvalidCredential(t *testing.T) {
	s := newSigner(t, "kid-1")
	var down atomic.Bool
	down.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{s.kid: s.cert})
	}))
	t.Cleanup(srv.Close)
	v := NewFirebaseVerifier(testProject, WithCertsURL(srv.URL, srv.Client()))

	_, err := v.Verify(context.Background(), s.token(t, validClaims()))
	if !errors.Is(err, ErrKeysUnavailable) {
		t.Fatalf("Expected ErrKeysUnavailable, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("Expected outage not to be reported as invalid credential, got %v", err)
	}

	down.Store(false)
	if _, err := v.Verify(context.Background(), s.token(t, validClaims())); err != nil {
		t.Fatalf("Expected verification after recovery, got %v", err)
	}
}

// ---------- Admin ----------

func TestFirebaseAdmin_DeleteAccount(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := &FirebaseAdmin{projectID: testProject, baseURL: srv.URL, client: srv.Client()}
	if err := a.DeleteAccount(context.Background(), "uid-9"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	if gotPath != "/projects/"+testProject+"/accounts:delete" {
		t.Fatalf("Unexpected path %s", gotPath)
	}
	if gotBody != `{"localId":"uid-9"}` {
		t.Fatalf("Unexpected body %s", gotBody)
	}
}

func TestFirebaseAdmin_DeleteAccountError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"USER_NOT_FOUND"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	a := &FirebaseAdmin{projectID: testProject, baseURL: srv.URL, client: srv.Client()}
	if err := a.DeleteAccount(context.Background(), "uid-9"); err == nil {
		t.Fatal("Expected an error for a non-2xx response")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
		{"Basic abc", "", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		token, ok := BearerToken(r)
		if token != tt.token || ok != tt.ok {
			t.Fatalf("BearerToken(%q) = %q, %v", tt.header, token, ok)
		}
	}
}
