package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	oauthjwt "golang.org/x/oauth2/jwt"
)

const (
	identityToolkitURL   = "https://identitytoolkit.googleapis.com/v1"
	identityToolkitScope = "https://www.googleapis.com/auth/identitytoolkit"
	googleTokenURL       = "https://oauth2.googleapis.com/token"
)

// FirebaseAdmin calls the Identity Toolkit REST API as a service account.
type FirebaseAdmin struct {
	projectID string
	baseURL   string
	client    *http.Client
}

func NewFirebaseAdmin(ctx context.Context, projectID, clientEmail, privateKey string) *FirebaseAdmin {
	conf := &oauthjwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{identityToolkitScope},
		TokenURL:   googleTokenURL,
	}
	return &FirebaseAdmin{
		projectID: projectID,
		baseURL:   identityToolkitURL,
		client:    conf.Client(ctx),
	}
}

func (a *FirebaseAdmin) DeleteAccount(ctx context.Context, subject string) error {
	body, err := json.Marshal(map[string]string{"localId": subject})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/projects/%s/accounts:delete", a.baseURL, a.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete identity account: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("delete identity account: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
