package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// oauthHTTPClient runs the installed-app flow: a cached token is reused,
// otherwise the user is prompted for an authorization code and the new
// token is written next to the credentials.
func oauthHTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	secret, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, eris.Wrapf(err, "gmail: read credentials %s", credentialsFile)
	}
	oauthConfig, err := google.ConfigFromJSON(secret, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: parse credentials")
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		token, err = tokenFromPrompt(ctx, oauthConfig)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, token); err != nil {
			return nil, err
		}
	}
	return oauthConfig.Client(ctx, token), nil
}

func tokenFromPrompt(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, eris.Wrap(err, "gmail: read authorization code")
	}
	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: exchange authorization code")
	}
	return token, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, eris.Wrapf(err, "gmail: decode token %s", path)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return eris.Wrapf(err, "gmail: save token %s", path)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return eris.Wrapf(err, "gmail: encode token %s", path)
	}
	return nil
}
