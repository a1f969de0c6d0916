/*******************************************************************************
 * Copyright (c) 2026 Genome Research Ltd.
 *
 * Authors:
 *	- Sendu Bala <sb10@sanger.ac.uk>
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/


package sheets

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/config"
	"golang.org/x/oauth2/jwt"
)

const (
	ErrNoCredentials         = Error("no Google credentials file configured")
	ErrNotServiceAccount     = Error("Google credentials are not for a service account")
	ErrIncompleteCredentials = Error("Google credentials are missing a client email or private key")

	serviceAccountType = "service_account"
	defaultTokenURI    = "https://oauth2.googleapis.com/token"
	readonlyScope      = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// ServiceCredentials are the parts of a service account key file (as
// downloaded from https://console.developers.google.com) needed to read
// samplesheets.
type ServiceCredentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ServiceCredentialsFromFile parses the given service account key file. Keys
// for anything other than a service account, or without a client email and
// private key, are rejected. A missing token_uri defaults to Google's.
func ServiceCredentialsFromFile(path string) (*ServiceCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading Google credentials")
	}

	sc := &ServiceCredentials{}
	if err = json.Unmarshal(data, sc); err != nil {
		return nil, errors.Wrapf(err, "parsing Google credentials %s", path)
	}

	if err = sc.validate(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	return sc, nil
}

func (sc *ServiceCredentials) validate() error {
	if sc.Type != serviceAccountType {
		return errors.Wrapf(ErrNotServiceAccount, "type %q", sc.Type)
	}

	if sc.ClientEmail == "" || sc.PrivateKey == "" {
		return ErrIncompleteCredentials
	}

	if sc.TokenURI == "" {
		sc.TokenURI = defaultTokenURI
	}

	return nil
}

// ServiceCredentialsFromConfig reads the key file at the config's
// CredentialsPath (ANGLERFISH_CREDENTIALS_FILE).
func ServiceCredentialsFromConfig(c *config.Config) (*ServiceCredentials, error) {
	if c.CredentialsPath == "" {
		return nil, errors.Wrapf(ErrNoCredentials, "set %s", config.EnvVarCreds)
	}

	return ServiceCredentialsFromFile(c.CredentialsPath)
}

func (sc *ServiceCredentials) toJWTConfig() *jwt.Config {
	return &jwt.Config{
		Email:        sc.ClientEmail,
		PrivateKey:   []byte(sc.PrivateKey),
		PrivateKeyID: sc.PrivateKeyID,
		TokenURL:     sc.TokenURI,
		Scopes:       []string{readonlyScope},
	}
}
