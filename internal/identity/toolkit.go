package identity

import (
	"context"
	"fmt"
	"net/http"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Toolkit is the Firebase email/password provider, reached through the
// Identity Toolkit relying party API with the project's web API key.
type Toolkit struct {
	rp *identitytoolkit.RelyingpartyService
}

// NewToolkit creates the provider. Extra options are passed to the API client,
// e.g. option.WithEndpoint for the auth emulator.
func NewToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Toolkit, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("identity toolkit: api key is required")
	}
	svc, err := identitytoolkit.NewService(ctx, append(opts, option.WithAPIKey(apiKey))...)
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit.NewService: %w", err)
	}
	return &Toolkit{rp: svc.Relyingparty}, nil
}

func (t *Toolkit) SignIn(ctx context.Context, email, password string) (Account, error) {
	resp, err := t.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Account{}, statusError(err)
	}
	return Account{UID: resp.LocalId, Token: resp.IdToken, Email: resp.Email}, nil
}

func (t *Toolkit) SignUp(ctx context.Context, email, password string) (Account, error) {
	resp, err := t.rp.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return Account{}, statusError(err)
	}
	return Account{UID: resp.LocalId, Token: resp.IdToken, Email: resp.Email}, nil
}

func (t *Toolkit) Lookup(ctx context.Context, token string) (Account, error) {
	resp, err := t.rp.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: token,
	}).Context(ctx).Do()
	if err != nil {
		return Account{}, statusError(err)
	}
	if len(resp.Users) == 0 {
		return Account{}, &StatusError{Code: http.StatusBadRequest, Message: "INVALID_ID_TOKEN"}
	}
	u := resp.Users[0]
	return Account{UID: u.LocalId, Token: token, Email: u.Email}, nil
}
